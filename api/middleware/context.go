package middleware

import (
	"context"

	"github.com/angelmondragon/agrostore-bff/pkg/auth"
)

type contextKey string

const (
	ctxShopper     contextKey = "shopper"
	ctxCartSession contextKey = "cart_session"
)

// ShopperFromContext returns the authenticated shopper, or nil for guests.
func ShopperFromContext(ctx context.Context) *auth.Shopper {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxShopper).(*auth.Shopper); ok {
		return v
	}
	return nil
}

func CartSessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartSession).(string); ok {
		return v
	}
	return ""
}

// WithShopper injects the authenticated shopper into the context.
func WithShopper(ctx context.Context, shopper *auth.Shopper) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxShopper, shopper)
}

// WithCartSession injects the cart session identifier into the context.
func WithCartSession(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartSession, sessionID)
}
