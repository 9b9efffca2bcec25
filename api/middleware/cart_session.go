package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/agrostore-bff/pkg/logger"
)

// CartSessionHeader carries the anonymous cart identity between the
// storefront and this service.
const CartSessionHeader = "X-Cart-Session"

// CartSession reads the cart session from CartSessionHeader and issues a new
// one when it is missing or malformed. The effective id is echoed back on
// every response so the storefront can persist it.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(CartSessionHeader))
			if parsed, err := uuid.Parse(sessionID); err == nil {
				sessionID = parsed.String()
			} else {
				sessionID = uuid.NewString()
			}

			w.Header().Set(CartSessionHeader, sessionID)

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
