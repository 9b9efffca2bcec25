package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/agrostore-bff/api/responses"
	pkgAuth "github.com/angelmondragon/agrostore-bff/pkg/auth"
	"github.com/angelmondragon/agrostore-bff/pkg/config"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
)

// OptionalAuth resolves a bearer token into the shopper identity. Requests
// without credentials continue as guests; a token that does not verify is
// rejected. With authentication disabled every request is a guest.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" || !cfg.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			shopper := &pkgAuth.Shopper{ClientID: claims.ClientID, Email: claims.Email}
			ctx := WithShopper(r.Context(), shopper)
			if logg != nil {
				ctx = logg.WithClientID(ctx, shopper.ClientID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
