package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/agrostore-bff/api/responses"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
}

// CORS returns middleware that applies the storefront's allowed origin policy.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CartSessionHeader, "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{CartSessionHeader, responses.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
