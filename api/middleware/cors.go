package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
	"https://vichar.ai",     // web dashboard
}

// CORS returns middleware that applies the API's allowed origin policy.
// Browser extension origins are allowed by scheme since their IDs vary
// between stores and unpacked installs.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if strings.HasPrefix(origin, "chrome-extension://") || strings.HasPrefix(origin, "moz-extension://") {
				return true
			}
			for _, allowed := range defaultCORSOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
