package middleware

import (
	"net/http"

	"resto-be/internal/auth"
	"resto-be/internal/logger"
)

// CORS allows the single configured frontend origin.
func CORS(origin string) func(http.Handler) http.Handler {
	allowHeaders := "Content-Type, Authorization, " + logger.RequestIDHeader + ", " + auth.SessionHeader

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Expose-Headers", logger.RequestIDHeader)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
