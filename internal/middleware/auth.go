package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

const ClientKey contextKey = "client"

// publicPaths never require a key.
var publicPaths = map[string]bool{"/health": true, "/healthz": true}

// APIKeyAuth validates the key from the Authorization header, or the api_key query
// parameter for websocket clients that cannot set headers. validKeys maps client name to key.
func APIKeyAuth(validKeys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			// Support both "Bearer <key>" and "<key>" formats
			apiKey := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if apiKey == "" {
				apiKey = r.URL.Query().Get("api_key")
			}
			if apiKey == "" {
				http.Error(w, "missing API key", http.StatusUnauthorized)
				return
			}

			// constant-time comparison to prevent timing attacks
			var client string
			for name, key := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					client = name
					break
				}
			}
			if client == "" {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClientKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClientFromContext returns the authenticated client name, empty when auth is off.
func GetClientFromContext(ctx context.Context) string {
	if client, ok := ctx.Value(ClientKey).(string); ok {
		return client
	}
	return ""
}
