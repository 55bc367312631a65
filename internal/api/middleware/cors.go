package middleware

import (
	"net/http"
	"strings"
)

// CORS allows credentialed requests from the configured origins. A "*" entry
// reflects any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[strings.TrimSuffix(origin, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")
				h.Set("Access-Control-Max-Age", "300")
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OriginAllowed reports whether origin may open a websocket.
func OriginAllowed(allowedOrigins []string, origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range allowedOrigins {
		if o == "*" || strings.TrimSuffix(o, "/") == origin {
			return true
		}
	}
	return false
}
