package server

import (
	"net/http"

	"github.com/pendergraft/zoppel/internal/auth"
	"github.com/pendergraft/zoppel/internal/httpapi"
)

// callerMiddleware resolves the account a write request acts for: the
// address bound to the API key, or the X-Caller-Address header when
// authentication is disabled.
func (s *Server) callerMiddleware() func(http.Handler) http.Handler {
	if s.cfg.Auth.Type == "api-key" {
		return auth.Middleware(s.store, httpapi.WriteError)
	}
	return auth.DevMiddleware(httpapi.WriteError)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-API-Key, "+auth.CallerHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
