// Package security provides security-related HTTP middleware.
package security

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Config holds the configuration for security middleware
type Config struct {
	// FilterEnabled enables the security filter
	FilterEnabled bool
	// MaxBodySizeMB is the maximum request body size in megabytes
	MaxBodySizeMB int
}

// FilterConfig lists what the filter lets through.
type FilterConfig struct {
	Enabled bool
	// Paths are served exactly (health checks, metrics).
	Paths []string
	// Prefixes are API subtrees; a prefix matches itself and anything
	// below it.
	Prefixes []string
}

// traversalPatterns mark path traversal or null byte injection.
var traversalPatterns = []string{
	"../",
	"..\\",
	"%2e%2e",
	"%00",
	"\x00",
}

// FilterMiddleware returns middleware that rejects requests outside the served
// route table with 404 and traversal attempts with 400, before routing,
// rate limiting or authentication spend anything on them.
func FilterMiddleware(cfg FilterConfig) func(http.Handler) http.Handler {
	exact := make(map[string]bool, len(cfg.Paths))
	for _, p := range cfg.Paths {
		exact[p] = true
	}
	prefixes := make([]string, 0, len(cfg.Prefixes))
	for _, p := range cfg.Prefixes {
		prefixes = append(prefixes, strings.TrimSuffix(p, "/"))
	}

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exact[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if traversal(r.URL) {
				writeBlocked(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request")
				return
			}
			if !served(r.URL.Path, prefixes) {
				writeBlocked(w, http.StatusNotFound, "NOT_FOUND", "Not found")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func served(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// traversal checks the decoded path and the raw path, decoded once more, so
// double encoding is caught too.
func traversal(u *url.URL) bool {
	candidates := []string{strings.ToLower(u.Path)}
	raw := u.RawPath
	if raw == "" {
		raw = u.EscapedPath()
	}
	candidates = append(candidates, strings.ToLower(raw))
	if decoded, err := url.PathUnescape(raw); err == nil {
		candidates = append(candidates, strings.ToLower(decoded))
	}
	for _, c := range candidates {
		for _, pattern := range traversalPatterns {
			if strings.Contains(c, pattern) {
				return true
			}
		}
	}
	return false
}

// writeBlocked writes the error envelope without echoing the request.
func writeBlocked(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
