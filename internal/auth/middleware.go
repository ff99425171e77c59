// Package auth resolves the caller address of a request, either from an API
// key bound to an account or, in development, from a request header.
package auth

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pendergraft/zoppel/internal/storage"
)

// Context key type for avoiding collisions
type contextKey string

const (
	apiKeyContextKey contextKey = "apiKey"
	callerContextKey contextKey = "caller"
)

// ErrorWriter writes an error response.
type ErrorWriter func(w http.ResponseWriter, status int, code, message string)

// GetAPIKeyFromContext retrieves the API key info from context.
func GetAPIKeyFromContext(ctx context.Context) *storage.APIKey {
	if key, ok := ctx.Value(apiKeyContextKey).(*storage.APIKey); ok {
		return key
	}
	return nil
}

// CallerFromContext returns the account the request acts for.
func CallerFromContext(ctx context.Context) (common.Address, bool) {
	addr, ok := ctx.Value(callerContextKey).(common.Address)
	return addr, ok
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller common.Address) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

func withKey(ctx context.Context, key *storage.APIKey) (context.Context, bool) {
	caller, ok := parseAddress(key.Address)
	if !ok {
		return ctx, false
	}
	ctx = context.WithValue(ctx, apiKeyContextKey, key)
	return WithCaller(ctx, caller), true
}

// Middleware returns an HTTP middleware that validates API keys and sets
// the caller to the key's account. A key already validated by
// OptionalMiddleware is not looked up again.
func Middleware(store storage.APIKeyStore, writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetAPIKeyFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}
			apiKey := extractAPIKey(r)
			if apiKey == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key required")
				return
			}
			if !wellFormed(apiKey) {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
				return
			}

			key, err := store.ValidateAPIKey(r.Context(), apiKey)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
				return
			}

			ctx, ok := withKey(r.Context(), key)
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key is not bound to an account")
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalMiddleware returns an HTTP middleware that validates API keys if present,
// but allows requests without keys to proceed.
func OptionalMiddleware(store storage.APIKeyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey := extractAPIKey(r); wellFormed(apiKey) {
				key, err := store.ValidateAPIKey(r.Context(), apiKey)
				if err == nil && key != nil {
					if ctx, ok := withKey(r.Context(), key); ok {
						r = r.WithContext(ctx)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DevMiddleware takes the caller from the X-Caller-Address header. It is
// used when authentication is disabled.
func DevMiddleware(writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(CallerHeader)
			if header == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", CallerHeader+" header required")
				return
			}
			caller, ok := parseAddress(header)
			if !ok {
				writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid "+CallerHeader+" header")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}
