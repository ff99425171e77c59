package auth

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pendergraft/zoppel/internal/storage"
	"github.com/pendergraft/zoppel/internal/validation"
)

// CallerHeader carries the caller address when authentication is disabled.
const CallerHeader = "X-Caller-Address"

// extractAPIKey returns the key from X-API-Key or a bearer token.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// wellFormed reports whether key can have been issued by the store.
func wellFormed(key string) bool {
	return strings.HasPrefix(key, storage.KeyPrefix) && len(key) > len(storage.KeyPrefix)
}

// parseAddress parses a 0x-prefixed hex address.
func parseAddress(s string) (common.Address, bool) {
	addr, err := validation.ParseAddress(s)
	return addr, err == nil
}
