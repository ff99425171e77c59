// Package realip attributes requests to a client: the address of the caller
// behind any trusted proxies, or the account bound to an authenticated API
// key.
package realip

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/pendergraft/zoppel/internal/auth"
)

type contextKey struct{}

// Config holds the configuration for the real IP middleware
type Config struct {
	// TrustProxy enables X-Forwarded-For and X-Real-IP parsing
	TrustProxy bool
	// TrustedProxies lists proxy CIDR ranges or single addresses
	TrustedProxies []string
}

type resolver struct {
	trust   bool
	proxies []netip.Prefix
}

func newResolver(cfg Config) resolver {
	res := resolver{trust: cfg.TrustProxy}
	if !cfg.TrustProxy {
		return res
	}
	for _, entry := range cfg.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if p, err := netip.ParsePrefix(entry); err == nil {
			res.proxies = append(res.proxies, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(entry); err == nil {
			a = a.Unmap()
			res.proxies = append(res.proxies, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return res
}

// isProxy reports whether s parses to an address inside a trusted range.
func (res resolver) isProxy(s string) bool {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range res.proxies {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// clientIP walks X-Forwarded-For from the nearest hop and returns the first
// address that is not a trusted proxy.
func (res resolver) clientIP(r *http.Request) string {
	remote := hostOnly(r.RemoteAddr)
	if !res.trust || !res.isProxy(remote) {
		return remote
	}

	var hops []string
	for _, h := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if h = strings.TrimSpace(h); h != "" {
			hops = append(hops, h)
		}
	}
	if len(hops) == 0 {
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
		return remote
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if !res.isProxy(hops[i]) {
			return hops[i]
		}
	}
	return hops[0]
}

// Middleware stores the resolved client IP in the request context.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	res := newResolver(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), contextKey{}, res.clientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// GetClientIP returns the client IP set by Middleware, or the remote
// address when the middleware did not run.
func GetClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(contextKey{}).(string); ok && ip != "" {
		return ip
	}
	return hostOnly(r.RemoteAddr)
}

// ClientKey identifies the client for per-client budgets. A request carrying
// a validated API key is keyed on the key's account, so one account shares a
// budget across addresses; anything else is keyed on its IP.
func ClientKey(r *http.Request) string {
	if auth.GetAPIKeyFromContext(r.Context()) != nil {
		if caller, ok := auth.CallerFromContext(r.Context()); ok {
			return "account:" + caller.Hex()
		}
	}
	return "ip:" + GetClientIP(r)
}
