// Package server provides the HTTP server setup and wiring.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	accountsDomain "github.com/pendergraft/zoppel/internal/accounts/domain"
	accountsTransport "github.com/pendergraft/zoppel/internal/accounts/transport"
	artifactsDomain "github.com/pendergraft/zoppel/internal/artifacts/domain"
	artifactsTransport "github.com/pendergraft/zoppel/internal/artifacts/transport"
	"github.com/pendergraft/zoppel/internal/auth"
	"github.com/pendergraft/zoppel/internal/chain"
	"github.com/pendergraft/zoppel/internal/config"
	explorerDomain "github.com/pendergraft/zoppel/internal/explorer/domain"
	explorerTransport "github.com/pendergraft/zoppel/internal/explorer/transport"
	"github.com/pendergraft/zoppel/internal/httpapi"
	"github.com/pendergraft/zoppel/internal/middleware/logging"
	"github.com/pendergraft/zoppel/internal/middleware/ratelimit"
	"github.com/pendergraft/zoppel/internal/middleware/realip"
	"github.com/pendergraft/zoppel/internal/middleware/security"
	"github.com/pendergraft/zoppel/internal/observability/metrics"
	"github.com/pendergraft/zoppel/internal/storage"
	zoppelDomain "github.com/pendergraft/zoppel/internal/zoppel/domain"
	zoppelTransport "github.com/pendergraft/zoppel/internal/zoppel/transport"
)

// Server is the HTTP server
type Server struct {
	cfg     *config.Config
	genesis *config.Genesis
	store   storage.Store
	logger  *slog.Logger
	router  *chi.Mux
	rt      *chain.Runtime

	zoppelSvc    zoppelDomain.Service
	artifactsSvc artifactsDomain.Service
	accountsSvc  accountsDomain.Service
	explorerSvc  explorerDomain.Service
}

// New creates a new server. The chain state is empty until Start replays
// the transaction log.
func New(cfg *config.Config, genesis *config.Genesis, store storage.Store, logger *slog.Logger, opts ...chain.Option) *Server {
	s := &Server{
		cfg:     cfg,
		genesis: genesis,
		store:   store,
		logger:  logger,
		router:  chi.NewRouter(),
	}

	s.rt = chain.New(chain.Config{
		ChainID:     genesis.ChainID,
		GenesisTime: genesis.GenesisTime,
		Alloc:       genesis.Balances(),
	}, store, logger.With("component", "chain"), opts...)

	token := zoppelDomain.NewToken()
	generator := artifactsDomain.NewGenerator()
	s.rt.Register(zoppelDomain.ContractName, zoppelDomain.NewHandler(token))
	s.rt.Register(artifactsDomain.ContractName, artifactsDomain.NewHandler(generator))

	// Wrap services with logging middleware
	s.zoppelSvc = zoppelDomain.LoggingMiddleware(logger)(zoppelDomain.NewService(s.rt, token))
	s.artifactsSvc = artifactsDomain.LoggingMiddleware(logger)(artifactsDomain.NewService(s.rt, generator))
	s.accountsSvc = accountsDomain.LoggingMiddleware(logger)(accountsDomain.NewService(s.rt))
	s.explorerSvc = explorerDomain.NewService(store, s.rt)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// MetricsHandler returns the metrics HTTP handler for separate metrics server
func (s *Server) MetricsHandler() http.Handler {
	return metrics.Handler()
}

// Runtime returns the chain runtime.
func (s *Server) Runtime() *chain.Runtime {
	return s.rt
}

func (s *Server) setupMiddleware() {
	// Order matters! Security middleware runs first to block malicious requests early.

	// 1. Real IP extraction (must be first to set client IP for other middleware)
	s.router.Use(realip.Middleware(realip.Config{
		TrustProxy:     s.cfg.Proxy.TrustProxy,
		TrustedProxies: s.cfg.Proxy.TrustedProxies,
	}))

	// 2. Security filter (unknown paths and traversal never reach the router)
	s.router.Use(security.FilterMiddleware(s.filterConfig()))

	// 3. Body size limit and JSON bodies only
	s.router.Use(security.MaxBodySizeMiddleware(s.cfg.Security.MaxBodySizeMB))
	s.router.Use(security.RequireJSONMiddleware())

	// 4. Resolve API keys up front so budgets follow the account
	if s.cfg.Auth.Type == "api-key" {
		s.router.Use(auth.OptionalMiddleware(s.store))
	}

	// 5. Rate limiting (bypasses health checks)
	s.router.Use(ratelimit.Middleware(ratelimit.Config{
		Enabled:             s.cfg.RateLimit.Enabled,
		RequestsPerMin:      s.cfg.RateLimit.RequestsPerMin,
		BurstSize:           s.cfg.RateLimit.BurstSize,
		CleanupMinutes:      s.cfg.RateLimit.CleanupMinutes,
		WriteRequestsPerMin: s.cfg.RateLimit.WriteRPM,
		WriteBurstSize:      s.cfg.RateLimit.WriteBurst,
	}))

	// 6. Standard middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(time.Duration(s.cfg.Server.RequestTimeout) * time.Second))
	}
	s.router.Use(middleware.Compress(5))

	// 7. CORS
	s.router.Use(corsMiddleware)
}

func (s *Server) setupRoutes() {
	// Health checks
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)

	if s.cfg.Metrics.Enabled && s.cfg.Metrics.Path != "" {
		s.router.Handle(s.cfg.Metrics.Path, metrics.Handler())
	}

	// Identity middleware for transaction submissions
	requireCaller := s.callerMiddleware()

	s.router.Route(apiPrefix, func(r chi.Router) {
		r.With(requireCaller).Get(whoamiPath, s.handleWhoAmI)

		for _, g := range s.apiGroups() {
			r.Route(g.path, func(r chi.Router) {
				g.read(r)
				if g.write != nil {
					r.Group(func(r chi.Router) {
						r.Use(requireCaller)
						g.write(r)
					})
				}
			})
		}
	})
}

const (
	apiPrefix  = "/api/v1"
	whoamiPath = "/whoami"
)

// routeGroup is one API subtree. Writes run behind the caller middleware.
type routeGroup struct {
	path  string
	read  func(chi.Router)
	write func(chi.Router)
}

func (s *Server) apiGroups() []routeGroup {
	zoppelHandler := zoppelTransport.NewHandler(s.zoppelSvc)
	artifactsHandler := artifactsTransport.NewHandler(s.artifactsSvc)
	accountsHandler := accountsTransport.NewHandler(s.accountsSvc)
	explorerHandler := explorerTransport.NewHandler(s.explorerSvc)

	return []routeGroup{
		{"/zoppel", zoppelHandler.RegisterReadRoutes, zoppelHandler.RegisterWriteRoutes},
		{"/artifacts", artifactsHandler.RegisterReadRoutes, artifactsHandler.RegisterWriteRoutes},
		{"/accounts", accountsHandler.RegisterReadRoutes, accountsHandler.RegisterWriteRoutes},
		// Chain explorer - read only
		{"/chain", explorerHandler.RegisterReadRoutes, nil},
	}
}

// filterConfig lets through exactly what the router serves.
func (s *Server) filterConfig() security.FilterConfig {
	cfg := security.FilterConfig{
		Enabled:  s.cfg.Security.FilterEnabled,
		Paths:    []string{"/health", "/healthz", "/readyz", apiPrefix + whoamiPath},
		Prefixes: []string{},
	}
	if s.cfg.Metrics.Enabled && s.cfg.Metrics.Path != "" {
		cfg.Paths = append(cfg.Paths, s.cfg.Metrics.Path)
	}
	for _, g := range s.apiGroups() {
		cfg.Prefixes = append(cfg.Prefixes, apiPrefix+g.path)
	}
	return cfg
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWhoAmI returns the account writes from this request would use.
func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpapi.Caller(w, r)
	if !ok {
		return
	}
	resp := map[string]string{
		"address": caller.Hex(),
		"auth":    s.cfg.Auth.Type,
	}
	if key := auth.GetAPIKeyFromContext(r.Context()); key != nil {
		resp["keyName"] = key.Name
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}

// handleReady reports ready once the deployed contracts are known.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	head := s.rt.Head()
	if s.genesis.Zoppel.Deploy {
		if _, ok := head.Contracts[zoppelDomain.ContractName]; !ok {
			httpapi.WriteError(w, http.StatusServiceUnavailable, "NOT_READY", "chain state not restored")
			return
		}
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"blockNumber": head.BlockNumber,
	})
}
