// Package metrics provides Prometheus instrumentation for zoppel.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled     bool
	serviceName string

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	apiErrorsTotal    *prometheus.CounterVec

	// Chain runtime metrics
	transactionTotal *prometheus.CounterVec
	restoredTotal    prometheus.Counter

	// Artifact domain metrics
	artifactMintTotal   *prometheus.CounterVec
	stipendTotal        *prometheus.CounterVec
	stipendWeiTotal     prometheus.Counter
	marketTransferTotal *prometheus.CounterVec

	// Zoppel domain metrics
	zoppelSupply prometheus.Gauge
)

// Init initializes the metrics system.
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	serviceName = svcName

	if !enabled {
		return
	}

	// HTTP request counter
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration histogram
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// API error counter by response code
	apiErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of API error responses by error code",
		},
		[]string{"code"},
	)

	// Transaction counter
	transactionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_transactions_total",
			Help: "Total number of submitted transactions",
		},
		[]string{"contract", "method", "status"},
	)

	restoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chain_transactions_restored_total",
			Help: "Total number of transactions replayed from storage",
		},
	)

	// Artifact mint counter
	artifactMintTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_mint_total",
			Help: "Total number of artifacts minted",
		},
		[]string{"kind"},
	)

	// Minter stipend counter
	stipendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_minter_stipend_total",
			Help: "Total number of minter stipend payments",
		},
		[]string{"status"},
	)

	stipendWeiTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artifact_minter_stipend_wei_total",
			Help: "Total wei paid out as minter stipends",
		},
	)

	// Marketplace transfer counter
	marketTransferTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_restricted_transfer_total",
			Help: "Total number of marketplace transfers",
		},
		[]string{"status"},
	)

	zoppelSupply = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "zoppel_total_supply_tokens",
			Help: "Current Zoppel total supply in whole tokens",
		},
	)

	// Note: Go runtime metrics (goroutines, memory, GC) are automatically
	// collected by prometheus/client_golang - no custom collector needed
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled
}

// ServiceName returns the configured service name for metric labels.
func ServiceName() string {
	return serviceName
}
