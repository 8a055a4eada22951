// Package metrics defines the indexer's Prometheus metric catalogue (spec
// §6) and the HTTP server that exposes it.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RPCLatencyBuckets matches spec §6's fixed histogram buckets exactly.
var RPCLatencyBuckets = []float64{0.025, 0.05, 0.075, 0.1, 0.15, 0.2, 0.3, 0.5, 1.0, 5.0, 10.0}

// Registry bundles every metric series the indexer emits. A Registry is
// constructed once per process and threaded into every component that
// reports a measurement, never reached through a package-level global.
type Registry struct {
	BlocksProcessed  *prometheus.CounterVec
	RPCRequests      *prometheus.CounterVec
	RPCErrors        *prometheus.CounterVec
	RPCLatency       *prometheus.HistogramVec
	LatestProcessed  *prometheus.GaugeVec
	ChainTip         *prometheus.GaugeVec
	ChainTipLag      *prometheus.GaugeVec
	LatestProcessSec *prometheus.GaugeVec

	reg *prometheus.Registry
}

// RPCMethods enumerates the method label values used on RPC metrics, for
// zero-initialization at startup.
var RPCMethods = []string{"eth_blockNumber", "eth_getBlockByNumber", "eth_getTransactionReceipt"}

// New registers every series on a fresh prometheus.Registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{
		reg: reg,
		BlocksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blocks_processed_total",
			Help: "Total number of blocks processed and persisted.",
		}, []string{"chain"}),
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rpc_requests_total",
			Help: "Total number of RPC requests issued.",
		}, []string{"chain", "method"}),
		RPCErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rpc_errors_total",
			Help: "Total number of RPC requests that returned an error.",
		}, []string{"chain", "method"}),
		RPCLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rpc_latency_seconds",
			Help:    "RPC request latency in seconds.",
			Buckets: RPCLatencyBuckets,
		}, []string{"chain", "method"}),
		LatestProcessed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "latest_processed_block_number",
			Help: "Highest block number handed to the storage manager.",
		}, []string{"chain"}),
		ChainTip: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chain_tip_block_number",
			Help: "Latest block number reported by the RPC endpoint.",
		}, []string{"chain"}),
		ChainTipLag: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chain_tip_lag",
			Help: "chain_tip_block_number minus latest_processed_block_number.",
		}, []string{"chain"}),
		LatestProcessSec: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "latest_block_processing_seconds",
			Help: "Wall time spent processing the most recently completed block.",
		}, []string{"chain"}),
	}
	return r
}

// InitChain zero-initializes every labelled series for chainName so
// dashboards don't read "no data" on a healthy but idle indexer (spec §9
// design note).
func (r *Registry) InitChain(chainName string) {
	r.BlocksProcessed.WithLabelValues(chainName)
	r.LatestProcessed.WithLabelValues(chainName)
	r.ChainTip.WithLabelValues(chainName)
	r.ChainTipLag.WithLabelValues(chainName)
	r.LatestProcessSec.WithLabelValues(chainName)
	for _, method := range RPCMethods {
		r.RPCRequests.WithLabelValues(chainName, method)
		r.RPCErrors.WithLabelValues(chainName, method)
		r.RPCLatency.WithLabelValues(chainName, method)
	}
}

// ObserveRPC records a single RPC call's latency and, on failure, its
// error, tagged by chain and method (spec §4.2).
func (r *Registry) ObserveRPC(chain, method string, latency time.Duration, err error) {
	r.RPCRequests.WithLabelValues(chain, method).Inc()
	r.RPCLatency.WithLabelValues(chain, method).Observe(latency.Seconds())
	if err != nil {
		r.RPCErrors.WithLabelValues(chain, method).Inc()
	}
}

// Server exposes the registry over HTTP on /metrics, plus a /healthz probe,
// using chi for the mux in the idiom of the explorer-style HTTP surfaces in
// the example pool.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a Server bound to addr. Call Start to run it.
func NewServer(addr string, r *Registry) *Server {
	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
	mux.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

// Start runs the metrics HTTP server until ctx is cancelled. It never
// touches driver state directly — only the prometheus registry it was
// constructed with — so it is the one component allowed its own goroutine
// under the otherwise single-threaded concurrency model (spec §5).
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
