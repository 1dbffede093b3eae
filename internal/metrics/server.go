package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ServerMetrics are the metrics the input method server maintains.
type ServerMetrics struct {
	registry *Registry

	KeysTotal            *Counter
	ConsumedKeysTotal    *Counter
	CommitsTotal         *Counter
	ResetsTotal          *Counter
	ContextsCreatedTotal *Counter
	ErrorsTotal          *Counter

	InputContexts  *Gauge
	PreeditWindows *Gauge

	KeyLatency *Histogram
}

// NewServerMetrics registers the server metrics in r. A nil registry gets
// a fresh one under the "hanim" namespace.
func NewServerMetrics(r *Registry) *ServerMetrics {
	if r == nil {
		r = NewRegistry("hanim")
	}
	return &ServerMetrics{
		registry: r,

		KeysTotal:            r.Counter("keys_total", "Key press events forwarded by clients"),
		ConsumedKeysTotal:    r.Counter("consumed_keys_total", "Key presses consumed by the engine"),
		CommitsTotal:         r.Counter("commits_total", "Commit requests sent to clients"),
		ResetsTotal:          r.Counter("resets_total", "Composition resets"),
		ContextsCreatedTotal: r.Counter("contexts_created_total", "Input contexts created"),
		ErrorsTotal:          r.Counter("errors_total", "Failed protocol or windowing requests"),

		InputContexts:  r.Gauge("input_contexts", "Live input contexts"),
		PreeditWindows: r.Gauge("preedit_windows", "Live overlay preedit windows"),

		KeyLatency: r.Histogram("key_latency_seconds", "Time spent handling one key press", LatencyBuckets),
	}
}

// Registry returns the underlying registry.
func (m *ServerMetrics) Registry() *Registry { return m.registry }

// Serve exposes the registry at /metrics on addr until ctx is cancelled.
// extra mounts further handlers, such as a health endpoint, by path.
func Serve(ctx context.Context, addr string, r *Registry, extra map[string]http.Handler, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.HTTPHandler())
	for path, h := range extra {
		mux.Handle(path, h)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
