package tracer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Telemetry owns the tracer and meter providers plus the /metrics server.
type Telemetry struct {
	tp     *trace.TracerProvider
	mp     *metric.MeterProvider
	server *http.Server
	logger *slog.Logger
}

// InitTracingAndMetrics installs global otel providers and prepares the
// Prometheus endpoint on the given port. Call Serve to start it.
func InitTracingAndMetrics(serviceName, port string, logger *slog.Logger) (*Telemetry, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)
	tp := trace.NewTracerProvider(trace.WithResource(res))
	otel.SetTracerProvider(tp)

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(mp)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Telemetry{
		tp: tp,
		mp: mp,
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}, nil
}

// Serve blocks until ctx is cancelled, then shuts the metrics server down.
func (t *Telemetry) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		t.logger.Info("Starting metrics server", slog.String("address", t.server.Addr))
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.Shutdown(shutdownCtx)
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.server.Shutdown(ctx),
		t.mp.Shutdown(ctx),
		t.tp.Shutdown(ctx),
	)
}
