package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ModelRequestsTotal      metric.Int64Counter
	ModelDurationSeconds    metric.Float64Histogram
	PromptLogFailuresTotal  metric.Int64Counter
	PromoRedemptionsTotal   metric.Int64Counter
	PromoCompensationsTotal metric.Int64Counter
	NotificationsSentTotal  metric.Int64Counter
	ScheduledTasksTotal     metric.Int64Counter
	DbQueryDurationSeconds  metric.Float64Histogram
	DbQueryErrorsTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

func mustCounter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func mustHistogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}

// InitAppMetrics initializes the global metrics instruments once,
// using the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("flaia-functions")
		appMetrics = &AppMetrics{
			ModelRequestsTotal:      mustCounter(meter, "model_requests_total", "Total number of generative model calls", "{request}"),
			ModelDurationSeconds:    mustHistogram(meter, "model_duration_seconds", "Latency of generative model calls in seconds"),
			PromptLogFailuresTotal:  mustCounter(meter, "prompt_log_failures_total", "Prompt log writes that failed or overran their budget", "{failure}"),
			PromoRedemptionsTotal:   mustCounter(meter, "promo_redemptions_total", "Promo code redemption attempts by outcome", "{redemption}"),
			PromoCompensationsTotal: mustCounter(meter, "promo_compensations_total", "Entitlement grants revoked after a lost commit", "{revocation}"),
			NotificationsSentTotal:  mustCounter(meter, "notifications_sent_total", "Push notifications published by outcome", "{notification}"),
			ScheduledTasksTotal:     mustCounter(meter, "scheduled_tasks_total", "Scheduled tasks dispatched by outcome", "{task}"),
			DbQueryDurationSeconds:  mustHistogram(meter, "db_query_duration_seconds", "Duration of database queries in seconds"),
			DbQueryErrorsTotal:      mustCounter(meter, "db_query_errors_total", "Total number of database query errors", "{error}"),
		}
		log.Println("Application metrics instruments initialized.")
	})
}

// Get returns the AppMetrics instance, initializing it against the
// current MeterProvider on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

// ObserveQuery records duration and error count for one database statement.
func ObserveQuery(ctx context.Context, table, op string, start time.Time, err error) {
	m := Get()
	attrs := metric.WithAttributes(attribute.String("db.table", table), attribute.String("db.operation", op))
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

// Outcome is a convenience attribute set for counters split by result.
func Outcome(result string, kv ...attribute.KeyValue) metric.AddOption {
	return metric.WithAttributes(append(kv, attribute.String("outcome", result))...)
}
