// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"bizpilot/internal/common/config"
	"bizpilot/internal/common/logger"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	ideaCounter    otelmetric.Int64Counter
	exportCounter  otelmetric.Int64Counter
	aiLatency      otelmetric.Float64Histogram
}

// New wires the OpenTelemetry meter (exported through the given Prometheus
// registerer) and, when enabled, a Jaeger tracer. Failures degrade to no-op
// instruments and are logged.
func New(serviceName string, cfg config.ObservabilityConfig, reg promclient.Registerer, log logger.Logger) *Observability {
	o := &Observability{tracer: noop.NewTracerProvider().Tracer(serviceName)}

	if cfg.TracingEnabled {
		tp, err := newTracerProvider(serviceName, cfg)
		if err != nil {
			log.Warn("Tracing disabled", map[string]interface{}{"error": err.Error()})
		} else {
			otel.SetTracerProvider(tp)
			o.tracerProvider = tp
			o.tracer = tp.Tracer(serviceName)
		}
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err.Error()})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	o.meterProvider = provider
	o.ideaCounter, _ = meter.Int64Counter(
		"ideas.submitted",
		otelmetric.WithDescription("Business ideas submitted"),
	)
	o.exportCounter, _ = meter.Int64Counter(
		"plans.exported",
		otelmetric.WithDescription("Plan exports served"),
	)
	o.aiLatency, _ = meter.Float64Histogram(
		"ai.completion.duration",
		otelmetric.WithDescription("Text generation provider latency"),
		otelmetric.WithUnit("ms"),
	)
	return o
}

// Tracer is never nil.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("bizpilot")
	}
	return o.tracer
}

func (o *Observability) RecordIdeaSubmitted(ctx context.Context, category string) {
	if o != nil && o.ideaCounter != nil {
		o.ideaCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("category", category)))
	}
}

func (o *Observability) RecordPlanExported(ctx context.Context, format string) {
	if o != nil && o.exportCounter != nil {
		o.exportCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("format", format)))
	}
}

func (o *Observability) RecordAILatency(ctx context.Context, d time.Duration, provider string, ok bool) {
	if o != nil && o.aiLatency != nil {
		o.aiLatency.Record(ctx, float64(d.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("provider", provider),
			attribute.Bool("ok", ok),
		))
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
