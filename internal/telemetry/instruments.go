package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Metric names.
const (
	MetricQueries             = "completion.queries"
	MetricProviderInvocations = "completion.provider_invocations"
	MetricTrims               = "completion.trims"
	MetricCacheMisses         = "completion.cache_misses"
	MetricSelections          = "completion.selections"
	MetricQueryDuration       = "completion.query.duration"
)

// Instruments records completion activity.
type Instruments struct {
	queries     metric.Int64Counter
	invocations metric.Int64Counter
	trims       metric.Int64Counter
	cacheMisses metric.Int64Counter
	selections  metric.Int64Counter
	duration    metric.Int64Histogram

	tracer trace.Tracer
}

// NewInstruments creates instruments on meter and tracer. Either may be nil,
// in which case that signal is dropped.
func NewInstruments(meter metric.Meter, tracer trace.Tracer) *Instruments {
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
	}
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}

	inst := &Instruments{tracer: tracer}
	inst.queries, _ = meter.Int64Counter(
		MetricQueries,
		metric.WithDescription("Number of completion queries"),
	)
	inst.invocations, _ = meter.Int64Counter(
		MetricProviderInvocations,
		metric.WithDescription("Number of completion provider invocations"),
	)
	inst.trims, _ = meter.Int64Counter(
		MetricTrims,
		metric.WithDescription("Number of completion results cut down to the entries limit"),
	)
	inst.cacheMisses, _ = meter.Int64Counter(
		MetricCacheMisses,
		metric.WithDescription("Number of handle lookups that missed the item cache"),
	)
	inst.selections, _ = meter.Int64Counter(
		MetricSelections,
		metric.WithDescription("Number of accepted completion items"),
	)
	inst.duration, _ = meter.Int64Histogram(
		MetricQueryDuration,
		metric.WithDescription("Duration of completion queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	return inst
}

// QueryHandle tracks one in-flight query.
type QueryHandle struct {
	inst  *Instruments
	ctx   context.Context
	span  trace.Span
	start time.Time
	attrs []attribute.KeyValue
}

// StartQuery opens a query span and returns the context carrying it.
func (i *Instruments) StartQuery(parent context.Context, uri, trigger string) (*QueryHandle, context.Context) {
	if i == nil {
		return nil, parent
	}
	h := &QueryHandle{
		inst:  i,
		start: time.Now(),
		attrs: []attribute.KeyValue{
			attribute.String("document.uri", uri),
			attribute.String("completion.trigger", trigger),
		},
	}
	h.ctx, h.span = i.tracer.Start(parent, "completion.query", trace.WithAttributes(h.attrs...))
	return h, h.ctx
}

// ProviderInvoked records a provider call.
func (h *QueryHandle) ProviderInvoked(providerID string) {
	if h == nil {
		return
	}
	h.inst.invocations.Add(h.ctx, 1, metric.WithAttributes(attribute.String("provider.id", providerID)))
	h.span.AddEvent("provider.invoked", trace.WithAttributes(attribute.String("provider.id", providerID)))
}

// End closes the query span and records the outcome.
func (h *QueryHandle) End(items int, incomplete, trimmed bool, err error) {
	if h == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		h.span.RecordError(err)
		h.span.SetStatus(codes.Error, err.Error())
	}
	// The document URI stays on the span only; it would explode metric cardinality.
	attrs := metric.WithAttributes(h.attrs[1], attribute.String("outcome", outcome))

	h.inst.queries.Add(h.ctx, 1, attrs)
	h.inst.duration.Record(h.ctx, time.Since(h.start).Milliseconds(), attrs)
	if trimmed {
		h.inst.trims.Add(h.ctx, 1)
	}

	h.span.SetAttributes(
		attribute.Int("completion.items", items),
		attribute.Bool("completion.incomplete", incomplete),
		attribute.Bool("completion.trimmed", trimmed),
	)
	h.span.End()
}

// StartResolve opens a resolve span. The returned func ends it.
func (i *Instruments) StartResolve(parent context.Context, providerID string) (context.Context, func(error)) {
	if i == nil {
		return parent, func(error) {}
	}
	ctx, span := i.tracer.Start(parent, "completion.resolve",
		trace.WithAttributes(attribute.String("provider.id", providerID)))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// CacheMiss records a handle that could not be resolved from the cache.
func (i *Instruments) CacheMiss(ctx context.Context, op string) {
	if i == nil {
		return
	}
	i.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

// Selection records an accepted completion item.
func (i *Instruments) Selection(ctx context.Context, providerID string) {
	if i == nil {
		return
	}
	i.selections.Add(ctx, 1, metric.WithAttributes(attribute.String("provider.id", providerID)))
}
