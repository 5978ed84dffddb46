package observe

import (
	"context"

	"github.com/vango-dev/cellgraph/pkg/cellgraph"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "cellgraph"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "cellgraph").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// RecomputeSpans records a span for every cache recompute.
	// Disabled by default; recomputes can be very frequent.
	RecomputeSpans bool

	// Context is the parent of every span (default: context.Background()).
	Context context.Context

	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the provider instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.TracerProvider = tp
	}
}

// WithRecomputeSpans enables/disables spans for cache recomputes.
func WithRecomputeSpans(enabled bool) TracingOption {
	return func(c *TracingConfig) {
		c.RecomputeSpans = enabled
	}
}

// WithParentContext sets the parent context of every span.
func WithParentContext(ctx context.Context) TracingOption {
	return func(c *TracingConfig) {
		c.Context = ctx
	}
}

// Tracing is a cellgraph.Observer that turns each outermost transaction
// into a span. Events arrive after the fact, so spans are started and ended
// with the timestamps recorded in TxStats.
type Tracing struct {
	config TracingConfig
}

// NewTracing creates the observer.
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// given. Configure it in main() before creating the runtime:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	rt := cellgraph.New(cellgraph.WithObserver(observe.NewTracing()))
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	config.tracer = config.TracerProvider.Tracer(config.TracerName)
	return &Tracing{config: config}
}

func txSpanName(s cellgraph.TxStats) string {
	if s.Name == "" {
		return "cellgraph.tx"
	}
	return "cellgraph.tx " + s.Name
}

func (t *Tracing) txSpan(s cellgraph.TxStats) trace.Span {
	_, span := t.config.tracer.Start(t.config.Context, txSpanName(s),
		trace.WithTimestamp(s.Started),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("cellgraph.tx.name", s.Name),
			attribute.Int("cellgraph.tx.writes", s.Writes),
			attribute.Int("cellgraph.tx.changed", s.Changed),
			attribute.Int("cellgraph.tx.invalidated", s.Invalidated),
			attribute.Int("cellgraph.tx.scheduled", s.Scheduled),
			attribute.Int("cellgraph.tx.subscription_runs", s.SubscriptionRuns),
			attribute.Int("cellgraph.tx.recomputes", s.Recomputes),
		),
	)
	return span
}

// TxCommitted implements cellgraph.Observer.
func (t *Tracing) TxCommitted(s cellgraph.TxStats) {
	span := t.txSpan(s)
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(s.Finished))
}

// TxAborted implements cellgraph.Observer.
func (t *Tracing) TxAborted(s cellgraph.TxStats, err error) {
	span := t.txSpan(s)
	span.SetAttributes(attribute.String("cellgraph.error.code", errorCode(err)))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End(trace.WithTimestamp(s.Finished))
}

// CacheRecomputed implements cellgraph.Observer.
func (t *Tracing) CacheRecomputed(s cellgraph.RecomputeStats) {
	if !t.config.RecomputeSpans {
		return
	}
	_, span := t.config.tracer.Start(t.config.Context, "cellgraph.recompute "+label(s.Name),
		trace.WithAttributes(
			attribute.Int64("cellgraph.node", int64(s.Node)),
			attribute.Int("cellgraph.deps", s.Deps),
			attribute.Int64("cellgraph.duration_ns", s.Duration.Nanoseconds()),
		),
	)
	span.End()
}
