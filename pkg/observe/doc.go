// Package observe provides cellgraph observers for Prometheus metrics and
// OpenTelemetry tracing.
//
// # Prometheus
//
//	metrics := observe.NewMetrics(observe.WithRegistry(reg))
//	rt := cellgraph.New(cellgraph.WithObserver(metrics))
//
// # OpenTelemetry
//
// Each outermost transaction becomes one span named "cellgraph.tx <name>"
// carrying the transaction counters as attributes. Aborted transactions set
// an error status.
//
//	rt := cellgraph.New(cellgraph.WithObserver(cellgraph.Observers(
//	    observe.NewMetrics(),
//	    observe.NewTracing(observe.WithTracerName("todos")),
//	)))
//
// NewTracerProvider builds an SDK provider exporting to stdout or OTLP/HTTP
// for callers that do not install a global one.
package observe
