package observe

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "cellgraph").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for transaction and recompute
	// durations. Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "cellgraph",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Label values used for unnamed transactions and caches, and for aborts
// that did not come from a graph error.
const (
	unnamedLabel = "unnamed"
	otherCode    = "other"
)

// Metrics is a cellgraph.Observer that records Prometheus metrics:
//   - cellgraph_transactions_total: transactions by name and outcome
//   - cellgraph_transaction_duration_seconds: transaction duration by name
//   - cellgraph_transaction_aborts_total: aborts by error code
//   - cellgraph_writes_total: accepted variable writes
//   - cellgraph_invalidations_total: caches marked dirty
//   - cellgraph_subscription_runs_total: subscription body runs
//   - cellgraph_recomputes_total: cache recomputes by cache name
//   - cellgraph_recompute_duration_seconds: recompute duration by cache name
//
// Names label the series, so keep transaction and cache names to a small
// fixed set.
type Metrics struct {
	txTotal           *prometheus.CounterVec
	txDuration        *prometheus.HistogramVec
	txAborts          *prometheus.CounterVec
	writes            prometheus.Counter
	invalidations     prometheus.Counter
	subscriptionRuns  prometheus.Counter
	recomputes        *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
}

// NewMetrics registers the metrics with the configured registry.
// Registering twice against one registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		txTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transactions_total",
			Help:        "Total number of outermost transactions by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"name", "outcome"}),

		txDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transaction_duration_seconds",
			Help:        "Transaction duration in seconds, commit included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"name"}),

		txAborts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transaction_aborts_total",
			Help:        "Total number of aborted transactions by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		writes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total number of accepted variable writes",
			ConstLabels: config.ConstLabels,
		}),

		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "invalidations_total",
			Help:        "Total number of caches marked dirty",
			ConstLabels: config.ConstLabels,
		}),

		subscriptionRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscription_runs_total",
			Help:        "Total number of subscription body runs",
			ConstLabels: config.ConstLabels,
		}),

		recomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recomputes_total",
			Help:        "Total number of cache recomputes",
			ConstLabels: config.ConstLabels,
		}, []string{"cache"}),

		recomputeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recompute_duration_seconds",
			Help:        "Cache recompute duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"cache"}),
	}
}

func label(name string) string {
	if name == "" {
		return unnamedLabel
	}
	return name
}

func (m *Metrics) record(s cellgraph.TxStats) {
	name := label(s.Name)
	m.txDuration.WithLabelValues(name).Observe(s.Duration().Seconds())
	m.writes.Add(float64(s.Writes))
	m.invalidations.Add(float64(s.Invalidated))
	m.subscriptionRuns.Add(float64(s.SubscriptionRuns))
}

// TxCommitted implements cellgraph.Observer.
func (m *Metrics) TxCommitted(s cellgraph.TxStats) {
	m.txTotal.WithLabelValues(label(s.Name), "committed").Inc()
	m.record(s)
}

// TxAborted implements cellgraph.Observer.
func (m *Metrics) TxAborted(s cellgraph.TxStats, err error) {
	m.txTotal.WithLabelValues(label(s.Name), "aborted").Inc()
	m.txAborts.WithLabelValues(errorCode(err)).Inc()
	m.record(s)
}

// CacheRecomputed implements cellgraph.Observer.
func (m *Metrics) CacheRecomputed(s cellgraph.RecomputeStats) {
	name := label(s.Name)
	m.recomputes.WithLabelValues(name).Inc()
	m.recomputeDuration.WithLabelValues(name).Observe(s.Duration.Seconds())
}

func errorCode(err error) string {
	var ge *cellgraph.GraphError
	if errors.As(err, &ge) {
		return string(ge.Code)
	}
	return otherCode
}
