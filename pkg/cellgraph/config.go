package cellgraph

import (
	"log/slog"
)

// DefaultCommitBudget is the number of subscription runs one commit may
// perform before it is aborted with ErrBudgetExceeded.
const DefaultCommitBudget = 10000

// DebugConfig selects which runtime events are logged at debug level.
// Debug logging goes through the runtime logger, so the handler level still
// decides whether anything is printed.
type DebugConfig struct {
	// LogTransactions logs transaction start, commit and abort.
	LogTransactions bool

	// LogRecomputes logs every cache recompute with its duration.
	LogRecomputes bool

	// LogPropagation logs each invalidation walk.
	LogPropagation bool
}

// DebugAll enables every debug log.
var DebugAll = DebugConfig{
	LogTransactions: true,
	LogRecomputes:   true,
	LogPropagation:  true,
}

type runtimeConfig struct {
	logger   *slog.Logger
	observer Observer
	budget   int
	debug    DebugConfig
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		logger:   slog.Default(),
		observer: NopObserver{},
		budget:   DefaultCommitBudget,
	}
}

// Option configures a Runtime.
type Option func(*runtimeConfig)

// WithLogger sets the logger used for debug output and recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runtimeConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver installs an observer. Use Observers to install several.
func WithObserver(o Observer) Option {
	return func(c *runtimeConfig) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithCommitBudget caps subscription runs per commit. Zero or less disables
// the cap.
func WithCommitBudget(n int) Option {
	return func(c *runtimeConfig) {
		c.budget = n
	}
}

// WithDebug enables debug logging of runtime events.
func WithDebug(d DebugConfig) Option {
	return func(c *runtimeConfig) {
		c.debug = d
	}
}

type nodeConfig struct {
	name  string
	equal func(a, b any) bool
}

// NodeOption configures a Var, Cache or Subscription.
type NodeOption func(*nodeConfig)

// Named sets a diagnostic name, used in errors, logs and metrics.
func Named(name string) NodeOption {
	return func(c *nodeConfig) {
		c.name = name
	}
}

// WithEquals drops variable writes for which eq reports the new value equal
// to the current one. Without it every write invalidates dependents.
// It has no effect on caches or subscriptions.
func WithEquals[T any](eq func(a, b T) bool) NodeOption {
	return func(c *nodeConfig) {
		c.equal = func(a, b any) bool {
			return eq(as[T](a), as[T](b))
		}
	}
}

// SkipEqualWrites drops variable writes that compare equal using the
// default comparison (== for basic types, reflect.DeepEqual otherwise).
func SkipEqualWrites() NodeOption {
	return func(c *nodeConfig) {
		c.equal = defaultEquals
	}
}

func applyNodeOptions(opts []NodeOption) nodeConfig {
	var c nodeConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
