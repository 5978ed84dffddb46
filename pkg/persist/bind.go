package persist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/cellgraph/pkg/cellgraph"
)

// DefaultSaveTimeout bounds one save issued by a Binding.
const DefaultSaveTimeout = 5 * time.Second

// ErrorHandler receives save failures. Failed saves never roll back the
// in-memory state; the next change saves again.
type ErrorHandler func(key string, err error)

type bindConfig struct {
	ctx         context.Context
	timeout     time.Duration
	logger      *slog.Logger
	onError     ErrorHandler
	saveInitial bool
}

// BindOption configures Bind.
type BindOption func(*bindConfig)

// WithContext sets the parent context of every save.
func WithContext(ctx context.Context) BindOption {
	return func(c *bindConfig) {
		c.ctx = ctx
	}
}

// WithSaveTimeout bounds each save. Default: DefaultSaveTimeout.
func WithSaveTimeout(d time.Duration) BindOption {
	return func(c *bindConfig) {
		c.timeout = d
	}
}

// WithLogger sets the logger used by the default error handler.
func WithLogger(logger *slog.Logger) BindOption {
	return func(c *bindConfig) {
		c.logger = logger
	}
}

// WithErrorHandler replaces the default handler, which logs at error level.
func WithErrorHandler(h ErrorHandler) BindOption {
	return func(c *bindConfig) {
		c.onError = h
	}
}

// SaveInitial makes the binding save on its first run too. By default the
// first run only records dependencies, since the state was just loaded.
func SaveInitial() BindOption {
	return func(c *bindConfig) {
		c.saveInitial = true
	}
}

// Binding is a subscription that saves a collection whenever its sequence
// or any element changes. Because it is a subscription it saves once per
// committed transaction, however many writes the transaction made.
type Binding struct {
	sub      cellgraph.Subscription
	key      string
	saves    int
	failures int
}

// Bind subscribes a saver for c under key. Saves run synchronously on the
// runtime goroutine during commit.
func Bind[T any](c *cellgraph.Collection[T], store Store, key string, opts ...BindOption) *Binding {
	cfg := &bindConfig{
		ctx:     context.Background(),
		timeout: DefaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = c.Runtime().Logger()
	}
	if cfg.onError == nil {
		logger := cfg.logger
		cfg.onError = func(key string, err error) {
			logger.Error("persist: save failed", "key", key, "error", err)
		}
	}

	b := &Binding{key: key}
	first := !cfg.saveInitial
	b.sub = cellgraph.Subscribe(c.Runtime(), func(fr *cellgraph.Frame) {
		data, err := EncodeVector(fr, c.Snapshot(fr))
		if first {
			first = false
			return
		}
		if err != nil {
			b.failures++
			cfg.onError(key, err)
			return
		}

		ctx, cancel := context.WithTimeout(cfg.ctx, cfg.timeout)
		defer cancel()
		if err := store.Save(ctx, key, data); err != nil {
			b.failures++
			cfg.onError(key, err)
			return
		}
		b.saves++
	}, cellgraph.Named("persist:"+key))
	return b
}

// Key returns the store key.
func (b *Binding) Key() string {
	return b.key
}

// Saves returns the number of successful saves.
func (b *Binding) Saves() int {
	return b.saves
}

// Failures returns the number of failed saves.
func (b *Binding) Failures() int {
	return b.failures
}

// Close stops saving.
func (b *Binding) Close() {
	b.sub.Dispose()
}

// LoadValues loads the values stored under key. Missing data yields nil.
// Corrupt data is logged at warn level and also yields nil, so callers start
// from an empty collection. A backend failure is returned: the stored data
// may be intact, and starting empty would overwrite it on the next save.
func LoadValues[T any](ctx context.Context, store Store, key string, logger *slog.Logger) ([]T, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("persist: load %q: %w", key, err)
	}
	if data == nil {
		return nil, nil
	}
	values, err := DecodeValues[T](data)
	if err != nil {
		logger.Warn("persist: stored data unreadable, starting empty", "key", key, "error", err)
		return nil, nil
	}
	return values, nil
}

// Restore replaces the contents of c with the values stored under key and
// returns how many were loaded. On a backend failure c is left unchanged.
func Restore[T any](ctx context.Context, c *cellgraph.Collection[T], store Store, key string, logger *slog.Logger) (int, error) {
	values, err := LoadValues[T](ctx, store, key, logger)
	if err != nil {
		return 0, err
	}
	c.Replace(values)
	return len(values), nil
}
