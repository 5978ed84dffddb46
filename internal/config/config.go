package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
	"github.com/vango-dev/cellgraph/pkg/persist"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "cellgraph.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CELLGRAPH_"

	// DefaultPort is the default HTTP port of the serve command.
	DefaultPort = 8080

	// DefaultHost is the default HTTP host of the serve command.
	DefaultHost = "localhost"

	// DefaultStoreKey is the key the todo list is saved under.
	DefaultStoreKey = "todos-cellgraph"

	// DefaultSQLitePath is used when the sqlite driver has no path.
	DefaultSQLitePath = "todos.db"

	// DefaultLogLevel and DefaultLogFormat configure internal/logging.
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// ErrNotFound is returned by Load when no config file exists.
var ErrNotFound = errors.New("config: no " + ConfigFileName + " found")

// Config represents the complete cellgraph.json configuration. Every field
// can be overridden by an environment variable named EnvPrefix plus the
// field's env tag path, e.g. CELLGRAPH_STORE_DRIVER.
type Config struct {
	// Store selects the persistence backend.
	Store StoreConfig `json:"store,omitempty" envPrefix:"STORE_"`

	// Server configures the serve command.
	Server ServerConfig `json:"server,omitempty" envPrefix:"SERVER_"`

	// Log configures logging.
	Log LogConfig `json:"log,omitempty" envPrefix:"LOG_"`

	// Runtime configures the graph runtime.
	Runtime RuntimeConfig `json:"runtime,omitempty" envPrefix:"RUNTIME_"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// StoreConfig selects and configures a persist.Store.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres, s3 (default: sqlite).
	Driver string `json:"driver,omitempty" env:"DRIVER"`

	// Key is the key the todo list is saved under.
	Key string `json:"key,omitempty" env:"KEY"`

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `json:"sqlitePath,omitempty" env:"SQLITE_PATH"`

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string `json:"postgresDsn,omitempty" env:"POSTGRES_DSN"`

	// S3 configures the s3 driver.
	S3 S3Config `json:"s3,omitempty" envPrefix:"S3_"`
}

// S3Config configures the s3 driver.
type S3Config struct {
	Bucket    string `json:"bucket,omitempty" env:"BUCKET"`
	Region    string `json:"region,omitempty" env:"REGION"`
	Endpoint  string `json:"endpoint,omitempty" env:"ENDPOINT"`
	PathStyle bool   `json:"pathStyle,omitempty" env:"PATH_STYLE"`
	Prefix    string `json:"prefix,omitempty" env:"PREFIX"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" env:"HOST"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" env:"PORT"`

	// Metrics exposes /metrics.
	Metrics bool `json:"metrics,omitempty" env:"METRICS"`

	// QueueSize is the update queue capacity of the runtime loop.
	QueueSize int `json:"queueSize,omitempty" env:"QUEUE_SIZE"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" env:"LEVEL"`

	// Format is text or json.
	Format string `json:"format,omitempty" env:"FORMAT"`
}

// RuntimeConfig contains graph runtime settings.
type RuntimeConfig struct {
	// CommitBudget caps subscription runs per commit.
	CommitBudget int `json:"commitBudget,omitempty" env:"COMMIT_BUDGET"`

	// Debug logs transactions, recomputes and propagation.
	Debug bool `json:"debug,omitempty" env:"DEBUG"`

	// TraceExporter records an OpenTelemetry span per transaction and
	// sends it to stdout or otlp. Empty disables tracing.
	TraceExporter string `json:"traceExporter,omitempty" env:"TRACE_EXPORTER"`

	// TraceEndpoint is the OTLP/HTTP endpoint URL for the otlp exporter.
	TraceEndpoint string `json:"traceEndpoint,omitempty" env:"TRACE_ENDPOINT"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:     persist.DriverSQLite,
			Key:        DefaultStoreKey,
			SQLitePath: DefaultSQLitePath,
		},
		Server: ServerConfig{
			Host:      DefaultHost,
			Port:      DefaultPort,
			Metrics:   true,
			QueueSize: cellgraph.DefaultLoopQueueSize,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Runtime: RuntimeConfig{
			CommitBudget: cellgraph.DefaultCommitBudget,
		},
	}
}

// Load reads cellgraph.json from dir and applies environment overrides.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from path and applies environment overrides.
// A missing file is ErrNotFound.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNotFound, filepath.Dir(path))
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.configPath = path

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadOrDefault is LoadFile, except that a missing file yields the defaults
// with environment overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	cfg = New()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv overlays CELLGRAPH_* environment variables. Unset variables
// leave fields untouched.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("config: no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = persist.DriverSQLite
	}
	if c.Store.Key == "" {
		c.Store.Key = DefaultStoreKey
	}
	if c.Store.Driver == persist.DriverSQLite && c.Store.SQLitePath == "" {
		c.Store.SQLitePath = DefaultSQLitePath
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.QueueSize == 0 {
		c.Server.QueueSize = cellgraph.DefaultLoopQueueSize
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Runtime.CommitBudget == 0 {
		c.Runtime.CommitBudget = cellgraph.DefaultCommitBudget
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case persist.DriverMemory, persist.DriverSQLite:
	case persist.DriverPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgresDsn is required for the postgres driver"))
		}
	case persist.DriverS3:
		if c.Store.S3.Bucket == "" {
			errs = append(errs, errors.New("store.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of memory, sqlite, postgres, s3", c.Store.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("server.port must be between 0 and 65535"))
	}
	if c.Server.QueueSize < 0 {
		errs = append(errs, errors.New("server.queueSize must not be negative"))
	}
	if c.Runtime.CommitBudget < 0 {
		errs = append(errs, errors.New("runtime.commitBudget must not be negative"))
	}
	switch c.Runtime.TraceExporter {
	case "", "stdout":
	case "otlp":
		if c.Runtime.TraceEndpoint == "" {
			errs = append(errs, errors.New("runtime.traceEndpoint is required for the otlp exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("runtime.traceExporter %q is not stdout or otlp", c.Runtime.TraceExporter))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ServerAddress returns the listen address of the serve command.
func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// PersistConfig converts the store section for persist.Open.
func (c *Config) PersistConfig() persist.Config {
	return persist.Config{
		Driver:      c.Store.Driver,
		SQLitePath:  c.Store.SQLitePath,
		PostgresDSN: c.Store.PostgresDSN,
		S3: persist.S3Config{
			Bucket:    c.Store.S3.Bucket,
			Region:    c.Store.S3.Region,
			Endpoint:  c.Store.S3.Endpoint,
			PathStyle: c.Store.S3.PathStyle,
			Prefix:    c.Store.S3.Prefix,
		},
	}
}

// RuntimeOptions converts the runtime section into cellgraph options.
func (c *Config) RuntimeOptions() []cellgraph.Option {
	opts := []cellgraph.Option{cellgraph.WithCommitBudget(c.Runtime.CommitBudget)}
	if c.Runtime.Debug {
		opts = append(opts, cellgraph.WithDebug(cellgraph.DebugAll))
	}
	return opts
}
