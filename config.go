package reviewgate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/reviewgate/internal/expand"
	"github.com/viant/reviewgate/internal/logging"
	"github.com/viant/reviewgate/service/analysis/heuristic"
	"github.com/viant/reviewgate/service/analysis/remote"
	"github.com/viant/reviewgate/service/lock"
	"github.com/viant/reviewgate/service/lock/redis"
	"github.com/viant/reviewgate/service/messaging"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REVIEWGATE_"

const (
	ProviderHeuristic = "heuristic"
	ProviderRemote    = "remote"

	ModeInline = "inline"
	ModeAsync  = "async"

	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from YAML or JSON and then overridden from the environment.
type Config struct {
	Gate     GateConfig       `json:"gate" yaml:"gate"`
	Analysis AnalysisConfig   `json:"analysis" yaml:"analysis"`
	Queue    messaging.Config `json:"queue" yaml:"queue"`
	Store    StoreConfig      `json:"store" yaml:"store"`
	Lock     LockConfig       `json:"lock" yaml:"lock"`
	Notify   NotifyConfig     `json:"notify" yaml:"notify"`
	Log      LogConfig        `json:"log" yaml:"log"`
	Tracing  TracingConfig    `json:"tracing" yaml:"tracing"`
}

type GateConfig struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

type AnalysisConfig struct {
	// Provider is heuristic or remote
	Provider string `json:"provider" yaml:"provider"`
	// Mode is inline (analysis runs inside Submit) or async (dispatcher workers)
	Mode      string           `json:"mode" yaml:"mode"`
	Workers   int              `json:"workers" yaml:"workers"`
	Timeout   time.Duration    `json:"timeout" yaml:"timeout"`
	Heuristic heuristic.Config `json:"heuristic" yaml:"heuristic"`
	Remote    remote.Config    `json:"remote" yaml:"remote"`
}

type StoreConfig struct {
	// Driver is memory, sqlite or postgres
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

type LockConfig struct {
	Vendor lock.Vendor  `json:"vendor" yaml:"vendor"`
	Redis  redis.Config `json:"redis" yaml:"redis"`
}

type NotifyConfig struct {
	// Log writes every lifecycle event to the service logger
	Log bool `json:"log" yaml:"log"`
	// Events publishes lifecycle events on the "events" queue
	Events  bool          `json:"events" yaml:"events"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type TracingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Service    string `json:"service,omitempty" yaml:"service,omitempty"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// DefaultConfig returns an in-process configuration: memory store and lock,
// heuristic provider, async analysis on an in-memory queue.
func DefaultConfig() *Config {
	return &Config{
		Gate: GateConfig{Threshold: 0.70},
		Analysis: AnalysisConfig{
			Provider:  ProviderHeuristic,
			Mode:      ModeAsync,
			Workers:   4,
			Timeout:   30 * time.Second,
			Heuristic: heuristic.DefaultConfig(),
		},
		Queue:   messaging.DefaultConfig(),
		Store:   StoreConfig{Driver: StoreMemory},
		Lock:    LockConfig{Vendor: lock.VendorMemory, Redis: redis.DefaultConfig()},
		Notify:  NotifyConfig{Log: true, Timeout: 5 * time.Second},
		Log:     LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{Service: "reviewgate", Version: "dev"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if t := c.Gate.Threshold; math.IsNaN(t) || t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("gate.threshold must be within [0,1], got %v", t))
	}
	switch c.Analysis.Provider {
	case ProviderHeuristic:
	case ProviderRemote:
		if c.Analysis.Remote.URL == "" {
			errs = append(errs, errors.New("analysis.remote.url is required for the remote provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("analysis.provider must be %v or %v, got %q", ProviderHeuristic, ProviderRemote, c.Analysis.Provider))
	}
	switch c.Analysis.Mode {
	case ModeInline:
	case ModeAsync:
		if c.Analysis.Workers <= 0 {
			errs = append(errs, errors.New("analysis.workers must be > 0 in async mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("analysis.mode must be %v or %v, got %q", ModeInline, ModeAsync, c.Analysis.Mode))
	}
	if c.Analysis.Timeout < 0 {
		errs = append(errs, errors.New("analysis.timeout must not be negative"))
	}
	switch c.Queue.Vendor {
	case messaging.VendorMemory, "":
	case messaging.VendorFS:
		if c.Queue.BaseURL == "" {
			errs = append(errs, errors.New("queue.baseURL is required for the fs vendor"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported queue.vendor: %q", c.Queue.Vendor))
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required for the %v driver", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported store.driver: %q", c.Store.Driver))
	}
	switch c.Lock.Vendor {
	case lock.VendorMemory, "":
	case lock.VendorRedis:
		if c.Lock.Redis.Addr == "" {
			errs = append(errs, errors.New("lock.redis.addr is required for the redis vendor"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported lock.vendor: %q", c.Lock.Vendor))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML (or JSON) document from any afs URL on top of the
// defaults, expanding ${env.KEY} expressions, and applies REVIEWGATE_* overrides.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	ret := DefaultConfig()
	if URL != "" {
		data, err := afs.New().DownloadWithURL(ctx, URL, options...)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
		}
		data = []byte(expand.Env(string(data), nil))
		if err = yaml.Unmarshal(data, ret); err != nil {
			return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
		}
	}
	if err := ret.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// ApplyEnv overrides settings from REVIEWGATE_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ANALYSIS_PROVIDER":   &c.Analysis.Provider,
		"ANALYSIS_MODE":       &c.Analysis.Mode,
		"ANALYSIS_URL":        &c.Analysis.Remote.URL,
		"ANALYSIS_MODEL":      &c.Analysis.Remote.Model,
		"ANALYSIS_SECRET_URL": &c.Analysis.Remote.SecretURL,
		"ANALYSIS_SECRET_KEY": &c.Analysis.Remote.SecretKey,
		"STORE_DRIVER":        &c.Store.Driver,
		"STORE_DSN":           &c.Store.DSN,
		"QUEUE_BASE_URL":      &c.Queue.BaseURL,
		"REDIS_ADDR":          &c.Lock.Redis.Addr,
		"REDIS_PASSWORD":      &c.Lock.Redis.Password,
		"LOG_LEVEL":           &c.Log.Level,
		"LOG_FORMAT":          &c.Log.Format,
		"TRACING_OUTPUT_FILE": &c.Tracing.OutputFile,
	}
	for name, target := range strs {
		if value, ok := lookup(EnvPrefix + name); ok {
			*target = strings.TrimSpace(value)
		}
	}
	if value, ok := lookup(EnvPrefix + "QUEUE_VENDOR"); ok {
		c.Queue.Vendor = messaging.Vendor(strings.TrimSpace(value))
	}
	if value, ok := lookup(EnvPrefix + "LOCK_VENDOR"); ok {
		c.Lock.Vendor = lock.Vendor(strings.TrimSpace(value))
	}
	var errs []error
	if value, ok := lookup(EnvPrefix + "GATE_THRESHOLD"); ok {
		threshold, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%vGATE_THRESHOLD: %w", EnvPrefix, err))
		} else {
			c.Gate.Threshold = threshold
		}
	}
	if value, ok := lookup(EnvPrefix + "ANALYSIS_WORKERS"); ok {
		workers, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			errs = append(errs, fmt.Errorf("%vANALYSIS_WORKERS: %w", EnvPrefix, err))
		} else {
			c.Analysis.Workers = workers
		}
	}
	if value, ok := lookup(EnvPrefix + "ANALYSIS_TIMEOUT"); ok {
		timeout, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			errs = append(errs, fmt.Errorf("%vANALYSIS_TIMEOUT: %w", EnvPrefix, err))
		} else {
			c.Analysis.Timeout = timeout
		}
	}
	if value, ok := lookup(EnvPrefix + "TRACING_ENABLED"); ok {
		enabled, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			errs = append(errs, fmt.Errorf("%vTRACING_ENABLED: %w", EnvPrefix, err))
		} else {
			c.Tracing.Enabled = enabled
		}
	}
	return errors.Join(errs...)
}
