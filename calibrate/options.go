package calibrate

import (
	"go.uber.org/zap"

	"github.com/cwbudde/algo-shaper/accel"
	"github.com/cwbudde/algo-shaper/psd"
	"github.com/cwbudde/algo-shaper/tune"
)

// Config bundles the per-stage settings of a calibration session.
type Config struct {
	Accel      accel.Options
	PSD        psd.Options
	Tune       tune.Config
	NoiseFloor float64
	Logger     *zap.Logger
	Cache      *Cache
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns sensible defaults. Logging is disabled and no
// cache is attached.
func DefaultConfig() Config {
	return Config{
		NoiseFloor: psd.DefaultNoiseFloor,
		Logger:     zap.NewNop(),
	}
}

// WithAccelOptions sets the log-ingestion options.
func WithAccelOptions(opts accel.Options) Option {
	return func(cfg *Config) {
		cfg.Accel = opts
	}
}

// WithPSDOptions sets the spectral-estimation options.
func WithPSDOptions(opts psd.Options) Option {
	return func(cfg *Config) {
		cfg.PSD = opts
	}
}

// WithTuneConfig sets the optimizer sweep parameters.
func WithTuneConfig(cfg tune.Config) Option {
	return func(c *Config) {
		c.Tune = cfg
	}
}

// WithNoiseFloor sets the peak-detection threshold as a multiple of the
// median band amplitude.
func WithNoiseFloor(floor float64) Option {
	return func(cfg *Config) {
		if floor > 0 {
			cfg.NoiseFloor = floor
		}
	}
}

// WithLogger attaches a logger for per-stage progress and per-axis
// failures.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *Config) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}

// WithCache attaches a response cache. The cache is caller-owned and may
// be shared between sessions.
func WithCache(cache *Cache) Option {
	return func(cfg *Config) {
		cfg.Cache = cache
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
