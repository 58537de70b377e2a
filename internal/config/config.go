package config

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/metrics"
	"github.com/vango-dev/kinetic/pkg/reconcile"
)

const (
	// BaseName is the configuration file name without extension.
	BaseName = "kinetic"

	// DefaultPort is the default dev server port.
	DefaultPort = 7070

	// DefaultHost is the default dev server host.
	DefaultHost = "localhost"

	// DefaultFrameInterval is the loop's frame cadence.
	DefaultFrameInterval = 16 * time.Millisecond

	// DefaultMaxFramesPerDrain bounds Drain against runaway re-scheduling.
	DefaultMaxFramesPerDrain = 1000

	// DefaultNamespace is the Prometheus namespace.
	DefaultNamespace = "kinetic"
)

// Extensions lists the recognized config file extensions in lookup order.
var Extensions = []string{".toml", ".yaml", ".yml", ".json"}

// Config is the complete kinetic configuration.
type Config struct {
	// Runtime configures the loop and reconciliation adapter.
	Runtime RuntimeConfig `json:"runtime" toml:"runtime" yaml:"runtime"`

	// Log configures the process logger.
	Log LogConfig `json:"log" toml:"log" yaml:"log"`

	// Metrics configures Prometheus collection.
	Metrics MetricsConfig `json:"metrics" toml:"metrics" yaml:"metrics"`

	// Dev configures the preview server.
	Dev DevConfig `json:"dev" toml:"dev" yaml:"dev"`

	path string
}

// RuntimeConfig holds loop and reconciliation settings.
type RuntimeConfig struct {
	// FrameInterval is the delay between frames while work is pending.
	FrameInterval Duration `json:"frameInterval" toml:"frame_interval" yaml:"frameInterval"`

	// PreserveAttrs is the allow-list of attributes marking preserved
	// regions. Empty means the adapter default.
	PreserveAttrs []string `json:"preserveAttrs,omitempty" toml:"preserve_attrs" yaml:"preserveAttrs,omitempty"`

	// MaxFramesPerDrain caps the frames one Drain call runs.
	MaxFramesPerDrain int `json:"maxFramesPerDrain" toml:"max_frames_per_drain" yaml:"maxFramesPerDrain"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `json:"level" toml:"level" yaml:"level"`

	// Format is text or json.
	Format string `json:"format" toml:"format" yaml:"format"`
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" toml:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace" toml:"namespace" yaml:"namespace"`
}

// DevConfig configures the preview server.
type DevConfig struct {
	Host string `json:"host" toml:"host" yaml:"host"`
	Port int    `json:"port" toml:"port" yaml:"port"`
}

// Duration is a time.Duration written as a Go duration string ("16ms") in
// every config format.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			FrameInterval:     Duration{DefaultFrameInterval},
			MaxFramesPerDrain: DefaultMaxFramesPerDrain,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Dev: DevConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
	}
}

// Load reads a configuration file. The format follows the extension:
// .toml, .yaml or .yml, and .json. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithOp("config.Load").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New(errors.CodeInvalidConfig).WithOp("config.Load").Wrap(err)
	}

	cfg := Default()
	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}
	cfg.path = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	ext := strings.ToLower(filepath.Ext(path))
	var err error
	switch ext {
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(data)) > 0 {
			err = yaml.Unmarshal(data, cfg)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	default:
		return errors.New(errors.CodeInvalidConfig).
			WithOp("config.Load").
			WithDetailf("Unsupported config extension %q", ext).
			WithSuggestion("Use one of " + strings.Join(Extensions, ", "))
	}
	if err != nil {
		return errors.New(errors.CodeInvalidConfig).
			WithOp("config.Load").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			Wrap(err)
	}
	return nil
}

// Find walks up from dir looking for kinetic.toml, kinetic.yaml,
// kinetic.yml, or kinetic.json and returns the first path found.
func Find(dir string) (string, error) {
	start, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for cur := start; ; {
		for _, ext := range Extensions {
			p := filepath.Join(cur, BaseName+ext)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, nil
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", errors.New(errors.CodeConfigNotFound).
				WithOp("config.Find").
				WithDetail("No " + BaseName + ".{toml,yaml,yml,json} in " + start + " or any parent directory")
		}
		cur = parent
	}
}

// Discover loads the config found by Find, or returns Default when there is
// none.
func Discover(dir string) (*Config, error) {
	path, err := Find(dir)
	if errors.HasCode(err, errors.CodeConfigNotFound) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Load(path)
}

func (c *Config) applyDefaults() {
	if c.Runtime.FrameInterval.Duration == 0 {
		c.Runtime.FrameInterval.Duration = DefaultFrameInterval
	}
	if c.Runtime.MaxFramesPerDrain == 0 {
		c.Runtime.MaxFramesPerDrain = DefaultMaxFramesPerDrain
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New(errors.CodeInvalidConfig).WithOp("config.Validate").WithDetail(detail)
	}
	if c.Runtime.FrameInterval.Duration < 0 {
		return invalid("runtime.frameInterval must not be negative")
	}
	if c.Runtime.MaxFramesPerDrain < 0 {
		return invalid("runtime.maxFramesPerDrain must not be negative")
	}
	for _, a := range c.Runtime.PreserveAttrs {
		if strings.TrimSpace(a) == "" || strings.ContainsAny(a, " \t\"'=<>") {
			return invalid("runtime.preserveAttrs contains an invalid attribute name: " + strconv.Quote(a))
		}
	}
	if _, err := c.Level(); err != nil {
		return invalid("log.level must be debug, info, warn, or error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json")
	}
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return invalid("dev.port must be between 0 and 65535")
	}
	return nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string { return c.path }

// Level parses Log.Level.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(c.Log.Level))
	return lvl, err
}

// Logger builds the process logger writing to stderr.
func (c *Config) Logger() *slog.Logger {
	return c.NewLogger(os.Stderr)
}

// NewLogger builds a logger writing to w with the configured level and
// format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoopOptions returns the loop options the runtime settings imply.
func (c *Config) LoopOptions(logger *slog.Logger) []loop.Option {
	opts := []loop.Option{
		loop.WithFrameInterval(c.Runtime.FrameInterval.Duration),
		loop.WithMaxFrames(c.Runtime.MaxFramesPerDrain),
	}
	if logger != nil {
		opts = append(opts, loop.WithLogger(logger))
	}
	return opts
}

// AdapterOptions returns the reconciliation adapter options.
func (c *Config) AdapterOptions(logger *slog.Logger) []reconcile.Option {
	var opts []reconcile.Option
	if len(c.Runtime.PreserveAttrs) > 0 {
		opts = append(opts, reconcile.WithPreserveAttrs(c.Runtime.PreserveAttrs...))
	}
	if logger != nil {
		opts = append(opts, reconcile.WithLogger(logger))
	}
	return opts
}

// InitMetrics initializes the collectors when metrics are enabled and
// reports whether it did.
func (c *Config) InitMetrics(extra ...metrics.Option) bool {
	if !c.Metrics.Enabled {
		return false
	}
	opts := append([]metrics.Option{metrics.WithNamespace(c.Metrics.Namespace)}, extra...)
	metrics.Init(opts...)
	return true
}

// DevAddress returns host:port for the preview server.
func (c *Config) DevAddress() string {
	return net.JoinHostPort(c.Dev.Host, strconv.Itoa(c.Dev.Port))
}

// DevURL returns the preview server URL.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}
