package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/kinetic/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Runtime.FrameInterval.Duration != DefaultFrameInterval {
		t.Errorf("FrameInterval = %v, want %v", cfg.Runtime.FrameInterval, DefaultFrameInterval)
	}
	if cfg.Runtime.MaxFramesPerDrain != DefaultMaxFramesPerDrain {
		t.Errorf("MaxFramesPerDrain = %d", cfg.Runtime.MaxFramesPerDrain)
	}
	if cfg.Dev.Port != DefaultPort || cfg.Dev.Host != DefaultHost {
		t.Errorf("Dev = %+v", cfg.Dev)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "kinetic.toml",
			content: `
[runtime]
frame_interval = "8ms"
preserve_attrs = ["data-keep"]
max_frames_per_drain = 50

[log]
level = "debug"
format = "json"

[metrics]
enabled = true

[dev]
port = 9000
`,
		},
		{
			name: "yaml",
			file: "kinetic.yaml",
			content: `
runtime:
  frameInterval: 8ms
  preserveAttrs: [data-keep]
  maxFramesPerDrain: 50
log:
  level: debug
  format: json
metrics:
  enabled: true
dev:
  port: 9000
`,
		},
		{
			name: "json",
			file: "kinetic.json",
			content: `{
  "runtime": {"frameInterval": "8ms", "preserveAttrs": ["data-keep"], "maxFramesPerDrain": 50},
  "log": {"level": "debug", "format": "json"},
  "metrics": {"enabled": true},
  "dev": {"port": 9000}
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Runtime.FrameInterval.Duration != 8*time.Millisecond {
				t.Errorf("FrameInterval = %v", cfg.Runtime.FrameInterval)
			}
			if !reflect.DeepEqual(cfg.Runtime.PreserveAttrs, []string{"data-keep"}) {
				t.Errorf("PreserveAttrs = %v", cfg.Runtime.PreserveAttrs)
			}
			if cfg.Runtime.MaxFramesPerDrain != 50 {
				t.Errorf("MaxFramesPerDrain = %d", cfg.Runtime.MaxFramesPerDrain)
			}
			if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
				t.Errorf("Log = %+v", cfg.Log)
			}
			if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != DefaultNamespace {
				t.Errorf("Metrics = %+v", cfg.Metrics)
			}
			if cfg.Dev.Port != 9000 || cfg.Dev.Host != DefaultHost {
				t.Errorf("Dev = %+v", cfg.Dev)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q", cfg.Path())
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "kinetic.toml"))
	if !errors.Is(err, errors.ErrConfigNotFound) {
		t.Errorf("missing file: err = %v", err)
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad toml", "a.toml", "[runtime\n"},
		{"bad json", "b.json", "{"},
		{"unknown json key", "c.json", `{"nope": 1}`},
		{"bad duration", "d.toml", "[runtime]\nframe_interval = \"soon\"\n"},
		{"bad level", "e.yaml", "log:\n  level: loud\n"},
		{"bad format", "f.yaml", "log:\n  format: xml\n"},
		{"bad port", "g.json", `{"dev": {"port": 70000}}`},
		{"bad extension", "h.ini", "x=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, dir, tt.file, tt.content))
			if !errors.HasCode(err, errors.CodeInvalidConfig) {
				t.Errorf("err = %v, want %s", err, errors.CodeInvalidConfig)
			}
		})
	}
}

func TestLoadEmptyYAMLUsesDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, t.TempDir(), "kinetic.yml", "\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dev.Port != DefaultPort {
		t.Errorf("Dev.Port = %d", cfg.Dev.Port)
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := Find(nested); !errors.HasCode(err, errors.CodeConfigNotFound) {
		t.Errorf("err = %v, want %s", err, errors.CodeConfigNotFound)
	}

	want := writeFile(t, root, "kinetic.yaml", "dev:\n  port: 8000\n")
	writeFile(t, root, "kinetic.json", `{}`)

	got, err := Find(nested)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Find = %q, want %q (yaml precedes json)", got, want)
	}

	cfg, err := Discover(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dev.Port != 8000 {
		t.Errorf("Dev.Port = %d", cfg.Dev.Port)
	}
}

func TestDiscoverWithoutFile(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path() != "" || cfg.Dev.Port != DefaultPort {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestValidatePreserveAttrs(t *testing.T) {
	cfg := Default()
	cfg.Runtime.PreserveAttrs = []string{"data-ok", "bad attr"}
	if !errors.HasCode(cfg.Validate(), errors.CodeInvalidConfig) {
		t.Error("attribute with a space should be rejected")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	if n := len(cfg.LoopOptions(nil)); n != 2 {
		t.Errorf("LoopOptions = %d options, want 2", n)
	}
	if n := len(cfg.AdapterOptions(nil)); n != 0 {
		t.Errorf("AdapterOptions = %d options, want 0", n)
	}
	cfg.Runtime.PreserveAttrs = []string{"data-keep"}
	if n := len(cfg.AdapterOptions(nil)); n != 1 {
		t.Errorf("AdapterOptions = %d options, want 1", n)
	}
	if cfg.InitMetrics() {
		t.Error("InitMetrics should do nothing when disabled")
	}
	if got := cfg.DevURL(); got != "http://localhost:7070" {
		t.Errorf("DevURL = %q", got)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatal(err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("d = %v", d.Duration)
	}
	text, _ := d.MarshalText()
	if string(text) != "1m30s" {
		t.Errorf("MarshalText = %q", text)
	}
}
