package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ankit-chaubey/layer/internal/config"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.Transport.Kind != config.TransportIntermediate {
		t.Errorf("Transport.Kind = %q, want %q", cfg.Transport.Kind, config.TransportIntermediate)
	}
	if cfg.DC.ID != 2 {
		t.Errorf("DC.ID = %d, want 2", cfg.DC.ID)
	}
	if cfg.Retry.FloodWaitThreshold != 60 {
		t.Errorf("Retry.FloodWaitThreshold = %d, want 60", cfg.Retry.FloodWaitThreshold)
	}
	if cfg.Session.Backend != "file" {
		t.Errorf("Session.Backend = %q, want %q", cfg.Session.Backend, "file")
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9100")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}

	// Defaults are missing required API credentials; Validate must reject
	// them until the caller supplies api.id/api.hash.
	if err := config.Validate(cfg); !errors.Is(err, config.ErrMissingAPIID) {
		t.Errorf("Validate(DefaultConfig()) = %v, want ErrMissingAPIID", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
api:
  id: 12345
  hash: "deadbeef"
dc:
  addr: "1.2.3.4:443"
transport:
  kind: "full"
log:
  level: "debug"
  format: "text"
`
	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.API.ID != 12345 {
		t.Errorf("API.ID = %d, want 12345", cfg.API.ID)
	}
	if cfg.API.Hash != "deadbeef" {
		t.Errorf("API.Hash = %q, want %q", cfg.API.Hash, "deadbeef")
	}
	if cfg.DC.Addr != "1.2.3.4:443" {
		t.Errorf("DC.Addr = %q, want %q", cfg.DC.Addr, "1.2.3.4:443")
	}
	if cfg.Transport.Kind != config.TransportFull {
		t.Errorf("Transport.Kind = %q, want %q", cfg.Transport.Kind, config.TransportFull)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	yamlContent := `
api:
  id: 999
  hash: "abc"
log:
  level: "warn"
`
	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}

	// Defaults preserved for everything not overridden.
	if cfg.Transport.Kind != config.TransportIntermediate {
		t.Errorf("Transport.Kind = %q, want default %q", cfg.Transport.Kind, config.TransportIntermediate)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want default %q", cfg.Metrics.Addr, ":9100")
	}
	if cfg.Retry.FloodWaitThreshold != 60 {
		t.Errorf("Retry.FloodWaitThreshold = %d, want default 60", cfg.Retry.FloodWaitThreshold)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	base := func() *config.Config {
		cfg := config.DefaultConfig()
		cfg.API.ID = 12345
		cfg.API.Hash = "deadbeef"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name:    "missing api id",
			modify:  func(cfg *config.Config) { cfg.API.ID = 0 },
			wantErr: config.ErrMissingAPIID,
		},
		{
			name:    "missing api hash",
			modify:  func(cfg *config.Config) { cfg.API.Hash = "" },
			wantErr: config.ErrMissingAPIHash,
		},
		{
			name:    "invalid transport kind",
			modify:  func(cfg *config.Config) { cfg.Transport.Kind = "carrier-pigeon" },
			wantErr: config.ErrInvalidTransport,
		},
		{
			name:    "invalid session backend",
			modify:  func(cfg *config.Config) { cfg.Session.Backend = "redis" },
			wantErr: config.ErrInvalidSessionBackend,
		},
		{
			name:    "negative flood wait threshold",
			modify:  func(cfg *config.Config) { cfg.Retry.FloodWaitThreshold = -1 },
			wantErr: config.ErrInvalidFloodWaitThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()
		if err := config.Validate(base()); err != nil {
			t.Errorf("Validate(base()) = %v, want nil", err)
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "Error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/config.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}
