// Package config manages the client's configuration surface (spec §6) using
// koanf/v2.
//
// Supports YAML files, environment variables, and compiled-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// TransportKind selects one of the four wire framings spec §4.6 supports.
type TransportKind string

// Recognized TransportKind values.
const (
	TransportAbridged     TransportKind = "abridged"
	TransportIntermediate TransportKind = "intermediate"
	TransportFull         TransportKind = "full"
	TransportObfuscated2  TransportKind = "obfuscated2"
)

// Config holds the complete client configuration (spec §6 "Configuration
// surface").
type Config struct {
	API       APIConfig       `koanf:"api"`
	DC        DCConfig        `koanf:"dc"`
	Transport TransportConfig `koanf:"transport"`
	Socks5    Socks5Config    `koanf:"socks5"`
	Retry     RetryConfig     `koanf:"retry"`
	Session   SessionConfig   `koanf:"session"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Log       LogConfig       `koanf:"log"`
}

// APIConfig holds the application credentials required by every connection
// (spec §6: "api_id, api_hash — Application credentials (required)").
type APIConfig struct {
	// ID is the numeric application ID issued by my.telegram.org.
	ID int32 `koanf:"id"`
	// Hash is the application hash issued alongside ID.
	Hash string `koanf:"hash"`
	// DeviceModel, SystemVersion, AppVersion and LangCode are sent as part of
	// initConnection (spec §4.9 "tags the connection with ... client
	// identification").
	DeviceModel   string `koanf:"device_model"`
	SystemVersion string `koanf:"system_version"`
	AppVersion    string `koanf:"app_version"`
	LangCode      string `koanf:"lang_code"`
}

// DCConfig controls the initial datacenter the client connects to.
type DCConfig struct {
	// Addr optionally overrides the compiled-in bootstrap address for the
	// home DC (spec §6 "dc_addr — Optional override for the initial DC
	// address").
	Addr string `koanf:"addr"`
	// ID selects which bootstrap DC Addr, if unset, is taken from.
	ID int32 `koanf:"id"`
	// AllowIPv6 controls whether IPv6 DC options from help.getConfig are
	// accepted (spec §6, §4.9).
	AllowIPv6 bool `koanf:"allow_ipv6"`
}

// TransportConfig selects the wire framing and, for Obfuscated2, its proxy
// secret.
type TransportConfig struct {
	Kind TransportKind `koanf:"kind"`
	// Secret is the optional 16-byte MTProxy secret mixed into the
	// Obfuscated2 keystream (spec §4.6). Hex-encoded.
	Secret string `koanf:"secret"`
}

// Socks5Config describes an optional SOCKS5 proxy the transport dials
// through (spec §1 "SOCKS5 proxy negotiation" is an external collaborator;
// this is the configuration surface it is selected through).
type Socks5Config struct {
	Enabled  bool   `koanf:"enabled"`
	Address  string `koanf:"address"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
}

// RetryConfig parameterizes the default RetryPolicy (spec §4.8).
type RetryConfig struct {
	// FloodWaitThreshold is the maximum FLOOD_WAIT_N seconds the default
	// policy will sleep through before giving up and surfacing the error.
	FloodWaitThreshold int `koanf:"flood_wait_threshold"`
	// IOBackoff is how long the default policy waits before retrying once
	// on an I/O error.
	IOBackoff string `koanf:"io_backoff"`
}

// SessionConfig selects and configures the persistence backend (spec §4.9
// "Session persistence", §6 "session_backend").
type SessionConfig struct {
	// Backend is one of "file", "memory" (a real SQL backend is pluggable
	// at the dcpool.SessionBackend interface but ships no concrete
	// implementation here, per spec §1's SQL-backend out-of-scope note).
	Backend string `koanf:"backend"`
	// Path is the file path used by the "file" backend.
	Path string `koanf:"path"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults. API.ID
// and API.Hash are left empty: they have no safe default and Validate
// rejects them.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			DeviceModel:   "Layer",
			SystemVersion: "Go",
			AppVersion:    "1.0",
			LangCode:      "en",
		},
		DC: DCConfig{
			ID:        2,
			AllowIPv6: false,
		},
		Transport: TransportConfig{
			Kind: TransportIntermediate,
		},
		Retry: RetryConfig{
			FloodWaitThreshold: 60,
			IOBackoff:          "1s",
		},
		Session: SessionConfig{
			Backend: "file",
			Path:    "layer.session",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for client configuration.
// Variables are named LAYER_<section>_<key>, e.g., LAYER_API_ID.
const envPrefix = "LAYER_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (LAYER_ prefix), and merges on top of DefaultConfig().
// Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	LAYER_API_ID          -> api.id
//	LAYER_API_HASH        -> api.hash
//	LAYER_DC_ADDR         -> dc.addr
//	LAYER_TRANSPORT_KIND  -> transport.kind
//	LAYER_LOG_LEVEL       -> log.level
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper transforms LAYER_API_ID -> api.id. Strips the LAYER_ prefix,
// lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"api.id":                   defaults.API.ID,
		"api.hash":                 defaults.API.Hash,
		"api.device_model":         defaults.API.DeviceModel,
		"api.system_version":       defaults.API.SystemVersion,
		"api.app_version":          defaults.API.AppVersion,
		"api.lang_code":            defaults.API.LangCode,
		"dc.addr":                  defaults.DC.Addr,
		"dc.id":                    defaults.DC.ID,
		"dc.allow_ipv6":            defaults.DC.AllowIPv6,
		"transport.kind":           string(defaults.Transport.Kind),
		"transport.secret":        defaults.Transport.Secret,
		"retry.flood_wait_threshold": defaults.Retry.FloodWaitThreshold,
		"retry.io_backoff":         defaults.Retry.IOBackoff,
		"session.backend":          defaults.Session.Backend,
		"session.path":             defaults.Session.Path,
		"metrics.addr":             defaults.Metrics.Addr,
		"metrics.path":             defaults.Metrics.Path,
		"log.level":                defaults.Log.Level,
		"log.format":               defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	ErrMissingAPIID       = errors.New("api.id must be set")
	ErrMissingAPIHash     = errors.New("api.hash must be set")
	ErrInvalidTransport   = errors.New("transport.kind must be one of abridged, intermediate, full, obfuscated2")
	ErrInvalidSessionBackend = errors.New("session.backend must be one of file, memory")
	ErrInvalidFloodWaitThreshold = errors.New("retry.flood_wait_threshold must be >= 0")
)

// ValidTransportKinds lists the recognized transport.kind strings.
var ValidTransportKinds = map[TransportKind]bool{
	TransportAbridged:     true,
	TransportIntermediate: true,
	TransportFull:         true,
	TransportObfuscated2:  true,
}

// validSessionBackends lists the recognized session.backend strings.
var validSessionBackends = map[string]bool{
	"file":   true,
	"memory": true,
}

// Validate checks the configuration for logical errors. Returns the first
// validation error encountered.
func Validate(cfg *Config) error {
	if cfg.API.ID == 0 {
		return ErrMissingAPIID
	}
	if cfg.API.Hash == "" {
		return ErrMissingAPIHash
	}
	if !ValidTransportKinds[cfg.Transport.Kind] {
		return ErrInvalidTransport
	}
	if !validSessionBackends[cfg.Session.Backend] {
		return ErrInvalidSessionBackend
	}
	if cfg.Retry.FloodWaitThreshold < 0 {
		return ErrInvalidFloodWaitThreshold
	}
	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
