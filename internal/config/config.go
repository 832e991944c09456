// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Indexer   IndexerConfig   `mapstructure:"indexer"`
	Sync      SyncConfig      `mapstructure:"sync"`
	UI        UIConfig        `mapstructure:"ui"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // set at runtime from flags
}

// IndexerConfig points the client at an Atlas indexer API.
type IndexerConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	EventsPath        string        `mapstructure:"events_path"`
	StatusPath        string        `mapstructure:"status_path"`
	Transport         string        `mapstructure:"transport"` // sse | websocket
	WebSocketURL      string        `mapstructure:"websocket_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// EventsURL is the push channel endpoint for the configured transport.
func (c IndexerConfig) EventsURL() string {
	if c.Transport == TransportWebSocket && c.WebSocketURL != "" {
		return c.WebSocketURL
	}
	base := strings.TrimRight(c.BaseURL, "/") + c.EventsPath
	if c.Transport == TransportWebSocket {
		switch {
		case strings.HasPrefix(base, "https://"):
			return "wss://" + strings.TrimPrefix(base, "https://")
		case strings.HasPrefix(base, "http://"):
			return "ws://" + strings.TrimPrefix(base, "http://")
		}
	}
	return base
}

const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// SyncConfig tunes the chain-height sync engine.
type SyncConfig struct {
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	EMAAlpha             float64       `mapstructure:"ema_alpha"`
	SampleCapacity       int           `mapstructure:"sample_capacity"`
	DisplayWindow        time.Duration `mapstructure:"display_window"`
	PacingWindow         time.Duration `mapstructure:"pacing_window"`
	DrainMinInterval     time.Duration `mapstructure:"drain_min_interval"`
	DrainMaxInterval     time.Duration `mapstructure:"drain_max_interval"`
	DrainDefaultInterval time.Duration `mapstructure:"drain_default_interval"`
	DrainIdleInterval    time.Duration `mapstructure:"drain_idle_interval"`
	OverflowThreshold    int           `mapstructure:"overflow_threshold"`
	OverflowKeep         int           `mapstructure:"overflow_keep"`
	CatchUpThreshold     int           `mapstructure:"catchup_threshold"`
	CatchUpFactor        float64       `mapstructure:"catchup_factor"`
	FrameInterval        time.Duration `mapstructure:"frame_interval"`
}

// UIConfig holds dashboard settings.
type UIConfig struct {
	PrefsPath    string `mapstructure:"prefs_path"`
	RecentBlocks int    `mapstructure:"recent_blocks"`
	LogFile      string `mapstructure:"log_file"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	TraceEndpoint  string `mapstructure:"trace_endpoint"`
	TraceHeaders   string `mapstructure:"trace_headers"` // k1=v1,k2=v2
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Headers parses TraceHeaders into a map, skipping malformed pairs.
func (c TelemetryConfig) Headers() map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(c.TraceHeaders, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		headers[k] = v
	}
	return headers
}

type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("app.name", "ATLAS_APP_NAME", "SERVICE_NAME")
	_ = v.BindEnv("app.environment", "ATLAS_ENVIRONMENT", "ENVIRONMENT")
	_ = v.BindEnv("app.log_level", "ATLAS_LOG_LEVEL", "LOG_LEVEL")

	_ = v.BindEnv("indexer.base_url", "ATLAS_INDEXER_BASE_URL", "ATLAS_API_URL")
	_ = v.BindEnv("indexer.transport", "ATLAS_INDEXER_TRANSPORT")
	_ = v.BindEnv("indexer.websocket_url", "ATLAS_INDEXER_WEBSOCKET_URL")

	_ = v.BindEnv("telemetry.enabled", "ATLAS_OTEL_ENABLED", "OTEL_ENABLED")
	_ = v.BindEnv("telemetry.service_name", "ATLAS_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	_ = v.BindEnv("telemetry.trace_endpoint", "ATLAS_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("telemetry.trace_headers", "ATLAS_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "atlas")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("indexer.events_path", "/events")
	v.SetDefault("indexer.status_path", "/status")
	v.SetDefault("indexer.transport", TransportSSE)
	v.SetDefault("indexer.request_timeout", "10s")
	v.SetDefault("indexer.requests_per_minute", 600)

	v.SetDefault("sync.reconnect_delay", "2000ms")
	v.SetDefault("sync.poll_interval", "2000ms")
	v.SetDefault("sync.ema_alpha", 0.25)
	v.SetDefault("sync.sample_capacity", 500)
	v.SetDefault("sync.display_window", "30s")
	v.SetDefault("sync.pacing_window", "10s")
	v.SetDefault("sync.drain_min_interval", "30ms")
	v.SetDefault("sync.drain_max_interval", "500ms")
	v.SetDefault("sync.drain_default_interval", "100ms")
	v.SetDefault("sync.drain_idle_interval", "30ms")
	v.SetDefault("sync.overflow_threshold", 50)
	v.SetDefault("sync.overflow_keep", 5)
	v.SetDefault("sync.catchup_threshold", 5)
	v.SetDefault("sync.catchup_factor", 0.7)
	v.SetDefault("sync.frame_interval", "16ms")

	v.SetDefault("ui.prefs_path", "atlas.db")
	v.SetDefault("ui.recent_blocks", 10)
	v.SetDefault("ui.log_file", "atlas.log")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "atlas")
	v.SetDefault("telemetry.trace_provider", "none")
	v.SetDefault("telemetry.prometheus_port", 9090)

	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Indexer.BaseURL == "" {
		return fmt.Errorf("indexer.base_url is required")
	}
	u, err := url.Parse(c.Indexer.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("indexer.base_url must be an http(s) URL: %q", c.Indexer.BaseURL)
	}
	if c.Indexer.Transport != TransportSSE && c.Indexer.Transport != TransportWebSocket {
		return fmt.Errorf("indexer.transport must be %q or %q, got %q", TransportSSE, TransportWebSocket, c.Indexer.Transport)
	}

	s := c.Sync
	if s.ReconnectDelay <= 0 || s.PollInterval <= 0 || s.FrameInterval <= 0 {
		return fmt.Errorf("sync intervals must be positive")
	}
	if s.EMAAlpha <= 0 || s.EMAAlpha > 1 {
		return fmt.Errorf("sync.ema_alpha must be in (0, 1], got %v", s.EMAAlpha)
	}
	if s.SampleCapacity < 2 {
		return fmt.Errorf("sync.sample_capacity must be at least 2")
	}
	if s.DisplayWindow < time.Second || s.PacingWindow < time.Second {
		return fmt.Errorf("sync rate windows must be at least 1s")
	}
	if s.DrainMinInterval <= 0 || s.DrainMaxInterval < s.DrainMinInterval {
		return fmt.Errorf("sync.drain_min_interval must be positive and not above drain_max_interval")
	}
	if s.OverflowKeep < 1 || s.OverflowThreshold <= s.OverflowKeep {
		return fmt.Errorf("sync.overflow_threshold (%d) must exceed sync.overflow_keep (%d) >= 1", s.OverflowThreshold, s.OverflowKeep)
	}
	if s.CatchUpFactor <= 0 || s.CatchUpFactor > 1 {
		return fmt.Errorf("sync.catchup_factor must be in (0, 1], got %v", s.CatchUpFactor)
	}
	return nil
}
