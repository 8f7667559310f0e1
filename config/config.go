package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr     = ":8090"
	DefaultBackendURL     = "http://localhost:8000"
	DefaultContainerID    = "MSCU1234567"
	DefaultRequestTimeout = 15 * time.Second
	DefaultSessionTTL     = 2 * time.Hour
	DefaultTelemetryTopic = "container.telemetry"
	DefaultEventsTopic    = "dashboard.cycles"
	DefaultKafkaGroup     = "dashboard-service"
	DefaultAlertRisk      = "HIGH"
	DefaultSMTPPort       = 587
)

// Config holds the dashboard service settings.
type Config struct {
	ListenAddr         string        `yaml:"listen_addr"`
	BackendURL         string        `yaml:"backend_url"`
	DefaultContainerID string        `yaml:"default_container_id"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	ProxyEnabled       bool          `yaml:"proxy_enabled"`
	DisplayTimezone    string        `yaml:"display_timezone"`
	LogLevel           string        `yaml:"log_level"`
	DatabaseURL        string        `yaml:"database_url"`
	Kafka              KafkaConfig   `yaml:"kafka"`
	Alerts             AlertConfig   `yaml:"alerts"`
}

// KafkaConfig enables the live position feed and cycle events when Brokers is set.
type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`
	TelemetryTopic string   `yaml:"telemetry_topic"`
	EventsTopic    string   `yaml:"events_topic"`
	GroupID        string   `yaml:"group_id"`
}

// AlertConfig enables risk e-mails when SMTP credentials and recipients are set.
type AlertConfig struct {
	SMTPHost     string   `yaml:"smtp_host"`
	SMTPPort     int      `yaml:"smtp_port"`
	SMTPUser     string   `yaml:"smtp_user"`
	SMTPPassword string   `yaml:"smtp_password"`
	Recipients   []string `yaml:"recipients"`
	Risk         string   `yaml:"risk"`
}

// WriteTimeout bounds a whole HTTP response. The slowest one is a cookieless
// POST /fetch: the mount refresh (KPIs and shipments in parallel) followed by
// the three sequential stages of a tracking cycle. Cycle listeners run after
// the response and are not counted.
func (c Config) WriteTimeout() time.Duration {
	return 4*c.RequestTimeout + 10*time.Second
}

// Enabled reports whether the Kafka integration is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Enabled reports whether alert e-mails can be sent.
func (a AlertConfig) Enabled() bool {
	return a.SMTPUser != "" && a.SMTPPassword != "" && len(a.Recipients) > 0
}

// Default returns a config with every default applied.
func Default() Config {
	cfg := Config{ProxyEnabled: true}
	ApplyDefaults(&cfg)
	return cfg
}

// Load builds the config from defaults, an optional YAML file and the environment.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Config{ProxyEnabled: true}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	ApplyDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ListenAddr = getenv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.BackendURL = getenv("BACKEND_URL", cfg.BackendURL)
	cfg.DefaultContainerID = getenv("DEFAULT_CONTAINER_ID", cfg.DefaultContainerID)
	cfg.RequestTimeout = getenvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.SessionTTL = getenvDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.ProxyEnabled = getenvBool("PROXY_ENABLED", cfg.ProxyEnabled)
	cfg.DisplayTimezone = getenv("DISPLAY_TIMEZONE", cfg.DisplayTimezone)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	cfg.Kafka.TelemetryTopic = getenv("KAFKA_TELEMETRY_TOPIC", cfg.Kafka.TelemetryTopic)
	cfg.Kafka.EventsTopic = getenv("KAFKA_EVENTS_TOPIC", cfg.Kafka.EventsTopic)
	cfg.Kafka.GroupID = getenv("KAFKA_GROUP", cfg.Kafka.GroupID)

	cfg.Alerts.SMTPHost = getenv("SMTP_HOST", cfg.Alerts.SMTPHost)
	cfg.Alerts.SMTPPort = getenvInt("SMTP_PORT", cfg.Alerts.SMTPPort)
	cfg.Alerts.SMTPUser = getenv("SMTP_USER", cfg.Alerts.SMTPUser)
	cfg.Alerts.SMTPPassword = getenv("SMTP_PASSWORD", cfg.Alerts.SMTPPassword)
	if v := os.Getenv("ALERT_RECIPIENTS"); v != "" {
		cfg.Alerts.Recipients = splitList(v)
	}
	cfg.Alerts.Risk = getenv("ALERT_RISK", cfg.Alerts.Risk)
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = DefaultBackendURL
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if cfg.DefaultContainerID == "" {
		cfg.DefaultContainerID = DefaultContainerID
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.DisplayTimezone == "" {
		cfg.DisplayTimezone = "Local"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Kafka.TelemetryTopic == "" {
		cfg.Kafka.TelemetryTopic = DefaultTelemetryTopic
	}
	if cfg.Kafka.EventsTopic == "" {
		cfg.Kafka.EventsTopic = DefaultEventsTopic
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroup
	}
	if cfg.Alerts.SMTPHost == "" {
		cfg.Alerts.SMTPHost = "smtp.gmail.com"
	}
	if cfg.Alerts.SMTPPort == 0 {
		cfg.Alerts.SMTPPort = DefaultSMTPPort
	}
	if cfg.Alerts.Risk == "" {
		cfg.Alerts.Risk = DefaultAlertRisk
	}
}

// Validate checks the settings that have no usable default.
func Validate(cfg Config) error {
	if !strings.HasPrefix(cfg.BackendURL, "http://") && !strings.HasPrefix(cfg.BackendURL, "https://") {
		return fmt.Errorf("backend_url must be an http(s) URL, got %q", cfg.BackendURL)
	}
	if cfg.RequestTimeout < 0 {
		return errors.New("request_timeout must be > 0")
	}
	if cfg.SessionTTL < 0 {
		return errors.New("session_ttl must be > 0")
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("display_timezone: %w", err)
	}
	return nil
}

// Location resolves DisplayTimezone.
func (c Config) Location() (*time.Location, error) {
	if c.DisplayTimezone == "" || c.DisplayTimezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.DisplayTimezone)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
