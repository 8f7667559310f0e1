package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("listen_addr=%q", cfg.ListenAddr)
	}
	if cfg.BackendURL != DefaultBackendURL {
		t.Errorf("backend_url=%q", cfg.BackendURL)
	}
	if cfg.DefaultContainerID != DefaultContainerID {
		t.Errorf("default_container_id=%q", cfg.DefaultContainerID)
	}
	if !cfg.ProxyEnabled {
		t.Errorf("proxy should be enabled by default")
	}
	if cfg.Kafka.Enabled() {
		t.Errorf("kafka should be disabled without brokers")
	}
	if cfg.Alerts.Enabled() {
		t.Errorf("alerts should be disabled without credentials")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	data := []byte(`
listen_addr: ":9999"
backend_url: "http://backend:8000/"
request_timeout: 3s
proxy_enabled: false
kafka:
  brokers: ["k1:9092"]
  events_topic: "ops.cycles"
alerts:
  recipients: ["ops@example.com"]
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("LISTEN_ADDR", ":7000")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddr != ":7000" {
		t.Errorf("env should override yaml, got %q", cfg.ListenAddr)
	}
	if cfg.BackendURL != "http://backend:8000" {
		t.Errorf("trailing slash not trimmed: %q", cfg.BackendURL)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("request_timeout=%v", cfg.RequestTimeout)
	}
	if cfg.ProxyEnabled {
		t.Errorf("proxy_enabled should come from yaml")
	}
	if want := []string{"a:9092", "b:9092"}; !reflect.DeepEqual(cfg.Kafka.Brokers, want) {
		t.Errorf("brokers=%v, want %v", cfg.Kafka.Brokers, want)
	}
	if cfg.Kafka.EventsTopic != "ops.cycles" {
		t.Errorf("events_topic=%q", cfg.Kafka.EventsTopic)
	}
	if cfg.Kafka.TelemetryTopic != DefaultTelemetryTopic {
		t.Errorf("telemetry_topic=%q", cfg.Kafka.TelemetryTopic)
	}
	if cfg.Alerts.Enabled() {
		t.Errorf("alerts need smtp credentials")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad backend scheme", mutate: func(c *Config) { c.BackendURL = "localhost:8000" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.RequestTimeout = -time.Second }, wantErr: true},
		{name: "unknown timezone", mutate: func(c *Config) { c.DisplayTimezone = "Mars/Olympus" }, wantErr: true},
		{name: "utc timezone", mutate: func(c *Config) { c.DisplayTimezone = "UTC" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a@x.io ,, b@x.io ")
	if want := []string{"a@x.io", "b@x.io"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := splitList(""); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestConfig_WriteTimeout(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.RequestTimeout = 5 * time.Second

	// Mount refresh plus three sequential cycle stages, with slack.
	if got, want := cfg.WriteTimeout(), 30*time.Second; got != want {
		t.Errorf("WriteTimeout()=%v, want %v", got, want)
	}
	if cfg.WriteTimeout() <= 4*cfg.RequestTimeout {
		t.Error("no slack beyond the backend calls")
	}
}
