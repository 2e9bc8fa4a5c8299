package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8501 {
		t.Errorf("Server.Port = %d, want 8501", cfg.Server.Port)
	}
	if cfg.RateLimit.Backend != "memory" {
		t.Errorf("RateLimit.Backend = %q, want memory", cfg.RateLimit.Backend)
	}
	if cfg.Analytics.Enabled {
		t.Error("analytics should be off by default")
	}
	if cfg.Contact.RelayURL == "" {
		t.Error("Contact.RelayURL is empty")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9000
  shutdownTimeout: 3s
nlp:
  dataDir: /srv/lexicons
rateLimit:
  enabled: true
  backend: redis
  requestsPerMinute: 30
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEXTLAB_LOGGING_LEVEL", "debug")
	t.Setenv("TEXTLAB_REDIS_ADDR", "redis:6380")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout default lost: %v", cfg.Server.ReadTimeout)
	}
	if cfg.NLP.DataDir != "/srv/lexicons" {
		t.Errorf("NLP.DataDir = %q", cfg.NLP.DataDir)
	}
	if cfg.RateLimit.Backend != "redis" || cfg.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"bad backend", func(c *Config) { c.RateLimit.Backend = "memcached" }, true},
		{"disabled limiter ignores backend", func(c *Config) {
			c.RateLimit.Enabled = false
			c.RateLimit.Backend = "memcached"
		}, false},
		{"zero rpm", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, true},
		{"analytics without brokers", func(c *Config) {
			c.Analytics.Enabled = true
			c.Kafka.Brokers = nil
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
