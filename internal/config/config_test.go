package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8010" {
		t.Errorf("Port = %s, want 8010", cfg.Port)
	}
	if cfg.WhatsApp.BaseURL != "https://graph.facebook.com/v17.0" {
		t.Errorf("WhatsApp.BaseURL = %s", cfg.WhatsApp.BaseURL)
	}
	if cfg.WhatsApp.MaxRetries != 3 {
		t.Errorf("WhatsApp.MaxRetries = %d, want 3", cfg.WhatsApp.MaxRetries)
	}
	if cfg.WhatsApp.HealthInterval != 60*time.Second {
		t.Errorf("WhatsApp.HealthInterval = %s, want 1m", cfg.WhatsApp.HealthInterval)
	}
	if cfg.Automation.SendDelay != 2*time.Second {
		t.Errorf("Automation.SendDelay = %s, want 2s", cfg.Automation.SendDelay)
	}
	if cfg.S3.Enabled {
		t.Error("S3 should be disabled by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("WA_MAX_RETRIES", "5")
	t.Setenv("WA_RETRY_INTERVAL", "1")
	t.Setenv("AUTOMATION_SEND_DELAY", "0")
	t.Setenv("REDIS_PREFIX", "custom")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Port = %s, want 9000", cfg.Port)
	}
	if cfg.WhatsApp.MaxRetries != 5 {
		t.Errorf("WhatsApp.MaxRetries = %d, want 5", cfg.WhatsApp.MaxRetries)
	}
	if cfg.WhatsApp.RetryInterval != time.Second {
		t.Errorf("WhatsApp.RetryInterval = %s, want 1s", cfg.WhatsApp.RetryInterval)
	}
	if cfg.Automation.SendDelay != 0 {
		t.Errorf("Automation.SendDelay = %s, want 0", cfg.Automation.SendDelay)
	}
	if cfg.Redis.Prefix != "custom" {
		t.Errorf("Redis.Prefix = %s, want custom", cfg.Redis.Prefix)
	}
}
