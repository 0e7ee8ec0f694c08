package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/panel")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port, got %q", cfg.HTTPPort)
	}
	if len(cfg.PhoneSuffixes) != 1 || cfg.PhoneSuffixes[0] != "@s.whatsapp.net" {
		t.Fatalf("unexpected default suffixes %+v", cfg.PhoneSuffixes)
	}
	if cfg.DBTimeout() != 5*time.Second || cfg.IngestRateWindow() != time.Minute {
		t.Fatalf("unexpected durations %v %v", cfg.DBTimeout(), cfg.IngestRateWindow())
	}
}

func TestLoadConfig_SuffixList(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/panel")
	t.Setenv("PHONE_SUFFIXES", "@s.whatsapp.net,@c.us")
	t.Setenv("DB_TIMEOUT_SECONDS", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cfg.PhoneSuffixes) != 2 || cfg.PhoneSuffixes[1] != "@c.us" {
		t.Fatalf("unexpected suffixes %+v", cfg.PhoneSuffixes)
	}
	if cfg.DBTimeout() != 5*time.Second {
		t.Fatalf("expected fallback timeout, got %v", cfg.DBTimeout())
	}
}

func TestLoadConfig_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}
