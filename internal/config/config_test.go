package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "LEDGER_STORE", "REDIS_ADDR", "REDIS_DB", "CURRENCY", "VIEW_CACHE_TTL", "LOG_LEVEL", "DEFAULT_SORT_CODE", "TOKEN_TTL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8085" || cfg.Store != StoreMemory || cfg.RedisAddr != "" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Currency != "GBP" || cfg.DefaultSortCode != "11-11-11" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.ViewCacheTTL != 5*time.Minute || cfg.LogLevel != slog.LevelInfo || cfg.TokenTTL != time.Hour {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER_STORE", "Postgres")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("VIEW_CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CURRENCY", "eur")

	cfg := Load()
	if cfg.Store != StorePostgres {
		t.Errorf("Store=%q", cfg.Store)
	}
	if cfg.RedisDB != 3 || cfg.ViewCacheTTL != 30*time.Second {
		t.Errorf("RedisDB=%d ttl=%v", cfg.RedisDB, cfg.ViewCacheTTL)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.Currency != "EUR" {
		t.Errorf("level=%v currency=%q", cfg.LogLevel, cfg.Currency)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	t.Setenv("VIEW_CACHE_TTL", "soon")
	t.Setenv("LOG_LEVEL", "loud")
	cfg := Load()
	if cfg.RedisDB != 0 || cfg.ViewCacheTTL != 5*time.Minute || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("fallbacks not applied: %+v", cfg)
	}
}
