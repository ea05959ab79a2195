package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ENRICH_SOURCE", "")
	t.Setenv("OUTCOME_TOPIC", "")
	t.Setenv("MAX_RETRIES", "")

	cfg := fromEnv()
	if cfg.EnrichSource != EnrichRemote {
		t.Errorf("EnrichSource = %q; want %q", cfg.EnrichSource, EnrichRemote)
	}
	if cfg.OutcomeTopic != "listing.outcomes" {
		t.Errorf("OutcomeTopic = %q", cfg.OutcomeTopic)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d; want 3", cfg.MaxRetries)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ENRICH_SOURCE", "Browser")
	t.Setenv("MAX_CONCURRENCY", "7")
	t.Setenv("REMOTE_TIMEOUT", "45")
	t.Setenv("EXISTING_CACHE_TTL", "90m")

	cfg := fromEnv()
	if cfg.EnrichSource != EnrichBrowser {
		t.Errorf("EnrichSource = %q; want %q", cfg.EnrichSource, EnrichBrowser)
	}
	if cfg.MaxConcurrency != 7 {
		t.Errorf("MaxConcurrency = %d; want 7", cfg.MaxConcurrency)
	}
	if cfg.RemoteTimeout != 45*time.Second {
		t.Errorf("RemoteTimeout = %v; want 45s", cfg.RemoteTimeout)
	}
	if cfg.ExistingCacheTTL != 90*time.Minute {
		t.Errorf("ExistingCacheTTL = %v; want 90m", cfg.ExistingCacheTTL)
	}
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("LISTER_TEST_INT", "abc")
	t.Setenv("LISTER_TEST_DUR", "soon")

	if got := getEnvInt("LISTER_TEST_INT", 4); got != 4 {
		t.Errorf("getEnvInt(%q) = %d; want 4", "abc", got)
	}
	if got := getEnvDuration("LISTER_TEST_DUR", time.Second); got != time.Second {
		t.Errorf("getEnvDuration(%q) = %v; want 1s", "soon", got)
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{PostgresHost: "db", PostgresPort: "5433", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "d", PostgresSSLMode: "disable"}
	want := "host=db port=5433 user=u password=p dbname=d sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q; want %q", got, want)
	}
}
