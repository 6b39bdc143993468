package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rmfast.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Threads != 0 {
		t.Errorf("expected threads 0 (auto), got %d", cfg.Threads)
	}
	if cfg.Retry.Attempts != 3 {
		t.Errorf("expected 3 retry attempts, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.BackoffMS != 50 {
		t.Errorf("expected 50ms backoff, got %d", cfg.Retry.BackoffMS)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected info log level, got %q", cfg.LogLevel)
	}
	if cfg.JournalPath != "" {
		t.Errorf("expected journal disabled by default, got %q", cfg.JournalPath)
	}
	if cfg.Metrics.Port != 0 {
		t.Errorf("expected metrics disabled by default, got port %d", cfg.Metrics.Port)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
threads: 8
protected:
  - /srv/data
  - /opt/keep/
retry:
  attempts: 5
  backoff_ms: 200
journal_path: /var/lib/rmfast/journal.db
metrics:
  port: 9091
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Threads != 8 {
		t.Errorf("threads: got %d, want 8", cfg.Threads)
	}
	if len(cfg.Protected) != 2 {
		t.Fatalf("protected: got %v", cfg.Protected)
	}
	// Paths are cleaned on load.
	if cfg.Protected[1] != "/opt/keep" {
		t.Errorf("protected[1]: got %q, want /opt/keep", cfg.Protected[1])
	}
	if cfg.Retry.Attempts != 5 || cfg.Retry.BackoffMS != 200 {
		t.Errorf("retry: got %+v", cfg.Retry)
	}
	if cfg.JournalPath != "/var/lib/rmfast/journal.db" {
		t.Errorf("journal_path: got %q", cfg.JournalPath)
	}
	if cfg.MetricsAddress() != ":9091" {
		t.Errorf("metrics address: got %q", cfg.MetricsAddress())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level: got %q", cfg.LogLevel)
	}
}

func TestLoadPartialConfigGetsDefaults(t *testing.T) {
	path := writeConfig(t, "threads: 4\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Threads != 4 {
		t.Errorf("threads: got %d, want 4", cfg.Threads)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.BackoffMS != 50 {
		t.Errorf("expected default retry policy, got %+v", cfg.Retry)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level, got %q", cfg.LogLevel)
	}
}

func TestLoadRejectsNegativeThreads(t *testing.T) {
	path := writeConfig(t, "threads: -1\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for negative threads")
	}
}

func TestLoadRejectsRelativeProtectedPath(t *testing.T) {
	path := writeConfig(t, "protected:\n  - relative/path\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for relative protected path")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "threads: [not a number\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestRetryPolicyConversion(t *testing.T) {
	cfg := Default()
	cfg.Retry = RetryCfg{Attempts: 4, BackoffMS: 125}

	policy := cfg.RetryPolicy()
	if policy.Attempts != 4 {
		t.Errorf("attempts: got %d, want 4", policy.Attempts)
	}
	if policy.Backoff != 125*time.Millisecond {
		t.Errorf("backoff: got %v, want 125ms", policy.Backoff)
	}
}
