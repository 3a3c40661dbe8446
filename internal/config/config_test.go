package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, databaseURLEnv, newsAPIKeyEnv, firebaseCredsEnv,
		redisAddrEnv, redisPasswordEnv, httpAddrEnv, logLevelEnv,
		logFormatEnv, pollScheduleEnv, pollBackoffEnv,
	} {
		t.Setenv(key, "")
	}
}

const fileConfigYAML = `
database:
  url: "postgres://watch:secret@db:5432/tragedies?sslmode=disable"
scheduler:
  cronExpression: "@every 2m"
  backoffDelay: 30s
  skipInitialPoll: true
sources:
  entryLimit: 5
  fallback:
    - name: reuters
      scanner: feed
      url: "https://example.com/reuters.xml"
notifications:
  firebase:
    topic: "alerts"
classifier:
  keywords: ["wildfire"]
logging:
  level: debug
  format: json
`

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Database.URL != defaultDatabaseURL {
		t.Fatalf("unexpected database url: %s", cfg.Database.URL)
	}
	if cfg.Scheduler.CronExpression != "@every 5m" {
		t.Fatalf("unexpected schedule: %s", cfg.Scheduler.CronExpression)
	}
	if cfg.Scheduler.BackoffDelay != 60*time.Second {
		t.Fatalf("unexpected backoff: %s", cfg.Scheduler.BackoffDelay)
	}
	if cfg.Sources.EntryLimit != 10 {
		t.Fatalf("unexpected entry limit: %d", cfg.Sources.EntryLimit)
	}
	if len(cfg.Sources.Fallback) < 2 {
		t.Fatalf("expected at least two fallback feeds, got %d", len(cfg.Sources.Fallback))
	}
	if cfg.Notifications.Firebase.Topic != "tragedies" {
		t.Fatalf("unexpected topic: %s", cfg.Notifications.Firebase.Topic)
	}
	if cfg.Providers.NewsAPI.Timeout != 10*time.Second {
		t.Fatalf("unexpected newsapi timeout: %s", cfg.Providers.NewsAPI.Timeout)
	}
	if cfg.Scheduler.Location().String() != "UTC" {
		t.Fatalf("unexpected location: %s", cfg.Scheduler.Location())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, createTempConfigFile(t, fileConfigYAML))
	t.Setenv(newsAPIKeyEnv, "news-key")
	t.Setenv(firebaseCredsEnv, "/secrets/firebase.json")
	t.Setenv(pollBackoffEnv, "45")
	t.Setenv(redisAddrEnv, "localhost:6379")

	cfg := Load()

	if cfg.Database.URL != "postgres://watch:secret@db:5432/tragedies?sslmode=disable" {
		t.Fatalf("file database url not applied: %s", cfg.Database.URL)
	}
	if cfg.Scheduler.CronExpression != "@every 2m" || !cfg.Scheduler.SkipInitialPoll {
		t.Fatalf("file scheduler not applied: %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.BackoffDelay != 45*time.Second {
		t.Fatalf("env backoff should win over file, got %s", cfg.Scheduler.BackoffDelay)
	}
	if cfg.Sources.EntryLimit != 5 {
		t.Fatalf("unexpected entry limit: %d", cfg.Sources.EntryLimit)
	}
	if cfg.Sources.Primary.Scanner != "newsapi" {
		t.Fatalf("primary should keep its default, got %+v", cfg.Sources.Primary)
	}
	if cfg.Providers.NewsAPI.APIKey != "news-key" {
		t.Fatalf("env api key not applied")
	}
	if cfg.Notifications.Firebase.CredentialsPath != "/secrets/firebase.json" || cfg.Notifications.Firebase.Topic != "alerts" {
		t.Fatalf("unexpected firebase config: %+v", cfg.Notifications.Firebase)
	}
	if cfg.Cache.Redis.Addr != "localhost:6379" || cfg.Cache.Redis.Key != redisDefaultSetKey {
		t.Fatalf("unexpected redis config: %+v", cfg.Cache.Redis)
	}
	if diff := cmp.Diff([]string{"wildfire"}, cfg.Classifier.Keywords); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if cfg.Database.URL != defaultDatabaseURL {
		t.Fatalf("expected defaults, got %s", cfg.Database.URL)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"bad schedule", func(c *Config) { c.Scheduler.CronExpression = "every now and then" }, ErrInvalidSchedule},
		{"schedule never fires", func(c *Config) { c.Scheduler.CronExpression = "0 0 30 2 *" }, ErrInvalidSchedule},
		{"zero backoff", func(c *Config) { c.Scheduler.BackoffDelay = 0 }, ErrInvalidBackoff},
		{"zero entry limit", func(c *Config) { c.Sources.EntryLimit = 0 }, ErrInvalidEntryLimit},
		{"no fallback", func(c *Config) { c.Sources.Fallback = nil }, ErrNoFallbackSources},
		{"missing url", func(c *Config) { c.Sources.Fallback[0].URL = " " }, ErrMissingSiteURL},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}
