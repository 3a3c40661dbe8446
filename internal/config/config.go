package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone     = "UTC"
	defaultDatabaseURL  = "sqlite:///tragedywatch.db"
	defaultSchedule     = "@every 5m"
	defaultBackoffDelay = 60 * time.Second
	defaultEntryLimit   = 10
	defaultTopic        = "tragedies"
	defaultHTTPAddr     = ":8000"

	configPathEnv      = "TRAGEDYWATCH_CONFIG"
	databaseURLEnv     = "DATABASE_URL"
	newsAPIKeyEnv      = "NEWSAPI_KEY"
	firebaseCredsEnv   = "FIREBASE_CREDENTIALS"
	redisAddrEnv       = "REDIS_ADDR"
	redisPasswordEnv   = "REDIS_PASSWORD"
	httpAddrEnv        = "HTTP_ADDR"
	logLevelEnv        = "LOG_LEVEL"
	logFormatEnv       = "LOG_FORMAT"
	pollScheduleEnv    = "POLL_SCHEDULE"
	pollBackoffEnv     = "POLL_BACKOFF"
	dotenvDefaultPath  = ".env"
	scannerNewsAPI     = "newsapi"
	scannerFeed        = "feed"
	newsAPIEndpoint    = "https://newsapi.org/v2/top-headlines"
	newsAPITimeout     = 10 * time.Second
	newsAPIPageSize    = 20
	newsAPICountry     = "us"
	redisDefaultSetKey = "tragedywatch:seen"
)

// Validation errors.
var (
	ErrInvalidSchedule   = errors.New("scheduler.cronExpression is not a valid cron expression")
	ErrInvalidBackoff    = errors.New("scheduler.backoffDelay must be positive")
	ErrInvalidEntryLimit = errors.New("sources.entryLimit must be at least 1")
	ErrNoFallbackSources = errors.New("sources.fallback must list at least one feed")
	ErrMissingSiteURL    = errors.New("every source needs a url")
	ErrInvalidLogFormat  = errors.New("logging.format must be 'text' or 'json'")
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Providers     ProviderConfig     `yaml:"providers"`
	Sources       SourcesConfig      `yaml:"sources"`
	Notifications NotificationConfig `yaml:"notifications"`
	Cache         CacheConfig        `yaml:"cache"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	HTTP          HTTPConfig         `yaml:"http"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig carries the storage connection string. Postgres URLs select
// the pq driver, anything else is treated as a SQLite location.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// SchedulerConfig defines when the poll routine runs.
type SchedulerConfig struct {
	CronExpression  string         `yaml:"cronExpression"`
	Timezone        string         `yaml:"timezone"`
	BackoffDelay    time.Duration  `yaml:"backoffDelay"`
	SkipInitialPoll bool           `yaml:"skipInitialPoll"`
	location        *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// ProviderConfig groups credentials for keyed upstream APIs.
type ProviderConfig struct {
	NewsAPI NewsAPIConfig `yaml:"newsapi"`
}

// NewsAPIConfig configures the primary headline API.
type NewsAPIConfig struct {
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

// SourcesConfig lists the primary site and the fallback feeds in order.
type SourcesConfig struct {
	Primary    SiteConfig   `yaml:"primary"`
	Fallback   []SiteConfig `yaml:"fallback"`
	EntryLimit int          `yaml:"entryLimit"`
}

// SiteConfig describes a single upstream with its scanner strategy.
type SiteConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	URL     string            `yaml:"url"`
	Options map[string]string `yaml:"options"`
}

// NotificationConfig encapsulates the push gateway.
type NotificationConfig struct {
	Firebase FirebaseConfig `yaml:"firebase"`
}

// FirebaseConfig points at the service-account file and broadcast topic.
type FirebaseConfig struct {
	CredentialsPath string `yaml:"credentialsPath"`
	Topic           string `yaml:"topic"`
}

// CacheConfig configures the optional seen-URL cache.
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection details; an empty Addr disables the cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Key prefixes the seen set; the store DSN digest is appended at startup.
	Key string `yaml:"key"`
}

// ClassifierConfig overrides the trigger keywords.
type ClassifierConfig struct {
	Keywords []string `yaml:"keywords"`
}

// HTTPConfig configures the read API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig selects log level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads .env and YAML configuration (if present) and applies
// environment overrides.
func Load() Config {
	loadDotenv(dotenvDefaultPath)

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Validate checks settings that would otherwise fail deep inside the pipeline.
func (c Config) Validate() error {
	schedule, err := cron.ParseStandard(c.Scheduler.CronExpression)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, c.Scheduler.CronExpression, err)
	}
	// robfig/cron returns the zero time for expressions that match no date, e.g. Feb 30.
	if schedule.Next(time.Now().In(c.Scheduler.Location())).IsZero() {
		return fmt.Errorf("%w: %q never fires", ErrInvalidSchedule, c.Scheduler.CronExpression)
	}
	if c.Scheduler.BackoffDelay <= 0 {
		return ErrInvalidBackoff
	}
	if c.Sources.EntryLimit < 1 {
		return ErrInvalidEntryLimit
	}
	if len(c.Sources.Fallback) == 0 {
		return ErrNoFallbackSources
	}
	for _, site := range append([]SiteConfig{c.Sources.Primary}, c.Sources.Fallback...) {
		if strings.TrimSpace(site.URL) == "" {
			return fmt.Errorf("%w: %s", ErrMissingSiteURL, site.Name)
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return ErrInvalidLogFormat
	}
	return nil
}

func loadDotenv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: cannot load %s: %v", path, err)
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseURLEnv); v != "" {
		c.Database.URL = v
	}

	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.Providers.NewsAPI.APIKey = v
	}

	if v := os.Getenv(firebaseCredsEnv); v != "" {
		c.Notifications.Firebase.CredentialsPath = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv(redisPasswordEnv); v != "" {
		c.Cache.Redis.Password = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}

	if v := os.Getenv(pollScheduleEnv); v != "" {
		c.Scheduler.CronExpression = v
	}
	if v := os.Getenv(pollBackoffEnv); v != "" {
		if d, err := parseDelay(v); err != nil {
			log.Printf("config: invalid %s=%q: %v (keeping %s)", pollBackoffEnv, v, err, c.Scheduler.BackoffDelay)
		} else {
			c.Scheduler.BackoffDelay = d
		}
	}
}

// parseDelay accepts Go durations ("90s") or bare seconds ("90").
func parseDelay(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.URL != "" {
		base.Database = override.Database
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.BackoffDelay != 0 {
		base.Scheduler.BackoffDelay = override.Scheduler.BackoffDelay
	}
	if override.Scheduler.SkipInitialPoll {
		base.Scheduler.SkipInitialPoll = true
	}

	if override.Providers.NewsAPI.APIKey != "" {
		base.Providers.NewsAPI.APIKey = override.Providers.NewsAPI.APIKey
	}
	if override.Providers.NewsAPI.Timeout != 0 {
		base.Providers.NewsAPI.Timeout = override.Providers.NewsAPI.Timeout
	}

	if override.Sources.Primary.URL != "" {
		base.Sources.Primary = override.Sources.Primary
	}
	if len(override.Sources.Fallback) > 0 {
		base.Sources.Fallback = override.Sources.Fallback
	}
	if override.Sources.EntryLimit != 0 {
		base.Sources.EntryLimit = override.Sources.EntryLimit
	}

	if override.Notifications.Firebase.CredentialsPath != "" {
		base.Notifications.Firebase.CredentialsPath = override.Notifications.Firebase.CredentialsPath
	}
	if override.Notifications.Firebase.Topic != "" {
		base.Notifications.Firebase.Topic = override.Notifications.Firebase.Topic
	}

	if override.Cache.Redis.Addr != "" {
		base.Cache.Redis = override.Cache.Redis
		if base.Cache.Redis.Key == "" {
			base.Cache.Redis.Key = redisDefaultSetKey
		}
	}

	if len(override.Classifier.Keywords) > 0 {
		base.Classifier.Keywords = override.Classifier.Keywords
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{URL: defaultDatabaseURL},
		Scheduler: SchedulerConfig{
			CronExpression: defaultSchedule,
			Timezone:       defaultTimezone,
			BackoffDelay:   defaultBackoffDelay,
			location:       tz,
		},
		Providers: ProviderConfig{
			NewsAPI: NewsAPIConfig{Timeout: newsAPITimeout},
		},
		Sources: SourcesConfig{
			Primary: SiteConfig{
				Name:    "newsapi",
				Scanner: scannerNewsAPI,
				URL:     newsAPIEndpoint,
				Options: map[string]string{
					"country":  newsAPICountry,
					"pageSize": strconv.Itoa(newsAPIPageSize),
				},
			},
			Fallback: []SiteConfig{
				{Name: "bbc", Scanner: scannerFeed, URL: "http://feeds.bbci.co.uk/news/rss.xml"},
				{Name: "cnn", Scanner: scannerFeed, URL: "http://rss.cnn.com/rss/cnn_topstories.rss"},
			},
			EntryLimit: defaultEntryLimit,
		},
		Notifications: NotificationConfig{
			Firebase: FirebaseConfig{Topic: defaultTopic},
		},
		Cache: CacheConfig{
			Redis: RedisConfig{Key: redisDefaultSetKey},
		},
		HTTP:    HTTPConfig{Addr: defaultHTTPAddr},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
