// Package config loads the server configuration from an optional YAML file,
// a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServerConfig is the HTTP server section.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	DataDir         string   `yaml:"data_dir"`
	StaticDir       string   `yaml:"static_dir"`
	Environment     string   `yaml:"environment"`
	LogLevel        string   `yaml:"log_level"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	SessionIdle     Duration `yaml:"session_idle"`
}

// CacheConfig holds the TTL of each cached resource.
type CacheConfig struct {
	CatalogTTL  Duration `yaml:"catalog_ttl"`
	CalendarTTL Duration `yaml:"calendar_ttl"`
	APITTL      Duration `yaml:"api_ttl"`
}

// FetchConfig tunes outbound requests.
type FetchConfig struct {
	ICalTimeout    Duration `yaml:"ical_timeout"`
	CatalogTimeout Duration `yaml:"catalog_timeout"`
	APITimeout     Duration `yaml:"api_timeout"`
	BatchSize      int      `yaml:"batch_size"`
	UserAgent      string   `yaml:"user_agent"`
}

// ScheduleConfig configures background jobs.
type ScheduleConfig struct {
	RefreshInterval Duration `yaml:"refresh_interval"`
	// DailyReportCron uses six fields, seconds first.
	DailyReportCron string `yaml:"daily_report_cron"`
}

// LocaleConfig controls formatting and the local calendar day.
type LocaleConfig struct {
	Language       string `yaml:"language"`
	Timezone       string `yaml:"timezone"`
	CurrencySymbol string `yaml:"currency_symbol"`
}

// WooCommerceConfig holds catalog credentials. Loaded from environment.
type WooCommerceConfig struct {
	URL            string
	ConsumerKey    string
	ConsumerSecret string
}

// TravelSuitesConfig holds bookings API settings. Loaded from environment.
type TravelSuitesConfig struct {
	URL    string
	APIKey string
}

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Locale   LocaleConfig   `yaml:"locale"`

	WooCommerce  WooCommerceConfig  `yaml:"-"`
	TravelSuites TravelSuitesConfig `yaml:"-"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			DataDir:         "./data",
			StaticDir:       "./static",
			Environment:     EnvDevelopment,
			LogLevel:        "info",
			ShutdownTimeout: Duration(30 * time.Second),
			SessionIdle:     Duration(2 * time.Hour),
		},
		Cache: CacheConfig{
			CatalogTTL:  Duration(5 * time.Minute),
			CalendarTTL: Duration(30 * time.Minute),
			APITTL:      Duration(2 * time.Minute),
		},
		Fetch: FetchConfig{
			ICalTimeout:    Duration(10 * time.Second),
			CatalogTimeout: Duration(8 * time.Second),
			APITimeout:     Duration(15 * time.Second),
			BatchSize:      5,
			UserAgent:      "TravelSuites-App/1.0",
		},
		Schedule: ScheduleConfig{
			RefreshInterval: Duration(30 * time.Minute),
			DailyReportCron: "0 0 8 * * *",
		},
		Locale: LocaleConfig{
			Language:       "es-CL",
			Timezone:       "America/Santiago",
			CurrencySymbol: "$",
		},
		TravelSuites: TravelSuitesConfig{
			URL: "https://travelsuites.cl/wp-json/travelsuites/v1",
		},
	}
}

// Load builds the configuration. A .env file next to configPath (or in the
// working directory when configPath is empty) is loaded first without
// overriding variables already set. configPath may be empty, in which case
// only defaults and the environment apply.
func Load(configPath string) (*Config, error) {
	envPath := ".env"
	if configPath != "" {
		envPath = filepath.Join(filepath.Dir(configPath), ".env")
	}
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := DefaultConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv reads secrets and deployment overrides from the environment.
func (c *Config) applyEnv() {
	c.WooCommerce.URL = os.Getenv("WOOCOMMERCE_URL")
	c.WooCommerce.ConsumerKey = os.Getenv("WOOCOMMERCE_CONSUMER_KEY")
	c.WooCommerce.ConsumerSecret = os.Getenv("WOOCOMMERCE_CONSUMER_SECRET")
	c.TravelSuites.APIKey = os.Getenv("TRAVELSUITES_API_KEY")
	if v := os.Getenv("TRAVELSUITES_API_URL"); v != "" {
		c.TravelSuites.URL = v
	}

	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Server.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Normalize trims values and fills zero values with defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()

	c.Server.Environment = strings.ToLower(strings.TrimSpace(c.Server.Environment))
	c.Server.LogLevel = strings.ToLower(strings.TrimSpace(c.Server.LogLevel))
	c.WooCommerce.URL = strings.TrimRight(strings.TrimSpace(c.WooCommerce.URL), "/")
	c.TravelSuites.URL = strings.TrimRight(strings.TrimSpace(c.TravelSuites.URL), "/")

	fill := func(v *Duration, d Duration) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&c.Server.ShutdownTimeout, def.Server.ShutdownTimeout)
	fill(&c.Server.SessionIdle, def.Server.SessionIdle)
	fill(&c.Cache.CatalogTTL, def.Cache.CatalogTTL)
	fill(&c.Cache.CalendarTTL, def.Cache.CalendarTTL)
	fill(&c.Cache.APITTL, def.Cache.APITTL)
	fill(&c.Fetch.ICalTimeout, def.Fetch.ICalTimeout)
	fill(&c.Fetch.CatalogTimeout, def.Fetch.CatalogTimeout)
	fill(&c.Fetch.APITimeout, def.Fetch.APITimeout)
	fill(&c.Schedule.RefreshInterval, def.Schedule.RefreshInterval)

	if c.Server.Environment == "" {
		c.Server.Environment = def.Server.Environment
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}
	if c.Fetch.BatchSize <= 0 {
		c.Fetch.BatchSize = def.Fetch.BatchSize
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = def.Fetch.UserAgent
	}
	if c.Locale.Language == "" {
		c.Locale.Language = def.Locale.Language
	}
	if c.Locale.Timezone == "" {
		c.Locale.Timezone = def.Locale.Timezone
	}
	if c.Locale.CurrencySymbol == "" {
		c.Locale.CurrencySymbol = def.Locale.CurrencySymbol
	}
	if c.TravelSuites.URL == "" {
		c.TravelSuites.URL = def.TravelSuites.URL
	}
}

var scheduleParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Server.DataDir == "" {
		return fmt.Errorf("server data_dir is required")
	}
	switch c.Server.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("unsupported environment: %s", c.Server.Environment)
	}
	if _, err := zerolog.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.Server.LogLevel, err)
	}
	if c.Fetch.BatchSize > 20 {
		return fmt.Errorf("fetch batch_size must be at most 20, got %d", c.Fetch.BatchSize)
	}
	if c.Schedule.RefreshInterval.Std() < time.Minute {
		return fmt.Errorf("schedule refresh_interval must be at least 1m")
	}
	if c.Schedule.DailyReportCron != "" {
		if _, err := scheduleParser.Parse(c.Schedule.DailyReportCron); err != nil {
			return fmt.Errorf("invalid daily_report_cron: %w", err)
		}
	}
	if _, err := language.Parse(c.Locale.Language); err != nil {
		return fmt.Errorf("invalid locale language %q: %w", c.Locale.Language, err)
	}
	if _, err := time.LoadLocation(c.Locale.Timezone); err != nil {
		return fmt.Errorf("invalid locale timezone %q: %w", c.Locale.Timezone, err)
	}

	woo := c.WooCommerce
	if (woo.ConsumerKey != "" || woo.ConsumerSecret != "") && woo.URL == "" {
		return fmt.Errorf("WOOCOMMERCE_URL is required when WooCommerce keys are set")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// Location returns the configured time zone, or UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Locale.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Language returns the configured language tag.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Locale.Language)
	if err != nil {
		return language.Spanish
	}
	return tag
}

// Level returns the configured log level.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Server.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
