// Package config loads service settings from .env, an optional config.yaml
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port      int    `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Search   SearchConfig   `mapstructure:"search"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Elastic  ElasticConfig  `mapstructure:"elastic"`
	Hydrator HydratorConfig `mapstructure:"hydrator"`

	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
	CORSOrigins        []string `mapstructure:"-"`
}

type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RetryMax          int           `mapstructure:"retry_max"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

type SearchConfig struct {
	DefaultLocation string        `mapstructure:"default_location"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	StaleAfter      time.Duration `mapstructure:"stale_after"`
	NegativeTTL     time.Duration `mapstructure:"negative_ttl"`
	RefreshWorkers  int           `mapstructure:"refresh_workers"`
	RefreshQueue    int           `mapstructure:"refresh_queue"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	GuestTTL  time.Duration `mapstructure:"guest_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ElasticConfig struct {
	Addresses []string `mapstructure:"-"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type HydratorConfig struct {
	Locations      []string      `mapstructure:"-"`
	Interval       time.Duration `mapstructure:"interval"`
	Pause          time.Duration `mapstructure:"pause"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RunOnce        bool          `mapstructure:"run_once"`
}

// envKeys maps config keys to the environment variables that set them. The
// first variable that is set wins.
var envKeys = map[string][]string{
	"port":                       {"PORT"},
	"log_level":                  {"LOG_LEVEL"},
	"log_format":                 {"LOG_FORMAT"},
	"gemini.api_key":             {"GEMINI_API_KEY", "API_KEY"},
	"gemini.base_url":            {"GEMINI_BASE_URL"},
	"gemini.model":               {"GEMINI_MODEL"},
	"gemini.timeout":             {"GEMINI_TIMEOUT"},
	"gemini.retry_max":           {"GEMINI_RETRY_MAX"},
	"gemini.requests_per_minute": {"GEMINI_REQUESTS_PER_MINUTE"},
	"search.default_location":    {"SEARCH_DEFAULT_LOCATION"},
	"search.cache_ttl":           {"SEARCH_CACHE_TTL"},
	"search.stale_after":         {"SEARCH_STALE_AFTER"},
	"search.negative_ttl":        {"SEARCH_NEGATIVE_TTL"},
	"search.refresh_workers":     {"SEARCH_REFRESH_WORKERS"},
	"search.refresh_queue":       {"SEARCH_REFRESH_QUEUE"},
	"auth.jwt_secret":            {"JWT_SECRET"},
	"auth.token_ttl":             {"JWT_TTL"},
	"auth.guest_ttl":             {"JWT_GUEST_TTL"},
	"redis.addr":                 {"REDIS_ADDR"},
	"redis.password":             {"REDIS_PASSWORD"},
	"redis.db":                   {"REDIS_DB"},
	"postgres.dsn":               {"PG_DSN", "DATABASE_URL"},
	"elastic.addresses":          {"ELASTICSEARCH_ADDRESSES", "ES_ADDRESSES"},
	"elastic.username":           {"ELASTICSEARCH_USERNAME"},
	"elastic.password":           {"ELASTICSEARCH_PASSWORD"},
	"elastic.index":              {"ELASTICSEARCH_INDEX"},
	"hydrator.locations":         {"HYDRATOR_LOCATIONS"},
	"hydrator.interval":          {"HYDRATOR_INTERVAL"},
	"hydrator.pause":             {"HYDRATOR_PAUSE"},
	"hydrator.request_timeout":   {"HYDRATOR_REQUEST_TIMEOUT"},
	"hydrator.run_once":          {"HYDRATOR_RUN_ONCE"},
	"rate_limit_per_minute":      {"RATE_LIMIT_PER_MINUTE"},
	"cors_origins":               {"CORS_ORIGINS"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 4002)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("gemini.model", "gemini-2.5-pro")
	v.SetDefault("gemini.timeout", 30*time.Second)
	v.SetDefault("gemini.retry_max", 2)
	v.SetDefault("gemini.requests_per_minute", 30)
	v.SetDefault("search.default_location", "Accra, Ghana")
	v.SetDefault("search.cache_ttl", 6*time.Hour)
	v.SetDefault("search.stale_after", 15*time.Minute)
	v.SetDefault("search.negative_ttl", 2*time.Minute)
	v.SetDefault("search.refresh_workers", 2)
	v.SetDefault("search.refresh_queue", 64)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.guest_ttl", 12*time.Hour)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("elastic.addresses", []string{})
	v.SetDefault("elastic.username", "")
	v.SetDefault("elastic.password", "")
	v.SetDefault("elastic.index", "properties")
	v.SetDefault("hydrator.locations", []string{})
	v.SetDefault("hydrator.interval", 6*time.Hour)
	v.SetDefault("hydrator.pause", 1500*time.Millisecond)
	v.SetDefault("hydrator.request_timeout", 45*time.Second)
	v.SetDefault("hydrator.run_once", false)
	v.SetDefault("rate_limit_per_minute", 100)
	v.SetDefault("cors_origins", []string{"*"})
}

// Load reads .env (if present), then config.yaml from ./configs or the
// working directory (if present), then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper applies defaults and environment bindings to v and decodes it.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	for key, names := range envKeys {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// Locations contain commas, so they are separated by semicolons.
	cfg.Elastic.Addresses = listValue(v.Get("elastic.addresses"), ",; ")
	cfg.Hydrator.Locations = listValue(v.Get("hydrator.locations"), ";\n")
	cfg.CORSOrigins = listValue(v.Get("cors_origins"), ", ")

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.Search.RefreshWorkers < 1 {
		errs = append(errs, errors.New("search.refresh_workers must be at least 1"))
	}
	return errors.Join(errs...)
}

// listValue reads a list setting. A YAML list is taken item by item; a
// string from the environment is split on any of seps.
func listValue(raw any, seps string) []string {
	var items []string
	switch t := raw.(type) {
	case string:
		items = strings.FieldsFunc(t, func(r rune) bool { return strings.ContainsRune(seps, r) })
	case []string:
		items = t
	case []any:
		for _, it := range t {
			items = append(items, fmt.Sprint(it))
		}
	}
	var out []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
