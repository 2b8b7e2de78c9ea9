package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Server   ServerConfig   `mapstructure:"server"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Redirect RedirectConfig `mapstructure:"redirect"`
	OEmbed   OEmbedConfig   `mapstructure:"oembed"`
	Twitter  TwitterConfig  `mapstructure:"twitter"`
	Render   RenderConfig   `mapstructure:"render"`
	Resolver ResolverConfig `mapstructure:"resolver"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CacheConfig controls the resolved-image cache.
type CacheConfig struct {
	// Backend is "badger" (durable, with a memory front tier) or "memory".
	Backend       string        `mapstructure:"backend"`
	Path          string        `mapstructure:"path"`
	TTL           time.Duration `mapstructure:"ttl"`
	MemoryEntries int           `mapstructure:"memory_entries"`
	GCInterval    time.Duration `mapstructure:"gc_interval"`
}

// FetchConfig controls the transport fetcher.
type FetchConfig struct {
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	MaxRedirects int           `mapstructure:"max_redirects"`
}

// RedirectConfig controls short-link chasing.
type RedirectConfig struct {
	MaxHops int `mapstructure:"max_hops"`
}

// OEmbedConfig controls the oEmbed fallback.
type OEmbedConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// TwitterConfig controls the platform API fallback.
// An empty BearerToken disables the strategy.
type TwitterConfig struct {
	BearerToken string        `mapstructure:"bearer_token"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// RenderConfig controls the headless-browser strategy.
type RenderConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ResolverConfig controls the orchestrator.
type ResolverConfig struct {
	CollapseDuplicates bool `mapstructure:"collapse_duplicates"`
}

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("cache.backend", "badger")
	v.SetDefault("cache.path", "./.cache/social-image")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.memory_entries", 1024)
	v.SetDefault("cache.gc_interval", 5*time.Minute)

	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.timeout", 8*time.Second)
	v.SetDefault("fetch.probe_timeout", 5*time.Second)
	v.SetDefault("fetch.max_body_bytes", 2_000_000)
	v.SetDefault("fetch.max_redirects", 10)

	v.SetDefault("redirect.max_hops", 5)

	v.SetDefault("oembed.endpoint", "https://publish.twitter.com/oembed")

	v.SetDefault("twitter.bearer_token", "")
	v.SetDefault("twitter.base_url", "https://api.twitter.com")
	v.SetDefault("twitter.timeout", 6*time.Second)
	v.SetDefault("twitter.user_agent", "ogresolver/1.0 fetch-twitter-media")

	v.SetDefault("render.enabled", false)
	v.SetDefault("render.timeout", 30*time.Second)

	v.SetDefault("resolver.collapse_duplicates", true)
}

// LoadConfig reads configuration from file or environment variables.
// Environment variables use the key with dots replaced by underscores,
// e.g. CACHE_PATH or FETCH_TIMEOUT.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The bearer token has two historical names.
	if err := v.BindEnv("twitter.bearer_token", "TWITTER_BEARER_TOKEN", "X_BEARER_TOKEN"); err != nil {
		return Config{}, fmt.Errorf("bind bearer token env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; env vars and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that would make the resolver misbehave.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "badger":
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the badger backend")
		}
		if c.Cache.GCInterval <= 0 {
			return fmt.Errorf("cache.gc_interval must be positive")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.MemoryEntries <= 0 {
		return fmt.Errorf("cache.memory_entries must be positive")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be positive")
	}
	if c.Fetch.MaxRedirects < 0 || c.Redirect.MaxHops <= 0 {
		return fmt.Errorf("fetch.max_redirects and redirect.max_hops must be non-negative and positive")
	}
	if c.Fetch.Timeout <= 0 || c.Fetch.ProbeTimeout <= 0 || c.Twitter.Timeout <= 0 || (c.Render.Enabled && c.Render.Timeout <= 0) {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
