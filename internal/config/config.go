// Package config loads careteam settings from defaults, an optional YAML
// file, a .env file and CARETEAM_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/goliatone/go-careteam-sync/api"
	"github.com/goliatone/go-careteam-sync/cache"
)

// EnvPrefix prefixes every environment override, e.g. CARETEAM_API_BASE_URL.
const EnvPrefix = "CARETEAM"

// Session backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the complete careteam configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Session  SessionConfig  `mapstructure:"session"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Messages MessagesConfig `mapstructure:"messages"`
}

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig tunes the request cache.
type CacheConfig struct {
	Capacity           int           `mapstructure:"capacity"`
	NumShards          int           `mapstructure:"num_shards"`
	KeepUnusedDataFor  time.Duration `mapstructure:"keep_unused_data_for"`
	EvictionPercentage int           `mapstructure:"eviction_percentage"`
	EvictionInterval   time.Duration `mapstructure:"eviction_interval"`
}

// SessionConfig selects where the logged-in identity is persisted.
type SessionConfig struct {
	Backend     string `mapstructure:"backend"`
	Path        string `mapstructure:"path"`
	RedisURL    string `mapstructure:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// MessagesConfig tunes conversation views.
type MessagesConfig struct {
	PollingInterval time.Duration `mapstructure:"polling_interval"`
}

// Load reads configuration. cfgFile may be empty, in which case
// .careteam.yaml is looked up in the working directory and
// $HOME/.config/careteam. A missing .env file is not an error.
func Load(cfgFile string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".careteam")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/careteam")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:3000")
	v.SetDefault("api.timeout", 15*time.Second)

	engine := cache.DefaultConfig()
	v.SetDefault("cache.capacity", engine.Capacity)
	v.SetDefault("cache.num_shards", engine.NumShards)
	v.SetDefault("cache.keep_unused_data_for", engine.KeepUnusedDataFor)
	v.SetDefault("cache.eviction_percentage", engine.EvictionPercentage)
	v.SetDefault("cache.eviction_interval", engine.EvictionInterval)

	v.SetDefault("session.backend", BackendSQLite)
	v.SetDefault("session.path", defaultSessionPath())
	v.SetDefault("session.redis_url", "redis://localhost:6379/0")
	v.SetDefault("session.redis_prefix", "careteam:")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")

	v.SetDefault("messages.polling_interval", 5*time.Second)
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "careteam-session.db"
	}
	return dir + string(os.PathSeparator) + "careteam" + string(os.PathSeparator) + "session.db"
}

// Validate implements validation.Validatable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.API),
		validation.Field(&c.Cache),
		validation.Field(&c.Session),
		validation.Field(&c.Logging),
		validation.Field(&c.Messages),
	)
}

// Validate implements validation.Validatable.
func (c APIConfig) Validate() error {
	return c.Client().Validate()
}

// Client converts to the api package configuration.
func (c APIConfig) Client() api.Config {
	return api.Config{BaseURL: c.BaseURL, Timeout: c.Timeout}
}

// Validate implements validation.Validatable.
func (c CacheConfig) Validate() error {
	return c.Engine().Validate()
}

// Engine converts to the cache package configuration.
func (c CacheConfig) Engine() cache.Config {
	return cache.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		KeepUnusedDataFor:  c.KeepUnusedDataFor,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

// Validate implements validation.Validatable.
func (c SessionConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendMemory, BackendSQLite, BackendRedis)),
		validation.Field(&c.Path, validation.When(c.Backend == BackendSQLite, validation.Required)),
		validation.Field(&c.RedisURL, validation.When(c.Backend == BackendRedis, validation.Required, validation.By(redisURL))),
	)
}

func redisURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
		return validation.NewError("validation_redis_url", "must be a redis:// URL")
	}
	return nil
}

// Validate implements validation.Validatable.
func (c LoggingConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Encoding, validation.Required, validation.In("json", "console")),
	)
}

// Validate implements validation.Validatable.
func (c MessagesConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PollingInterval, validation.Required, validation.Min(time.Second)),
	)
}
