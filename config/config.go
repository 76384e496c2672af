package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Search     SearchConfig     `mapstructure:"search"`
	Reconciler ReconcilerConfig `mapstructure:"reconciler"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
}

type AppConfig struct {
	// Name prefixes the alert headers sent on mutations.
	Name string `mapstructure:"name"`
}

type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DefaultPageSize int           `mapstructure:"default_page_size"`
	MaxPageSize     int           `mapstructure:"max_page_size"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type SearchConfig struct {
	Addrs            []string      `mapstructure:"addrs"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	DB               int           `mapstructure:"db"`
	Index            string        `mapstructure:"index"`
	KeyPrefix        string        `mapstructure:"key_prefix"`
	ReadinessTimeout time.Duration `mapstructure:"readiness_timeout"`
}

type ReconcilerConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	BatchSize  int           `mapstructure:"batch_size"`
	MaxRetries int           `mapstructure:"max_retries"`
	MinAge     time.Duration `mapstructure:"min_age"`
	Retention  time.Duration `mapstructure:"retention"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LogConfig struct {
	Env   string `mapstructure:"env"`   // prod, dev, local
	Level string `mapstructure:"level"` // debug, info, warn, error
}

const defaultJWTSecret = "your-secret-key-change-this-in-production"

// SetDefaults registers every key with viper so that environment overrides
// resolve even when no config file is present.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "app2automateApp")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.default_page_size", 20)
	v.SetDefault("http.max_page_size", 100)

	v.SetDefault("database.dsn", "host=localhost port=5432 user=app2automate password=app2automate dbname=app2automate sslmode=disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("search.addrs", []string{"localhost:6379"})
	v.SetDefault("search.username", "")
	v.SetDefault("search.password", "")
	v.SetDefault("search.db", 0)
	v.SetDefault("search.index", "post-idx")
	v.SetDefault("search.key_prefix", "post:")
	v.SetDefault("search.readiness_timeout", 10*time.Second)

	v.SetDefault("reconciler.enabled", true)
	v.SetDefault("reconciler.interval", 15*time.Second)
	v.SetDefault("reconciler.batch_size", 100)
	v.SetDefault("reconciler.max_retries", 10)
	v.SetDefault("reconciler.min_age", 5*time.Second)
	v.SetDefault("reconciler.retention", 7*24*time.Hour)

	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.expiration", 24*time.Hour)

	v.SetDefault("log.env", "local")
	v.SetDefault("log.level", "")
}

// Load reads the optional config file at path, then applies APP_* environment
// overrides (APP_DATABASE_DSN, APP_SEARCH_ADDRS, ...).
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.DefaultPageSize <= 0 || c.HTTP.MaxPageSize < c.HTTP.DefaultPageSize {
		return fmt.Errorf("http.default_page_size must be positive and not above http.max_page_size")
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if len(c.Search.Addrs) == 0 {
		return errors.New("search.addrs is required")
	}
	if c.Search.Index == "" || c.Search.KeyPrefix == "" {
		return errors.New("search.index and search.key_prefix are required")
	}
	if c.Reconciler.Enabled && c.Reconciler.Interval <= 0 {
		return fmt.Errorf("reconciler.interval must be positive, got %s", c.Reconciler.Interval)
	}
	if c.Reconciler.BatchSize <= 0 {
		return fmt.Errorf("reconciler.batch_size must be positive, got %d", c.Reconciler.BatchSize)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Log.Env {
	case "prod", "dev", "local", "test":
	default:
		return fmt.Errorf("log.env must be one of prod, dev, local, test; got %q", c.Log.Env)
	}
	return nil
}

// UsesDefaultJWTSecret reports whether the development signing key is in use.
func (c *Config) UsesDefaultJWTSecret() bool {
	return c.JWT.Secret == defaultJWTSecret
}
