package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// IANA zone name used for day labels and the weekly window. "Local" uses the host zone.
	Timezone string `env:"LEDGER_TIMEZONE" envDefault:"Local"`

	ChangeFeed        string `env:"CHANGE_FEED" envDefault:"postgres"`
	ChangeFeedChannel string `env:"CHANGE_FEED_CHANNEL" envDefault:"khata_changes"`
	RedisURL          string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	DistributionLimit int `env:"DISTRIBUTION_LIMIT" envDefault:"4"`
	TrendWindow       int `env:"TREND_WINDOW" envDefault:"10"`

	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	// A missing .env file is fine; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.ChangeFeed {
	case "memory", "postgres", "redis":
	default:
		return fmt.Errorf("CHANGE_FEED must be memory, postgres or redis, got %q", c.ChangeFeed)
	}
	if c.DistributionLimit < 1 {
		return fmt.Errorf("DISTRIBUTION_LIMIT must be at least 1")
	}
	if c.TrendWindow < 1 {
		return fmt.Errorf("TREND_WINDOW must be at least 1")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured ledger time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("LEDGER_TIMEZONE: %w", err)
	}
	return loc, nil
}
