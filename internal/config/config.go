package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server      ServerConfig      `envconfig:"SERVER"`
	ExchangeAPI ExchangeAPIConfig `envconfig:"EXCHANGE_API"`
	Resilience  ResilienceConfig  `envconfig:"RESILIENCE"`
	Cache       CacheConfig       `envconfig:"CACHE"`
	Provider    ProviderConfig    `envconfig:"PROVIDER"`
	Log         LogConfig         `envconfig:"LOG"`
}

type ServerConfig struct {
	Port         int           `envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"75s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
}

type ExchangeAPIConfig struct {
	BaseURL     string        `envconfig:"BASE_URL" default:"https://api.frankfurter.app"`
	RefreshRate time.Duration `envconfig:"REFRESH_RATE" default:"1h"`
	WarmBases   []string      `envconfig:"WARM_BASES" default:"EUR,USD"`
}

type ResilienceConfig struct {
	TotalTimeout   time.Duration `envconfig:"TOTAL_TIMEOUT" default:"60s"`
	AttemptTimeout time.Duration `envconfig:"ATTEMPT_TIMEOUT" default:"10s"`
	MaxAttempts    int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	BaseDelay      time.Duration `envconfig:"BASE_DELAY" default:"1s"`
	MaxDelay       time.Duration `envconfig:"MAX_DELAY" default:"30s"`
	FailureRatio   float64       `envconfig:"FAILURE_RATIO" default:"0.5"`
	MinThroughput  int           `envconfig:"MIN_THROUGHPUT" default:"5"`
	SamplingWindow time.Duration `envconfig:"SAMPLING_WINDOW" default:"30s"`
	BreakDuration  time.Duration `envconfig:"BREAK_DURATION" default:"60s"`
}

type CacheConfig struct {
	Backend         string        `envconfig:"BACKEND" default:"memory"`
	RedisURL        string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	Prefix          string        `envconfig:"PREFIX" default:"rates:"`
	LatestTTL       time.Duration `envconfig:"LATEST_TTL" default:"5m"`
	ConversionTTL   time.Duration `envconfig:"CONVERSION_TTL" default:"5m"`
	HistoricalTTL   time.Duration `envconfig:"HISTORICAL_TTL" default:"60m"`
	CurrencyListTTL time.Duration `envconfig:"CURRENCY_LIST_TTL" default:"24h"`
	StaleRetention  time.Duration `envconfig:"STALE_RETENTION" default:"24h"`
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" default:"10m"`
}

type ProviderConfig struct {
	Default string `envconfig:"DEFAULT" default:"frankfurter"`
}

type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"text"`
}

// LoadConfig reads an optional .env file (ENV_FILE, or ./.env) and then
// the process environment.
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	r := c.Resilience
	switch {
	case r.MaxAttempts < 1:
		return fmt.Errorf("RESILIENCE_MAX_ATTEMPTS must be at least 1, got %d", r.MaxAttempts)
	case r.FailureRatio <= 0 || r.FailureRatio > 1:
		return fmt.Errorf("RESILIENCE_FAILURE_RATIO must be in (0, 1], got %v", r.FailureRatio)
	case r.MinThroughput < 1:
		return fmt.Errorf("RESILIENCE_MIN_THROUGHPUT must be at least 1, got %d", r.MinThroughput)
	case r.AttemptTimeout <= 0 || r.TotalTimeout <= 0:
		return fmt.Errorf("resilience timeouts must be positive")
	case r.AttemptTimeout >= r.BreakDuration:
		// An attempt admitted while closed must finish before a half-open trial can start.
		return fmt.Errorf("RESILIENCE_ATTEMPT_TIMEOUT (%s) must be shorter than RESILIENCE_BREAK_DURATION (%s)",
			r.AttemptTimeout, r.BreakDuration)
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.Cache.Backend)
	}

	if c.ExchangeAPI.RefreshRate <= 0 || c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("EXCHANGE_API_REFRESH_RATE and CACHE_SWEEP_INTERVAL must be positive")
	}

	if c.Provider.Default == "" {
		return fmt.Errorf("PROVIDER_DEFAULT must not be empty")
	}
	return nil
}
