package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	obs "github.com/Back-Nine-Social-Club/fairway-bot/observability"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres       PostgresConfig       `yaml:"postgres"`
	NATS           NATSConfig           `yaml:"nats"`
	JWT            JWTConfig            `yaml:"jwt"`
	HTTP           HTTPConfig           `yaml:"http"`
	RoundLifecycle RoundLifecycleConfig `yaml:"round_lifecycle"`
	Observability  ObservabilityConfig  `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL      string `yaml:"url"`
	NKeySeed string `yaml:"nkey_seed"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Address            string  `yaml:"address"`
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
}

// RoundLifecycleConfig holds the reconciler thresholds and schedule.
type RoundLifecycleConfig struct {
	StaleAfter        time.Duration `yaml:"stale_after"`
	OrphanGrace       time.Duration `yaml:"orphan_grace"`
	PurgeAfter        time.Duration `yaml:"purge_after"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	BatchSize         int           `yaml:"batch_size"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress  string  `yaml:"metrics_address"`
	TempoEndpoint   string  `yaml:"tempo_endpoint"`
	TempoInsecure   bool    `yaml:"tempo_insecure"`
	TempoSampleRate float64 `yaml:"tempo_sample_rate"`
	Environment     string  `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_NKEY_SEED"); v != "" {
		cfg.NATS.NKeySeed = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.JWT.Issuer = v
	}
	if v := os.Getenv("JWT_AUDIENCE"); v != "" {
		cfg.JWT.Audience = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("TEMPO_ENDPOINT"); v != "" {
		cfg.Observability.TempoEndpoint = v
	}
	if v := os.Getenv("TEMPO_INSECURE"); v != "" {
		cfg.Observability.TempoInsecure = v == "true"
	}
	if v := os.Getenv("TEMPO_SAMPLE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Observability.TempoSampleRate = f
		}
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("ROUND_STALE_AFTER"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RoundLifecycle.StaleAfter = d
		}
	}
	if v := os.Getenv("ROUND_ORPHAN_GRACE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RoundLifecycle.OrphanGrace = d
		}
	}
	if v := os.Getenv("ROUND_PURGE_AFTER"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RoundLifecycle.PurgeAfter = d
		}
	}
	if v := os.Getenv("ROUND_RECONCILE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RoundLifecycle.ReconcileInterval = d
		}
	}
	if v := os.Getenv("ROUND_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RoundLifecycle.BatchSize = n
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	// Load Postgres DSN
	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	// Load NATS URL
	cfg.NATS.URL = os.Getenv("NATS_URL")
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}
	cfg.NATS.NKeySeed = os.Getenv("NATS_NKEY_SEED")

	// Load JWT settings
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.Issuer = os.Getenv("JWT_ISSUER")
	cfg.JWT.Audience = os.Getenv("JWT_AUDIENCE")

	// Load HTTP settings
	cfg.HTTP.Address = os.Getenv("HTTP_ADDRESS")

	// Load Observability settings
	cfg.Observability.MetricsAddress = os.Getenv("METRICS_ADDRESS") // optional; empty disables metrics
	cfg.Observability.TempoEndpoint = os.Getenv("TEMPO_ENDPOINT")   // optional; empty disables tracing
	cfg.Observability.Environment = os.Getenv("ENV")
	cfg.Observability.TempoInsecure = os.Getenv("TEMPO_INSECURE") == "true"
	if v := os.Getenv("TEMPO_SAMPLE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TEMPO_SAMPLE_RATE value: %v", err)
		}
		cfg.Observability.TempoSampleRate = f
	}

	// Load reconciler settings
	if v := os.Getenv("ROUND_STALE_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ROUND_STALE_AFTER value: %v", err)
		}
		cfg.RoundLifecycle.StaleAfter = d
	}
	if v := os.Getenv("ROUND_ORPHAN_GRACE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ROUND_ORPHAN_GRACE value: %v", err)
		}
		cfg.RoundLifecycle.OrphanGrace = d
	}
	if v := os.Getenv("ROUND_PURGE_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ROUND_PURGE_AFTER value: %v", err)
		}
		cfg.RoundLifecycle.PurgeAfter = d
	}
	if v := os.Getenv("ROUND_RECONCILE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ROUND_RECONCILE_INTERVAL value: %v", err)
		}
		cfg.RoundLifecycle.ReconcileInterval = d
	}
	if v := os.Getenv("ROUND_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid ROUND_BATCH_SIZE value: %q", v)
		}
		cfg.RoundLifecycle.BatchSize = n
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.RateLimitPerSecond <= 0 {
		c.HTTP.RateLimitPerSecond = 20
	}
	if c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = 40
	}
	if c.RoundLifecycle.StaleAfter <= 0 {
		c.RoundLifecycle.StaleAfter = 12 * time.Hour
	}
	if c.RoundLifecycle.OrphanGrace <= 0 {
		c.RoundLifecycle.OrphanGrace = 10 * time.Minute
	}
	if c.RoundLifecycle.PurgeAfter <= 0 {
		c.RoundLifecycle.PurgeAfter = 24 * time.Hour
	}
	if c.RoundLifecycle.ReconcileInterval <= 0 {
		c.RoundLifecycle.ReconcileInterval = time.Hour
	}
	if c.RoundLifecycle.BatchSize <= 0 {
		c.RoundLifecycle.BatchSize = 500
	}
	if c.Observability.TempoSampleRate <= 0 {
		c.Observability.TempoSampleRate = 0.1
	}
}

func ToObsConfig(appCfg *Config) obs.Config {
	return obs.Config{
		ServiceName:     "fairway-bot",
		Environment:     appCfg.Observability.Environment,
		Version:         "dev", // Could inject via `ldflags`
		MetricsAddress:  appCfg.Observability.MetricsAddress,
		TempoEndpoint:   appCfg.Observability.TempoEndpoint,
		TempoInsecure:   appCfg.Observability.TempoInsecure,
		TempoSampleRate: appCfg.Observability.TempoSampleRate,
	}
}
