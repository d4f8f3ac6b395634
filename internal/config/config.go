// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. Every component receives its
// slice of this at construction; nothing reads process-global state.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Capacity CapacityConfig `mapstructure:"capacity"`
	Lease    LeaseConfig    `mapstructure:"lease"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // development, staging, production
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// AWSConfig holds provider client settings.
type AWSConfig struct {
	Region  string   `mapstructure:"region"`
	Breaker CBConfig `mapstructure:"circuit_breaker"`
}

// CBConfig holds circuit breaker settings for provider calls.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// CapacityConfig holds the capacity workflow settings.
type CapacityConfig struct {
	// DefaultResourceClass is used when a request names neither a class nor
	// a recognized label.
	DefaultResourceClass string `mapstructure:"default_resource_class"`
	// DefaultDurationHours is the capacity block duration requested when the
	// caller does not supply one.
	DefaultDurationHours int32 `mapstructure:"default_duration_hours"`
	// InstanceCount is the number of instances requested per capacity block.
	InstanceCount int32 `mapstructure:"instance_count"`
	// Zone pins offerings to one availability zone. Empty means autodiscover
	// from network topology, falling back to all zones.
	Zone string `mapstructure:"zone"`
	// VPCID scopes zone autodiscovery. Empty disables autodiscovery.
	VPCID string `mapstructure:"vpc_id"`
	// Labels overrides the built-in label to resource class table.
	Labels map[string]string `mapstructure:"labels"`
	// Tags is the ownership metadata attached to every purchased reservation.
	Tags map[string]string `mapstructure:"tags"`
	// OfferingStartBuffer excludes offerings starting sooner than this;
	// they are not actionable.
	OfferingStartBuffer time.Duration `mapstructure:"offering_start_buffer"`
	// OfferingHorizon excludes offerings starting beyond this; they are not
	// useful for near-term planning.
	OfferingHorizon time.Duration `mapstructure:"offering_horizon"`
	// OptimisticDiscovery restores proceed-on-empty behavior when a
	// reservation query fails. Off by default: a failed query means
	// "unknown", and buying on unknown risks a duplicate block.
	OptimisticDiscovery bool `mapstructure:"optimistic_discovery"`
}

// LeaseConfig holds purchase lease settings.
type LeaseConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	Namespace string        `mapstructure:"namespace"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Name         string        `mapstructure:"name"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig holds Redis connection settings for the lease store, audit
// records, snapshot cache and scheduler lock.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SnapshotConfig holds the status snapshot refresher settings.
type SnapshotConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	Interval  time.Duration `mapstructure:"interval"`
	Timeout   time.Duration `mapstructure:"timeout"`
	OnStartup bool          `mapstructure:"on_startup"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// WebhookConfig holds the acquisition event sink settings.
type WebhookConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	URL         string        `mapstructure:"url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	WaitTime    time.Duration `mapstructure:"wait_time"`
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	// Environment variable settings
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "capacity-manager")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)

	// AWS defaults
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.circuit_breaker.max_requests", 3)
	v.SetDefault("aws.circuit_breaker.interval", "60s")
	v.SetDefault("aws.circuit_breaker.timeout", "30s")
	v.SetDefault("aws.circuit_breaker.failure_ratio", 0.5)

	// Capacity workflow defaults
	v.SetDefault("capacity.default_resource_class", "p6-b200.48xlarge")
	v.SetDefault("capacity.default_duration_hours", 24)
	v.SetDefault("capacity.instance_count", 1)
	v.SetDefault("capacity.zone", "")
	v.SetDefault("capacity.vpc_id", "")
	v.SetDefault("capacity.offering_start_buffer", "30m")
	v.SetDefault("capacity.offering_horizon", "336h") // 14 days
	v.SetDefault("capacity.optimistic_discovery", false)
	v.SetDefault("capacity.tags", map[string]string{"managed-by": "capacity-manager"})

	// Lease defaults
	v.SetDefault("lease.ttl", "10m")
	v.SetDefault("lease.namespace", "capacity-manager")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "capacity_manager")
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Snapshot defaults
	v.SetDefault("snapshot.ttl", "60s")
	v.SetDefault("snapshot.interval", "5m")
	v.SetDefault("snapshot.timeout", "30s")
	v.SetDefault("snapshot.on_startup", true)
	v.SetDefault("snapshot.key_prefix", "capacity-manager")

	// Webhook defaults
	v.SetDefault("webhook.enabled", false)
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.timeout", "5s")
	v.SetDefault("webhook.max_attempts", 3)
	v.SetDefault("webhook.wait_time", "1s")
	v.SetDefault("webhook.max_wait_time", "5s")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)
}
