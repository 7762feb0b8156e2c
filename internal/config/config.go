package config

import (
	"fmt"

	"github.com/fleetline/service-reservation/pkg/config"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// ServiceConfig holds all configuration for the reservation service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig

	StorageDriver string
	KafkaEnabled  bool

	Currency               string
	LateFeeHourlyRateCents int64
	SweepSpec              string
	SweepConcurrency       int
}

// Load reads configuration from RESERVATION_* environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RESERVATION")
	if err != nil {
		return nil, err
	}

	v.SetDefault("DB_NAME", "reservations")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("KAFKA_ENABLED", true)
	v.SetDefault("CURRENCY", "USD")
	v.SetDefault("LATE_FEE_HOURLY_RATE_CENTS", 2500)
	v.SetDefault("SWEEP_SPEC", "0 */15 * * * *")
	v.SetDefault("SWEEP_CONCURRENCY", 4)

	cfg := &ServiceConfig{
		Port:                   config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:                 config.GetAppEnv(v),
		DBConfig:               config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:              config.LoadJWTConfig(v),
		KafkaConfig:            config.LoadKafkaConfig(v),
		StorageDriver:          v.GetString("STORAGE_DRIVER"),
		KafkaEnabled:           v.GetBool("KAFKA_ENABLED"),
		Currency:               v.GetString("CURRENCY"),
		LateFeeHourlyRateCents: v.GetInt64("LATE_FEE_HOURLY_RATE_CENTS"),
		SweepSpec:              v.GetString("SWEEP_SPEC"),
		SweepConcurrency:       v.GetInt("SWEEP_CONCURRENCY"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	switch c.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.JWTConfig.Secret == "" {
		return fmt.Errorf("JWT secret must be set")
	}
	if c.LateFeeHourlyRateCents <= 0 {
		return fmt.Errorf("late fee hourly rate must be positive, got %d", c.LateFeeHourlyRateCents)
	}
	if c.SweepConcurrency < 1 {
		return fmt.Errorf("sweep concurrency must be at least 1, got %d", c.SweepConcurrency)
	}
	return nil
}
