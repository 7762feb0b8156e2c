package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RESERVATION_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "reservations", cfg.DBConfig.DBName)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, int64(2500), cfg.LateFeeHourlyRateCents)
	assert.Equal(t, "0 */15 * * * *", cfg.SweepSpec)
	assert.Equal(t, 4, cfg.SweepConcurrency)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RESERVATION_JWT_SECRET", "s3cret")
	t.Setenv("RESERVATION_STORAGE_DRIVER", "memory")
	t.Setenv("RESERVATION_KAFKA_ENABLED", "false")
	t.Setenv("RESERVATION_CURRENCY", "EUR")
	t.Setenv("RESERVATION_LATE_FEE_HOURLY_RATE_CENTS", "4000")
	t.Setenv("RESERVATION_SERVICE_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, int64(4000), cfg.LateFeeHourlyRateCents)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{}},
		{"unknown driver", map[string]string{"RESERVATION_JWT_SECRET": "x", "RESERVATION_STORAGE_DRIVER": "mongo"}},
		{"zero late fee rate", map[string]string{"RESERVATION_JWT_SECRET": "x", "RESERVATION_LATE_FEE_HOURLY_RATE_CENTS": "0"}},
		{"zero concurrency", map[string]string{"RESERVATION_JWT_SECRET": "x", "RESERVATION_SWEEP_CONCURRENCY": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
