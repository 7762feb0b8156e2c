package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresConfig_DatabaseURL_EscapesCredentials(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     "5432",
		User:     "svc",
		Password: "p@ss/word",
		DBName:   "reservations",
	}

	assert.Equal(t, "postgres://svc:p%40ss%2Fword@db:5432/reservations?sslmode=disable", cfg.DatabaseURL())
	assert.Contains(t, cfg.DSN(), "sslmode=disable")
	assert.Contains(t, cfg.DSN(), "TimeZone=UTC")
}
