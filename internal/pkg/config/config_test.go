package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("sellers-api")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Server.RequestTimeout)
	assert.Equal(t, "*", cfg.Server.CORSOrigins)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, "SELLERS", cfg.NATS.Stream)
	assert.Empty(t, cfg.Valkey.Addr)
	assert.Equal(t, "sellers-api", cfg.Telemetry.ServiceName)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_PlainPortAndDatabaseURL(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/sellers")
	t.Setenv("SELLERS_STORAGE_DRIVER", "postgres")

	cfg, err := Load("sellers-api")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://u:p@db:5432/sellers", cfg.Database.DSN())
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("SELLERS_SERVER_PORT", "9090")
	t.Setenv("SELLERS_VALKEY_ADDR", "cache:6379")

	cfg, err := Load("sellers-api")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "cache:6379", cfg.Valkey.Addr)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("SELLERS_STORAGE_DRIVER", "mongo")

	_, err := Load("sellers-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: 5000, ReadTimeout: 10, WriteTimeout: 10,
			RequestTimeout: 15, BodyLimitMB: 1, RateLimit: 120,
		},
		Storage: StorageConfig{Driver: DriverMemory},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = 0
	cfg.Server.RequestTimeout = 0
	cfg.Valkey.Addr = "cache:6379"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"server.port", "server.request_timeout", "valkey.ttl_seconds", "log.format"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_PostgresNeedsConnectionDetails(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = DriverPostgres
	cfg.Database.MaxConns = 10

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host")

	cfg.Database.URL = "postgres://localhost/sellers"
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseDSN_FromFields(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", d.DSN())
}
