package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJSON = `{
	"server_address": ":3100",
	"grpc_address": ":3200",
	"file_storage_path": "json_storage.json",
	"database_dsn": "json-dsn",
	"mongo_database": "json-db",
	"db_connection_timeout": "3s",
	"metrics_enabled": false,
	"cors_allowed_origins": ["https://json-config.com"]
}`

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	file, err := os.CreateTemp("", "config*.json")
	require.NoError(t, err)
	_, err = file.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	t.Cleanup(func() {
		err := os.Remove(file.Name())
		require.NoError(t, err)
	})
	return file.Name()
}

func TestDefaults(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.RunAddr)
	assert.Equal(t, "", cfg.GRPCAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "exercise-track", cfg.MongoDatabase)
	assert.Equal(t, 10*time.Second, cfg.DBConnectionTimeout)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestApplyDefaultsDoesNotShareSlices(t *testing.T) {
	values := Config{}
	applyDefaults(&values, defaultConfig)

	values.CORSAllowedOrigins[0] = "https://changed.com"

	assert.Equal(t, []string{"*"}, defaultConfig.CORSAllowedOrigins)
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3100", cfg.RunAddr)
	assert.Equal(t, ":3200", cfg.GRPCAddr)
	assert.Equal(t, "json_storage.json", cfg.DBFileName)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
	assert.Equal(t, "json-db", cfg.MongoDatabase)
	assert.Equal(t, 3*time.Second, cfg.DBConnectionTimeout)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, []string{"https://json-config.com"}, cfg.CORSAllowedOrigins)
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("DB_CONNECTION_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.com,https://b.com")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.RunAddr) // env overrides json
	assert.Equal(t, 5*time.Second, cfg.DBConnectionTimeout)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigPriorityAllSources(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("MONGO_URI", "mongodb://env:27017")

	oldArgs := os.Args
	t.Cleanup(func() {
		os.Args = oldArgs
	})
	os.Args = []string{
		"testbin",
		"-a", ":6000",
		"-m", "mongodb://cli:27017",
	}

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.RunAddr) // CLI > ENV > JSON
	assert.Equal(t, "mongodb://cli:27017", cfg.MongoURI)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigEnvOnly(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("GRPC_ADDRESS", "localhost:7001")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.RunAddr)
	assert.Equal(t, "localhost:7001", cfg.GRPCAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.MetricsEnabled)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "bad server address", key: "SERVER_ADDRESS", value: "localhost"},
		{name: "bad mongo uri", key: "MONGO_URI", value: "postgres://localhost"},
		{name: "storage path is a directory", key: "FILE_STORAGE_PATH", value: os.TempDir()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}

func TestConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG", "definitely-missing-config.json")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}
