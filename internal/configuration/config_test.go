package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pricewatch/internal/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGetConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
search_api_key = "test-key"
auth_secret_key = "0123456789abcdef0123456789abcdef"
`)
	config, err := GetConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8888", config.ServerAddress)
	assert.Equal(t, "mongodb://localhost:27017", config.DatabaseURI)
	assert.Equal(t, "localhost:6379", config.RedisAddress)
	assert.Equal(t, "https://www.searchapi.io/api/v1/search", config.SearchAPIBaseURL)
	assert.Equal(t, "test-key", config.SearchAPIKey)
	assert.Equal(t, "India", config.DefaultLocation)
	assert.Equal(t, 2*time.Hour, config.PriceCheckInterval)
	assert.Equal(t, logger.LevelInfo, config.LogLevel)
	assert.False(t, config.LogToFile)
	assert.NotNil(t, config.AuthSecretKey)
}

func TestGetConfigFull(t *testing.T) {
	path := writeConfig(t, `
server_address = "0.0.0.0:9000"
database_uri = "mongodb://db:27017"
redis_address = "redis:6379"
search_api_key = "test-key"
default_location = "mumbai"
price_check_interval = "30m"
log_level = "trace"
log_to_file = true
auth_secret_key = "0123456789abcdef0123456789abcdef"
`)
	config, err := GetConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", config.ServerAddress)
	assert.Equal(t, "mumbai", config.DefaultLocation)
	assert.Equal(t, 30*time.Minute, config.PriceCheckInterval)
	assert.Equal(t, logger.LevelTrace, config.LogLevel)
	assert.True(t, config.LogToFile)
}

func TestGetConfigMissingSearchAPIKey(t *testing.T) {
	path := writeConfig(t, `
auth_secret_key = "0123456789abcdef0123456789abcdef"
`)
	_, err := GetConfig(path)
	assert.ErrorContains(t, err, "search_api_key")
}

func TestGetConfigMissingAuthSecretKey(t *testing.T) {
	path := writeConfig(t, `
search_api_key = "test-key"
`)
	_, err := GetConfig(path)
	assert.ErrorContains(t, err, "auth_secret_key")
}

func TestGetConfigIntervalTooShort(t *testing.T) {
	path := writeConfig(t, `
search_api_key = "test-key"
auth_secret_key = "0123456789abcdef0123456789abcdef"
price_check_interval = "5s"
`)
	_, err := GetConfig(path)
	assert.ErrorContains(t, err, "price_check_interval too short")
}

func TestGetConfigBadLogLevel(t *testing.T) {
	path := writeConfig(t, `
search_api_key = "test-key"
auth_secret_key = "0123456789abcdef0123456789abcdef"
log_level = "loud"
`)
	_, err := GetConfig(path)
	assert.Error(t, err)
}

func TestGetConfigMissingFile(t *testing.T) {
	_, err := GetConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
