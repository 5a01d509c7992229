package configs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmikell/urlapi/internal/app/configs"
)

func writeConfigFile(t *testing.T, name, data string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

func TestParseArgsDefaults(t *testing.T) {
	config, err := configs.ParseArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", config.ServerAddress)
	assert.Equal(t, "urls", config.TableName)
	assert.Equal(t, 100, config.ScanPageSize)
	assert.True(t, config.UseDynamoStorage())
	assert.False(t, config.UseHTTPS())
}

func TestParseArgsPrecedence(t *testing.T) {
	path := writeConfigFile(t, "config.json",
		`{"server_address": "file:8080", "storage": "memory", "file_storage_path": "/tmp/urls.jsonl",`+
			` "scan_page_size": 25, "max_list_items": 500}`)

	t.Setenv("SCAN_PAGE_SIZE", "50")
	config, err := configs.ParseArgs([]string{"-c", path, "-a", "flag:8080", "-page-size", "10"})
	require.NoError(t, err)

	assert.Equal(t, "flag:8080", config.ServerAddress)
	assert.Equal(t, 50, config.ScanPageSize)
	assert.Equal(t, 500, config.MaxListItems)
	assert.True(t, config.UseMapStorage())
	assert.True(t, config.UseFileStorage())
}

func TestParseArgsYAMLFileFromEnv(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", "storage: postgres\ndatabase_dsn: postgres://localhost/urls\n")
	t.Setenv("CONFIG", path)
	t.Setenv("SERVER_ADDRESS", "env:9090")

	config, err := configs.ParseArgs(nil)
	require.NoError(t, err)

	assert.True(t, config.UseDBStorage())
	assert.Equal(t, "postgres://localhost/urls", config.DatabaseDSN)
	assert.Equal(t, "env:9090", config.ServerAddress)
}

func TestParseArgsValidation(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "unknown storage", args: []string{"-storage", "redis"}},
		{name: "postgres without dsn", args: []string{"-storage", "postgres"}},
		{name: "https without host", args: []string{"-s"}},
		{name: "unknown flag", args: []string{"-nope"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := configs.ParseArgs(tc.args)
			assert.Error(t, err)
		})
	}
}

func TestParseArgsMissingConfigFile(t *testing.T) {
	_, err := configs.ParseArgs([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
