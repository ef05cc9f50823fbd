package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, DefaultServerAddr, c.ServerAddr)
	assert.Equal(t, DefaultRefreshCron, c.RefreshCron)
	assert.Equal(t, []string{"localhost:9092"}, c.KafkaBrokers)
	assert.NotEmpty(t, c.ClientID)
	assert.False(t, c.ChangeFeed)
	assert.NoError(t, c.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBackendAPI, c.BackendAPI)
	assert.Equal(t, DefaultDBDSN, c.DBDSN)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server_addr: ":9000"
backend_api: "https://api.example.com/"
db_type: sqlite
db_dsn: cache.db
refresh_cron: "*/10 * * * *"
log_level: DEBUG
kafka_brokers: ["k1:9092", "k2:9092"]
change_feed: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.ServerAddr)
	assert.Equal(t, "https://api.example.com", c.BackendAPI)
	assert.Equal(t, "cache.db", c.DBDSN)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaBrokers)
	assert.True(t, c.ChangeFeed)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_addr: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SERVER_ADDR":   ":7000",
		"BACKEND_TOKEN": "tok",
		"KAFKA_BROKERS": "a:1, b:2",
		"CLIENT_ID":     "laptop",
		"REFRESH_CRON":  "0 * * * *",
	}
	c := &Config{ServerAddr: ":1"}
	c.applyEnv(func(k string) string { return env[k] })
	c.Normalize()

	assert.Equal(t, ":7000", c.ServerAddr)
	assert.Equal(t, "tok", c.BackendToken)
	assert.Equal(t, []string{"a:1", "b:2"}, c.KafkaBrokers)
	assert.True(t, c.ChangeFeed)
	assert.Equal(t, "laptop", c.ClientID)
	assert.Equal(t, "task_calendar_group-laptop", c.LogChangeGroupID)
	assert.Equal(t, "0 * * * *", c.RefreshCron)
}

func TestNormalize_GroupPerClient(t *testing.T) {
	a, b := Default(), Default()
	assert.NotEqual(t, a.ClientID, b.ClientID)
	assert.NotEqual(t, a.LogChangeGroupID, b.LogChangeGroupID)
	assert.Equal(t, DefaultLogChangeGroupID+"-"+a.ClientID, a.LogChangeGroupID)

	c := &Config{ClientID: "  phone "}
	c.Normalize()
	assert.Equal(t, "phone", c.ClientID)
	assert.Equal(t, "task_calendar_group-phone", c.LogChangeGroupID)

	c = &Config{ClientID: "phone", LogChangeGroupID: "shared"}
	c.Normalize()
	assert.Equal(t, "shared", c.LogChangeGroupID)

	env := map[string]string{"LOG_CHANGE_GROUP_ID": "ops", "CLIENT_ID": "tablet"}
	c = &Config{}
	c.applyEnv(func(k string) string { return env[k] })
	c.Normalize()
	assert.Equal(t, "ops", c.LogChangeGroupID)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.RefreshCron = "every minute"
	assert.Error(t, c.Validate())

	c = Default()
	c.DBType = "postgres"
	assert.Error(t, c.Validate())

	c = Default()
	c.LogLevel = "trace"
	assert.Error(t, c.Validate())

	c = Default()
	c.ChangeFeed = true
	c.KafkaBrokers = nil
	assert.Error(t, c.Validate())
}
