package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unset clears keys for the duration of the test.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	unset(t, "PORT", "BOT_NAME", "TIMEZONE", "MONGODB_DATABASE", "OPENAI_MODEL", "OPENAI_API_KEY",
		"ZAPI_INSTANCE_ID", "ZAPI_TOKEN", "S3_BUCKET")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "Mia", cfg.Server.BotName)
	assert.Equal(t, "America/New_York", cfg.Server.Timezone)
	assert.Equal(t, "mia_database", cfg.Mongo.Database)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.False(t, cfg.Gateway.Configured())
	assert.False(t, cfg.S3Config.Configured())
	assert.Len(t, cfg.Warnings(), 3)
}

func TestFromEnvRequiresMongoURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "MONGODB_URI")
}

func TestGatewaySendTextURL(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("ZAPI_BASE_URL", "https://api.z-api.io/")
	t.Setenv("ZAPI_INSTANCE_ID", "INST")
	t.Setenv("ZAPI_TOKEN", "TOK")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Gateway.Configured())
	assert.Equal(t, "https://api.z-api.io/instances/INST/token/TOK/send-text", cfg.Gateway.SendTextURL())
}
