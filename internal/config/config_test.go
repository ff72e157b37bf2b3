package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecretsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := SecretsDir
	SecretsDir = dir
	t.Cleanup(func() { SecretsDir = prev })
	return dir
}

func TestLoad_DefaultsAndSecretFile(t *testing.T) {
	dir := withSecretsDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ai_api_key"), []byte(" sk-test \n"), 0o600))
	t.Setenv("AI_MODEL", "test-model")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "test-model", cfg.AI.Model)
	assert.Equal(t, "openai", cfg.AI.ClientType)
	assert.Equal(t, 120*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "16:9", cfg.ImageServer.Ratio)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.Notify.RedisURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvFallbackForSecret(t *testing.T) {
	withSecretsDir(t)
	t.Setenv("AI_API_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AI.APIKey)
}

func TestLoad_MissingKey(t *testing.T) {
	withSecretsDir(t)
	t.Setenv("AI_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)

	// Локальной ollama ключ не нужен
	t.Setenv("AI_CLIENT_TYPE", "ollama")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestValidate_UnknownClient(t *testing.T) {
	withSecretsDir(t)
	t.Setenv("AI_API_KEY", "k")
	t.Setenv("AI_CLIENT_TYPE", "anthropic")

	_, err := Load()
	assert.ErrorContains(t, err, "unsupported AI_CLIENT_TYPE")
}
