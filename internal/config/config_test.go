package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "GEMINI_MODEL", "AI_TIMEOUT", "STRICT_ERROR_STATUS", "QDRANT_PORT"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 25*time.Second, cfg.AITimeout)
	assert.Equal(t, 6334, cfg.QdrantPort)
	assert.False(t, cfg.StrictErrorStatus)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("AI_TIMEOUT", "10s")
	t.Setenv("STRICT_ERROR_STATUS", "yes")
	t.Setenv("DB_MAX_CONNS", "42")
	t.Setenv("IDENTITY_CACHE_TTL", "not-a-duration")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.AITimeout)
	assert.True(t, cfg.StrictErrorStatus)
	assert.Equal(t, int32(42), cfg.DBMaxConns)
	assert.Equal(t, time.Minute, cfg.IdentityCacheTTL)
	assert.True(t, cfg.IsProduction())
}

func TestMissingPredictionSettings(t *testing.T) {
	cfg := Config{GeminiAPIKey: "k", SupabaseURL: "https://x.supabase.co"}
	assert.Equal(t, []string{"SUPABASE_SERVICE_ROLE_KEY", "DATABASE_URL"}, cfg.MissingPredictionSettings())

	cfg.SupabaseServiceRoleKey = "s"
	cfg.DatabaseURL = "postgres://localhost/db"
	assert.Empty(t, cfg.MissingPredictionSettings())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("CIBIL_DOTENV_CHECK=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CIBIL_DOTENV_CHECK") })

	used, ok := LoadDotEnv(filepath.Join(dir, "missing.env"), path)

	require.True(t, ok)
	assert.Equal(t, path, used)
	assert.Equal(t, "loaded", os.Getenv("CIBIL_DOTENV_CHECK"))
}
