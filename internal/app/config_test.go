package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/fulltheme-backend/internal/llm"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := LoadConfig(logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGemini, cfg.LLM.DefaultProvider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.DefaultModel)
	assert.Equal(t, 4000, cfg.Chunking.Size)
	assert.Equal(t, 150, cfg.Chunking.Overlap)
	assert.Equal(t, 15, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.RateLimit.BaseDelay)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  cors_origins: ["https://app.example.org"]
database:
  driver: sqlite
  sqlite_path: /tmp/fulltheme.db
llm:
  default_provider: openai
  default_model: gpt-4o-mini
  refine_concurrency: 4
chunking:
  size: 2000
  overlap: 100
rate_limit:
  base_delay: 2s
  max_delay: 30s
  max_attempts: 5
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RATE_LIMIT_MAX_ATTEMPTS", "7")
	t.Setenv("PORT", "9100")
	t.Setenv("CORS_ORIGINS", "https://a.example.org, https://b.example.org")

	cfg, err := LoadConfig(logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/fulltheme.db", cfg.dbConfig().SQLitePath)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.DefaultProvider)
	assert.Equal(t, 4, cfg.LLM.RefineConcurrency)
	assert.Equal(t, 2000, cfg.Chunking.Size)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.MaxDelay)
	assert.Equal(t, 7, cfg.RateLimit.MaxAttempts)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHUNK_OVERLAP", "5000")
	_, err := LoadConfig(logger.Nop())
	assert.Error(t, err)

	t.Setenv("CHUNK_OVERLAP", "")
	t.Setenv("LLM_DEFAULT_PROVIDER", "anthropic")
	_, err = LoadConfig(logger.Nop())
	assert.Error(t, err)

	t.Setenv("LLM_DEFAULT_PROVIDER", "")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = LoadConfig(logger.Nop())
	assert.Error(t, err)
}
