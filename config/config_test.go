package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "groq", cfg.LLMProvider)
	assert.Equal(t, "intervue", cfg.MongoDB)
	assert.Equal(t, 12, cfg.DecisionWindow)
	assert.Equal(t, 30, cfg.ShortAnswerThreshold)
	assert.Equal(t, 30*time.Second, cfg.LLMCallTimeout)
	assert.Equal(t, "analysis:stream", cfg.AnalysisStream)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "vertex")
	t.Setenv("LLM_CALL_TIMEOUT", "5s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("STT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "vertex", cfg.LLMProvider)
	assert.Equal(t, 5*time.Second, cfg.LLMCallTimeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisTarget())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.WSAllowedOrigins)
	assert.True(t, cfg.STTEnabled)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_TTL", "forever")
	_, err := Load()
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	_, err := NewRedisClient(Config{})
	assert.Error(t, err)

	rdb, err := NewRedisClient(Config{RedisURI: "redis://:pw@localhost:6380/2"})
	require.NoError(t, err)
	defer rdb.Close()
	assert.Equal(t, "localhost:6380", rdb.Options().Addr)
	assert.Equal(t, 2, rdb.Options().DB)
}

func TestInterviewIndexes(t *testing.T) {
	idx := InterviewIndexes()
	require.Len(t, idx, 2)
	assert.Equal(t, "by_owner_created", *idx[0].Options.Name)
}
