package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/intervue/internal/models"
)

func TestRedisQuestionCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewRedisQuestionCache(rdb)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "questions:missing")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "questions:k", []string{"Q1", "Q2"}, time.Hour))
	qs, hit, err := c.Get(ctx, "questions:k")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"Q1", "Q2"}, qs)

	mr.FastForward(2 * time.Hour)
	_, hit, _ = c.Get(ctx, "questions:k")
	assert.False(t, hit)

	require.NoError(t, mr.Set("questions:bad", "{not json"))
	_, hit, err = c.Get(ctx, "questions:bad")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, mr.Exists("questions:bad"))
}

func TestQuestionSetKey(t *testing.T) {
	meta := models.RoleMeta{Company: "Acme", Position: "SRE", Description: "d"}
	s := models.Settings{NumQuestions: 5, Difficulty: "medium"}

	k1 := QuestionSetKey(meta, s)
	k2 := QuestionSetKey(models.RoleMeta{Company: " acme ", Position: "sre", Description: "d"}, s)
	assert.Equal(t, k1, k2)

	meta.ResumeText = "ten years of Go"
	assert.NotEqual(t, k1, QuestionSetKey(meta, s))

	s.NumQuestions = 6
	assert.NotEqual(t, k1, QuestionSetKey(models.RoleMeta{Company: "Acme", Position: "SRE", Description: "d"}, s))
}
