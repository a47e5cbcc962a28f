package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/intervue/internal/models"
)

func newTestOpenAICompat(t *testing.T, handler http.HandlerFunc) *OpenAICompat {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAICompat(OpenAICompatConfig{APIKey: "test-key", BaseURL: server.URL + "/v1/", Model: "llama-3.1-8b-instant"})
	require.NoError(t, err)
	return p
}

func TestOpenAICompat_Complete(t *testing.T) {
	var got openai.ChatCompletionRequest
	p := newTestOpenAICompat(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "llama-3.1-8b-instant",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "  {\"action\":\"proceed\"}\n"},
				"finish_reason": "stop",
			}},
		})
	})

	reply, err := p.Complete(context.Background(), []models.Message{
		{Role: models.RoleSystem, Content: "sys"},
		{Role: models.RoleAssistant, Content: "Q1"},
		{Role: models.RoleUser, Content: "A1"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"action":"proceed"}`, reply)

	require.Len(t, got.Messages, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, got.Messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[2].Role)
	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
}

func TestOpenAICompat_ClientErrorIsPermanent(t *testing.T) {
	p := newTestOpenAICompat(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "bad key", "type": "invalid_request_error"},
		})
	})

	_, err := p.Complete(context.Background(), []models.Message{{Role: models.RoleUser, Content: "hi"}})
	require.Error(t, err)

	var ce *ErrClient
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusUnauthorized, ce.Status)
	assert.False(t, retryable(err))
}

func TestNewOpenAICompat_Validation(t *testing.T) {
	_, err := NewOpenAICompat(OpenAICompatConfig{Model: "m"})
	assert.Error(t, err)
	_, err = NewOpenAICompat(OpenAICompatConfig{APIKey: "k"})
	assert.Error(t, err)
}
