package turn

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yoockh/intervue/internal/models"
)

func TestParseQuestions(t *testing.T) {
	text := "```\nignored\n```\n1. What is a goroutine?\n2) How do channels\nblock?\n- Explain context cancellation\n3 - Describe a mutex"

	assert.Equal(t, []string{
		"What is a goroutine?",
		"How do channels block?",
		"Explain context cancellation",
		"Describe a mutex",
	}, ParseQuestions(text))
	assert.Empty(t, ParseQuestions("   "))
}

func TestQuestionGenerator_Generate(t *testing.T) {
	meta := models.RoleMeta{Company: "Acme", Position: "Backend Engineer", Description: "Go services"}
	settings := models.Settings{NumQuestions: 2, Difficulty: "hard"}

	t.Run("json reply", func(t *testing.T) {
		m := &fakeModel{replies: []string{`Here: {"questions": [" Q one ", "Q two", "Q three"]}`}}
		qs := NewQuestionGenerator(m, time.Second, nil).Generate(context.Background(), "sys", meta, settings)

		assert.Equal(t, []string{"Q one", "Q two"}, qs)
		prompt := m.calls[0][1].Content
		assert.Contains(t, prompt, "Generate 2 hard-difficulty")
		assert.Contains(t, prompt, "Backend Engineer at Acme")
	})

	t.Run("plain list reply", func(t *testing.T) {
		m := &fakeModel{replies: []string{"1. First?\n2. Second?"}}
		qs := NewQuestionGenerator(m, time.Second, nil).Generate(context.Background(), "sys", meta, models.Settings{})
		assert.Equal(t, []string{"First?", "Second?"}, qs)
	})

	t.Run("model failure uses defaults", func(t *testing.T) {
		qs := NewQuestionGenerator(failingModel(), time.Second, nil).Generate(context.Background(), "sys", meta, models.Settings{NumQuestions: 5})
		assert.Equal(t, DefaultQuestions, qs)

		qs[0] = "mutated"
		assert.NotEqual(t, "mutated", DefaultQuestions[0])
	})
}

func TestBuildSystemPrompt(t *testing.T) {
	p := BuildSystemPrompt(
		models.RoleMeta{Company: "Acme", Position: "SRE", Description: "Run things"},
		models.Settings{NumQuestions: 3, Difficulty: "easy", Mode: "voice"},
	)
	assert.True(t, strings.HasPrefix(p, "You are an expert technical interviewer for the role of SRE at Acme."))
	assert.Contains(t, p, "Requirements: None specified.")
	assert.Contains(t, p, "Candidate background: No resume provided.")
	assert.Contains(t, p, "Interview settings: 3 questions, difficulty=easy, mode=voice")
	assert.True(t, IsCompletion("That concludes our interview."))
	assert.False(t, IsCompletion("Next question please."))
}
