package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"

	"github.com/yoockh/intervue/internal/models"
)

type VertexGemini struct {
	client      *vertexgenai.Client
	modelName   string
	temperature float32
	maxTokens   int32
}

type VertexConfig struct {
	ProjectID   string
	Location    string
	Model       string
	Temperature float32
	MaxTokens   int32
}

func NewVertexGemini(ctx context.Context, cfg VertexConfig) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, cfg.ProjectID, cfg.Location)
	if err != nil {
		return nil, err
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	return &VertexGemini{
		client:      c,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (v *VertexGemini) Name() string { return "vertex:" + v.modelName }

func (v *VertexGemini) Close() error { return v.client.Close() }

// Complete replays the conversation as a chat and streams the reply for the
// final message, joining the text parts.
func (v *VertexGemini) Complete(ctx context.Context, messages []models.Message) (string, error) {
	system, history, last, err := toGenaiChat(messages)
	if err != nil {
		return "", err
	}

	// a fresh model per call keeps SystemInstruction out of shared state
	m := v.client.GenerativeModel(v.modelName)
	if v.temperature > 0 {
		m.SetTemperature(v.temperature)
	}
	if v.maxTokens > 0 {
		m.SetMaxOutputTokens(v.maxTokens)
	}
	if system != "" {
		m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(system)}}
	}

	cs := m.StartChat()
	cs.History = history

	var b strings.Builder
	it := cs.SendMessageStream(ctx, last...)
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", err
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					b.WriteString(string(t))
				}
			}
		}
	}
	return b.String(), nil
}

// toGenaiChat splits messages into a system instruction, the prior history
// (consecutive same-role turns merged) and the parts of the final turn.
func toGenaiChat(messages []models.Message) (string, []*vertexgenai.Content, []vertexgenai.Part, error) {
	var (
		system  []string
		history []*vertexgenai.Content
	)
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		if n := len(history); n > 0 && history[n-1].Role == role {
			history[n-1].Parts = append(history[n-1].Parts, vertexgenai.Text(m.Content))
			continue
		}
		history = append(history, &vertexgenai.Content{Role: role, Parts: []vertexgenai.Part{vertexgenai.Text(m.Content)}})
	}
	if len(history) == 0 {
		return "", nil, nil, errors.New("vertex: no user message to send")
	}

	last := history[len(history)-1]
	return strings.Join(system, "\n\n"), history[:len(history)-1], last.Parts, nil
}
