package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	m.SetTemperature(0.7)
	m.SetMaxOutputTokens(1000)

	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages")
	}

	model := *v.model
	var history []*vertexgenai.Content
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			model.SystemInstruction = &vertexgenai.Content{
				Parts: []vertexgenai.Part{vertexgenai.Text(msg.Content)},
			}
		case RoleAssistant:
			history = append(history, &vertexgenai.Content{
				Role:  "model",
				Parts: []vertexgenai.Part{vertexgenai.Text(msg.Content)},
			})
		default:
			history = append(history, &vertexgenai.Content{
				Role:  "user",
				Parts: []vertexgenai.Part{vertexgenai.Text(msg.Content)},
			})
		}
	}
	if len(history) == 0 {
		return "", errors.New("no user message")
	}

	last := history[len(history)-1]
	cs := model.StartChat()
	cs.History = history[:len(history)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", err
	}

	var b strings.Builder
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
	return b.String(), nil
}
