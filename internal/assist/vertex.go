package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// VertexGenerator generates text with a Vertex AI Gemini model.
type VertexGenerator struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewVertexGenerator creates a client for project in region.
func NewVertexGenerator(ctx context.Context, logger *slog.Logger, project, region, model string) (*VertexGenerator, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if project == "" {
		return nil, errors.New("vertex project is required (llm.project)")
	}
	if model == "" {
		return nil, errors.New("vertex model is required (llm.model)")
	}

	client, err := genai.NewClient(ctx, project, region)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	return &VertexGenerator{client: client, model: model, logger: logger}, nil
}

// Close releases the client.
func (g *VertexGenerator) Close() error {
	err := g.client.Close()
	if err != nil {
		g.logger.Error("vertex client close failed", "error", err)
	}
	return err
}

// Generate implements Generator.
func (g *VertexGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	if strings.TrimSpace(p.User) == "" {
		return "", errors.New("vertex generate request has no content")
	}

	model := g.client.GenerativeModel(g.model)
	if p.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(p.System)},
		}
	}
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return "", fmt.Errorf("vertex generate failed: %w", err)
	}
	text := responseText(resp)
	g.logger.Debug("vertex response", slog.String("model", g.model), slog.Int("chars", len(text)))
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}

var _ Generator = (*VertexGenerator)(nil)
