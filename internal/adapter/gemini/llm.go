package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// LLM wraps a Gemini generative model for prompt-in, text-out completion.
type LLM struct {
	client *genai.Client
	model  string
}

func NewLLM(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*LLM, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{client: client, model: model}, nil
}

func (l *LLM) Close() error {
	return l.client.Close()
}

// Generate runs a single completion and returns the concatenated text parts
// of the first candidate.
func (l *LLM) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	slog.DebugContext(ctx, "generating content", "model", l.model, "prompt_length", len(prompt))

	gm := l.client.GenerativeModel(l.model)
	gm.SetTemperature(temperature)

	res, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "error", err)
		return "", err
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}
