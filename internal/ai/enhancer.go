package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"talent-match-platform/internal/config"

	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// Enhancer optionally rewrites a template explanation through a
// generative model. It is an external collaborator: every error path must
// leave the caller free to fall back to the deterministic template.
type Enhancer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewEnhancer(cfg *config.Config) (*Enhancer, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create enhancer client: %w", err)
	}

	return &Enhancer{
		client:  client,
		model:   cfg.GeminiModel,
		timeout: 15 * time.Second,
	}, nil
}

// Enhance asks the model to polish a match rationale. The returned error
// signals the caller to keep the template text.
func (en *Enhancer) Enhance(ctx context.Context, jobTitle, candidateName, template string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, en.timeout)
	defer cancel()

	model := en.client.GenerativeModel(en.model)
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(512)

	prompt := fmt.Sprintf(
		"Rewrite the following recruiting match rationale for the %s position (candidate: %s) as one concise professional paragraph. Keep every skill name and the overall assessment unchanged.\n\n%s",
		jobTitle, candidateName, template)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("empty enhancement response")
	}
	return out, nil
}

// Close releases the underlying client.
func (en *Enhancer) Close() error {
	if en.client != nil {
		return en.client.Close()
	}
	return nil
}
