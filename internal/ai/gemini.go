package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider generates through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) StreamGenerate(ctx context.Context, prompt Prompt, onChunk func(chunk string) error) error {
	contents := make([]*genai.Content, 0, len(prompt.History)+1)
	for _, turn := range prompt.History {
		role := genai.RoleUser
		if turn.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(prompt.UserText, genai.RoleUser))

	var cfg *genai.GenerateContentConfig
	if prompt.SystemPrompt != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt.SystemPrompt, genai.RoleUser),
		}
	}

	for resp, err := range p.client.Models.GenerateContentStream(ctx, prompt.Model, contents, cfg) {
		if err != nil {
			return fmt.Errorf("gemini stream failed: %w", err)
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		if err := onChunk(text); err != nil {
			return err
		}
	}
	return nil
}
