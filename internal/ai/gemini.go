package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-2.0-flash"

var ErrEmptyResponse = errors.New("no response candidates from Gemini")

// GeminiProvider implements Generator using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiProvider initializes a new Gemini client. An empty modelName
// selects DefaultGeminiModel.
func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.4)
	model.SetMaxOutputTokens(160)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return text.String(), nil
}
