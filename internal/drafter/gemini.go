package drafter

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiDrafter generates drafts with the Gemini API in JSON response mode.
type GeminiDrafter struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiDrafter creates a Gemini-backed drafter.
func NewGeminiDrafter(ctx context.Context, apiKey, model string, temperature float64) (*GeminiDrafter, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiDrafter{
		client:      client,
		model:       model,
		temperature: float32(temperature),
	}, nil
}

func (d *GeminiDrafter) Name() string { return string(ProviderGemini) }

// Generate requests a JSON response for the prompt.
func (d *GeminiDrafter) Generate(ctx context.Context, p Prompt) (string, error) {
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(p.User)},
	}}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(d.temperature),
		ResponseMIMEType: "application/json",
	}
	if p.System != "" {
		config.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	resp, err := d.client.Models.GenerateContent(ctx, d.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return text, nil
}
