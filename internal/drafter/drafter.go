// Package drafter turns a structured analysis prompt into report text
// using a text-generation provider.
package drafter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"EquityDesk/internal/model"
)

// ProviderType names a drafting backend.
type ProviderType string

const (
	ProviderClaude   ProviderType = "claude"
	ProviderGemini   ProviderType = "gemini"
	ProviderTemplate ProviderType = "template"
)

// Prompt is the input to a Drafter. System and User carry the rendered
// instructions; Data is the structured payload they were rendered from.
type Prompt struct {
	System string
	User   string
	Data   PromptData
}

// PromptData is the structured content of a drafting request.
type PromptData struct {
	Ticker     string
	Indicators json.RawMessage
	News       []model.NewsItem
	Feedback   string
	Strict     bool
}

// Drafter generates report text for a prompt.
type Drafter interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	Name() string
}

// Config selects and configures a provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// New creates the Drafter named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Drafter, error) {
	switch ProviderType(strings.ToLower(cfg.Provider)) {
	case ProviderClaude:
		return NewClaudeDrafter(cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature), nil
	case ProviderGemini:
		return NewGeminiDrafter(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	case ProviderTemplate, "":
		return NewTemplateDrafter(), nil
	}
	return nil, fmt.Errorf("unknown drafter provider %q", cfg.Provider)
}
