package drafter

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-20250514"
	defaultClaudeMaxTokens = 4096
)

// ClaudeDrafter generates drafts with the Anthropic Messages API.
type ClaudeDrafter struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewClaudeDrafter creates a Claude-backed drafter. Extra request options
// (base URL, retries) are passed through to the SDK client.
func NewClaudeDrafter(apiKey, model string, maxTokens int, temperature float64, opts ...option.RequestOption) *ClaudeDrafter {
	if model == "" {
		model = defaultClaudeModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &ClaudeDrafter{
		client:      anthropic.NewClient(clientOpts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (d *ClaudeDrafter) Name() string { return string(ProviderClaude) }

// Generate sends the prompt as a single user turn and concatenates the text blocks of the reply.
func (d *ClaudeDrafter) Generate(ctx context.Context, p Prompt) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(d.model),
		MaxTokens: int64(d.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(p.User)),
		},
	}
	if d.temperature > 0 {
		params.Temperature = anthropic.Float(d.temperature)
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: p.System},
		}
	}

	resp, err := d.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}
	return text.String(), nil
}
