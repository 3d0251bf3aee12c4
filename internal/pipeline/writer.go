package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/ternarybob/arbor"

	"EquityDesk/internal/drafter"
	"EquityDesk/internal/model"
)

const systemPrompt = "You are a senior investment analyst. Write a professional equity analysis report. " +
	"Never recompute numbers: quote only the values provided."

var userPrompt = template.Must(template.New("user").Parse(`Ticker: {{.Ticker}}

Technical indicators (JSON):
{{.Indicators}}

Latest news (JSON):
{{.News}}
{{if .Feedback}}
Reviewer feedback on your previous draft, fix every point:
{{.Feedback}}
{{end}}
Respond with JSON only, using exactly this structure:
{"executive_summary": "...", "technical_outlook": "...", "risks": "...", "strategy": "...",
 "technical_indicators": <copy the technical indicators JSON above unchanged>}
{{if .Strict}}
Your previous response could not be parsed. Output a single JSON object and nothing else:
no markdown, no code fences, no commentary before or after it.
{{end}}`))

var proseKeys = []string{"executive_summary", "technical_outlook", "risks", "strategy"}

// Writer drafts a report from the analysed state.
type Writer struct {
	drafter drafter.Drafter
	logger  arbor.ILogger
}

// NewWriter creates a Writer backed by d.
func NewWriter(d drafter.Drafter, logger arbor.ILogger) *Writer {
	return &Writer{drafter: d, logger: logger}
}

// Run produces a new draft. A response that does not parse is retried once
// with a stricter formatting instruction; a second failure is fatal.
func (w *Writer) Run(ctx context.Context, s State) (State, error) {
	indicators, err := json.Marshal(s.Indicators)
	if err != nil {
		return s, fmt.Errorf("%w: encode indicators: %v", ErrDraftingFailed, err)
	}

	var draft *model.DraftReport
	for _, strict := range []bool{false, true} {
		p, err := buildPrompt(s, indicators, strict)
		if err != nil {
			return s, fmt.Errorf("%w: %v", ErrDraftingFailed, err)
		}
		text, err := w.drafter.Generate(ctx, p)
		if err != nil {
			return s, fmt.Errorf("%w: %s: %v", ErrDraftingFailed, w.drafter.Name(), err)
		}
		draft, err = parseDraft(text)
		if err == nil {
			break
		}
		if strict {
			return s, fmt.Errorf("%w: response is not valid JSON: %v", ErrDraftingFailed, err)
		}
		w.logger.Warn().
			Str("ticker", s.Ticker).
			Str("drafter", w.drafter.Name()).
			Err(err).
			Msg("draft did not parse, retrying with strict formatting")
	}

	s.Draft = draft
	return s, nil
}

func buildPrompt(s State, indicators []byte, strict bool) (drafter.Prompt, error) {
	news := s.News
	if news == nil {
		news = []model.NewsItem{}
	}
	newsJSON, err := json.Marshal(news)
	if err != nil {
		return drafter.Prompt{}, err
	}

	var buf bytes.Buffer
	err = userPrompt.Execute(&buf, map[string]any{
		"Ticker":     s.Ticker,
		"Indicators": string(indicators),
		"News":       string(newsJSON),
		"Feedback":   s.CriticFeedback,
		"Strict":     strict,
	})
	if err != nil {
		return drafter.Prompt{}, err
	}
	return drafter.Prompt{
		System: systemPrompt,
		User:   buf.String(),
		Data: drafter.PromptData{
			Ticker:     s.Ticker,
			Indicators: indicators,
			News:       news,
			Feedback:   s.CriticFeedback,
			Strict:     strict,
		},
	}, nil
}

// parseDraft extracts the outermost JSON object from text. Prose fields may
// be strings or arrays of strings; any other shape is left empty for the
// critic to flag. A confidence from the drafter is discarded.
func parseDraft(text string) (*model.DraftReport, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in response")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, err
	}

	prose := make(map[string]string, len(proseKeys))
	for _, k := range proseKeys {
		prose[k] = proseField(raw[k])
	}
	d := &model.DraftReport{
		ExecutiveSummary: prose["executive_summary"],
		TechnicalOutlook: prose["technical_outlook"],
		Risks:            prose["risks"],
		Strategy:         prose["strategy"],
	}
	if ti, ok := raw["technical_indicators"]; ok {
		var m map[string]any
		if err := json.Unmarshal(ti, &m); err == nil {
			d.TechnicalIndicators = m
		}
	}
	return d, nil
}

func proseField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var parts []string
	if err := json.Unmarshal(raw, &parts); err == nil {
		return strings.TrimSpace(strings.Join(parts, "\n"))
	}
	return ""
}
