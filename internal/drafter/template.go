package drafter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"EquityDesk/internal/model"
)

// TemplateDrafter renders a report from the prompt's structured data without
// calling any external service. It quotes the indicators verbatim.
type TemplateDrafter struct{}

// NewTemplateDrafter creates an offline drafter.
func NewTemplateDrafter() *TemplateDrafter { return &TemplateDrafter{} }

func (d *TemplateDrafter) Name() string { return string(ProviderTemplate) }

func (d *TemplateDrafter) Generate(_ context.Context, p Prompt) (string, error) {
	var ind model.Indicators
	if len(p.Data.Indicators) > 0 {
		if err := json.Unmarshal(p.Data.Indicators, &ind); err != nil {
			return "", fmt.Errorf("decode indicators: %w", err)
		}
	}
	raw := p.Data.Indicators
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	out := struct {
		ExecutiveSummary    string          `json:"executive_summary"`
		TechnicalOutlook    string          `json:"technical_outlook"`
		Risks               string          `json:"risks"`
		Strategy            string          `json:"strategy"`
		TechnicalIndicators json.RawMessage `json:"technical_indicators"`
	}{
		ExecutiveSummary:    summary(p.Data.Ticker, &ind, p.Data.News),
		TechnicalOutlook:    outlook(&ind),
		Risks:               risks(&ind),
		Strategy:            strategy(&ind),
		TechnicalIndicators: raw,
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func summary(ticker string, ind *model.Indicators, news []model.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", ticker)
	switch ind.Signals.Trend {
	case model.TrendUp:
		b.WriteString(" trades in a long-term uptrend with the 50-day average above the 200-day.")
	case model.TrendDown:
		b.WriteString(" trades in a long-term downtrend with the 50-day average below the 200-day.")
	default:
		b.WriteString(" has too little history to establish a long-term trend.")
	}
	if len(news) > 0 {
		fmt.Fprintf(&b, " Latest headline: %q.", news[0].Title)
	} else {
		b.WriteString(" No recent news was available.")
	}
	return b.String()
}

func outlook(ind *model.Indicators) string {
	var parts []string
	if ind.RSI14 != nil {
		parts = append(parts, fmt.Sprintf("RSI(14) is %.2f (%s)", *ind.RSI14, ind.Signals.RSIState))
	}
	if ind.MACD != nil {
		parts = append(parts, fmt.Sprintf("MACD %.4f vs signal %.4f (%s)", ind.MACD.MACD, ind.MACD.Signal, ind.Signals.MACDCross))
	}
	if ind.Bollinger != nil {
		parts = append(parts, fmt.Sprintf("price bands %.2f to %.2f", ind.Bollinger.Lower, ind.Bollinger.Upper))
	}
	if ind.Signals.BullishCrossover {
		parts = append(parts, "a golden cross printed on the latest bar")
	}
	if len(parts) == 0 {
		return "Insufficient price history for a technical reading."
	}
	return strings.Join(parts, "; ") + "."
}

func risks(ind *model.Indicators) string {
	switch ind.Signals.RSIState {
	case model.RSIOverbought:
		return "Momentum is stretched; an overbought RSI raises pullback risk."
	case model.RSIOversold:
		return "Selling pressure is heavy; oversold conditions can persist."
	}
	return "Momentum is neutral; macro and earnings surprises remain the main risks."
}

func strategy(ind *model.Indicators) string {
	if ind.Signals.Trend == model.TrendUp && ind.Signals.MACDCross == model.CrossBullish {
		return "Trend and momentum agree; add on pullbacks toward the 20-day EMA."
	}
	if ind.Signals.Trend == model.TrendDown && ind.Signals.MACDCross == model.CrossBearish {
		return "Trend and momentum are negative; stay defensive until the MACD turns."
	}
	return "Signals are mixed; wait for confirmation before sizing up."
}
