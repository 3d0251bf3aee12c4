package model

// Confidence is the reviewer-assigned trust level of a report.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// DraftReport is the structured narrative produced by the drafter and
// reviewed by the critic. TechnicalIndicators is kept as decoded JSON so the
// critic can compare exactly what the drafter quoted.
type DraftReport struct {
	ExecutiveSummary    string         `json:"executive_summary" validate:"required"`
	TechnicalOutlook    string         `json:"technical_outlook" validate:"required"`
	Risks               string         `json:"risks" validate:"required"`
	Strategy            string         `json:"strategy" validate:"required"`
	TechnicalIndicators map[string]any `json:"technical_indicators" validate:"required,min=1"`
	Confidence          Confidence     `json:"confidence,omitempty"`
}
