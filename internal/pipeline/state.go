// Package pipeline runs the research, analysis, drafting and review stages
// that turn a ticker into a reviewed report.
package pipeline

import (
	"errors"

	"EquityDesk/internal/model"
)

// ErrDraftingFailed is returned when the drafter cannot produce a parseable report.
var ErrDraftingFailed = errors.New("drafting failed")

// Stage names reported while a task runs.
const (
	StageResearching = "researching"
	StageAnalyzing   = "analyzing"
	StageDrafting    = "drafting"
	StageReviewing   = "reviewing"
)

// State is threaded through the stages. Each stage takes a State value and
// returns an updated copy; only the Writer replaces Draft.
type State struct {
	Ticker         string
	OHLCV          []model.OHLCV
	Indicators     model.Indicators
	News           []model.NewsItem
	Draft          *model.DraftReport
	CriticFeedback string
	RevisionCount  int
}
