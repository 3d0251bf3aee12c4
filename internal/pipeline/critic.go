package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"EquityDesk/internal/model"
)

// Critic defaults.
const (
	DefaultEpsilon      = 1e-6
	DefaultMaxRevisions = 2
)

// Verdict is the Critic's routing decision.
type Verdict int

const (
	// VerdictAccept ends the loop with a valid draft.
	VerdictAccept Verdict = iota
	// VerdictRevise sends the draft back to the Writer with feedback.
	VerdictRevise
	// VerdictForceAccept ends the loop at the revision cap with Low confidence.
	VerdictForceAccept
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccept:
		return "accept"
	case VerdictRevise:
		return "revise"
	case VerdictForceAccept:
		return "force_accept"
	}
	return "unknown"
}

// Review is the outcome of checking one draft.
type Review struct {
	Valid  bool
	Errors []string
}

// Critic checks a draft for completeness and for numeric parity with the
// computed indicators.
type Critic struct {
	epsilon      float64
	maxRevisions int
	validate     *validator.Validate
}

// NewCritic creates a Critic. A non-positive epsilon or negative revision
// count selects the default; the revision count is capped by the draft ceiling.
func NewCritic(epsilon float64, maxRevisions int) *Critic {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	if maxRevisions < 0 {
		maxRevisions = DefaultMaxRevisions
	}
	if maxRevisions > maxDrafts-1 {
		maxRevisions = maxDrafts - 1
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Critic{epsilon: epsilon, maxRevisions: maxRevisions, validate: v}
}

// MaxRevisions is the number of Writer re-invocations allowed.
func (c *Critic) MaxRevisions() int { return c.maxRevisions }

// Run reviews s.Draft and returns the updated state and the routing decision.
// The draft is copied before confidence is set.
func (c *Critic) Run(s State) (State, Verdict) {
	review := c.Review(s.Draft, &s.Indicators)

	var draft model.DraftReport
	if s.Draft != nil {
		draft = *s.Draft
	}

	if review.Valid {
		draft.Confidence = confidenceFor(&s)
		s.Draft = &draft
		s.CriticFeedback = ""
		return s, VerdictAccept
	}

	s.CriticFeedback = strings.Join(review.Errors, "; ")
	if s.RevisionCount >= c.maxRevisions {
		draft.Confidence = model.ConfidenceLow
		s.Draft = &draft
		return s, VerdictForceAccept
	}
	s.RevisionCount++
	return s, VerdictRevise
}

// Review checks required keys and compares every quoted indicator value.
func (c *Critic) Review(draft *model.DraftReport, ind *model.Indicators) Review {
	if draft == nil {
		return Review{Errors: []string{"no draft produced"}}
	}
	var errs []string

	if err := c.validate.Struct(draft); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
			sort.Strings(missing)
			errs = append(errs, "missing or empty keys: "+strings.Join(missing, ", "))
		} else {
			errs = append(errs, err.Error())
		}
	}

	if draft.TechnicalIndicators != nil {
		errs = append(errs, c.compare(draft.TechnicalIndicators, ind)...)
	}
	return Review{Valid: len(errs) == 0, Errors: errs}
}

func (c *Critic) compare(quoted map[string]any, ind *model.Indicators) []string {
	want := flatten(indicatorMap(ind))
	got := flatten(quoted)

	paths := make([]string, 0, len(want)+len(got))
	for p := range want {
		paths = append(paths, p)
	}
	for p := range got {
		if _, ok := want[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var errs []string
	for _, p := range paths {
		w, inWant := want[p]
		g, inGot := got[p]
		field := "technical_indicators." + p
		switch {
		case !inGot:
			errs = append(errs, fmt.Sprintf("%s: missing, expected %s", field, formatValue(w)))
		case !inWant:
			errs = append(errs, fmt.Sprintf("%s: not a computed indicator, remove it", field))
		case !c.equal(w, g):
			errs = append(errs, fmt.Sprintf("%s: expected %s, got %s", field, formatValue(w), formatValue(g)))
		}
	}
	return errs
}

// equal compares leaves: integers exactly, other numbers within epsilon,
// strings and booleans exactly.
func (c *Critic) equal(want, got any) bool {
	switch w := want.(type) {
	case float64:
		g, ok := got.(float64)
		if !ok {
			return false
		}
		if w == math.Trunc(w) && math.Abs(w) < 1e15 {
			return g == w
		}
		return math.Abs(g-w) <= c.epsilon
	default:
		return reflect.DeepEqual(want, got)
	}
}

func confidenceFor(s *State) model.Confidence {
	if s.Indicators.Complete() && len(s.News) > 0 {
		return model.ConfidenceHigh
	}
	return model.ConfidenceMedium
}

// indicatorMap renders the bundle in the same decoded-JSON shape a draft uses.
func indicatorMap(ind *model.Indicators) map[string]any {
	b, err := json.Marshal(ind)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// flatten maps dotted paths to leaf values. Null leaves are dropped.
func flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		switch t := v.(type) {
		case nil:
		case map[string]any:
			for k, child := range t {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(key, child)
			}
		default:
			out[prefix] = t
		}
	}
	walk("", m)
	return out
}

func formatValue(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return strconv.Quote(t)
	}
	b, _ := json.Marshal(v)
	return string(b)
}
