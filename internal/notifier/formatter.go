package notifier

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"EquityDesk/internal/model"
)

// FormatSubmitted acknowledges a new task.
func FormatSubmitted(rec model.TaskRecord) string {
	return fmt.Sprintf("⏳ Analysis of <b>%s</b> started\nTask: <code>%s</code>",
		html.EscapeString(rec.Ticker), html.EscapeString(rec.TaskID))
}

// FormatTaskReport formats a task record into a Telegram HTML message.
func FormatTaskReport(rec *model.TaskRecord) string {
	var b strings.Builder
	ticker := html.EscapeString(rec.Ticker)

	switch rec.Status {
	case model.StatusError:
		fmt.Fprintf(&b, "❌ <b>%s</b> analysis failed\n\n", ticker)
		fmt.Fprintf(&b, "Cause: %s\n", html.EscapeString(rec.Error))
	case model.StatusComplete:
		if rec.Result == nil || rec.Result.DraftReport == nil {
			fmt.Fprintf(&b, "✅ <b>%s</b> analysis complete\n", ticker)
			break
		}
		d := rec.Result.DraftReport
		fmt.Fprintf(&b, "📊 <b>%s</b> | confidence %s\n\n", ticker, html.EscapeString(string(d.Confidence)))
		fmt.Fprintf(&b, "%s\n\n", html.EscapeString(d.ExecutiveSummary))
		if line := keyIndicators(d.TechnicalIndicators); line != "" {
			fmt.Fprintf(&b, "<b>Indicators:</b> %s\n", line)
		}
		fmt.Fprintf(&b, "<b>Strategy:</b> %s\n", html.EscapeString(d.Strategy))
		if rec.Result.RevisionCount > 0 {
			fmt.Fprintf(&b, "Revisions: %d\n", rec.Result.RevisionCount)
		}
	default:
		fmt.Fprintf(&b, "⏳ <b>%s</b> is %s", ticker, rec.Status)
		if rec.Stage != "" {
			fmt.Fprintf(&b, " (%s)", rec.Stage)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Task: <code>%s</code>", html.EscapeString(rec.TaskID))
	return b.String()
}

// keyIndicators renders the top-level scalar indicators as "name=value" pairs.
func keyIndicators(ind map[string]any) string {
	keys := make([]string, 0, len(ind))
	for k, v := range ind {
		if _, ok := v.(float64); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strconv.FormatFloat(ind[k].(float64), 'f', 2, 64))
	}
	return html.EscapeString(strings.Join(parts, " "))
}
