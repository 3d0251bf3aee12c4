package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// periodStart converts a range code ("5d", "6mo", "1y", "ytd", "max") into
// the first date it covers. "max" returns the zero time.
func periodStart(period string, now time.Time) (time.Time, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	switch p {
	case "max":
		return time.Time{}, nil
	case "ytd":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), nil
	}

	unitStart := strings.IndexFunc(p, func(r rune) bool { return r < '0' || r > '9' })
	if unitStart <= 0 {
		return time.Time{}, fmt.Errorf("invalid period %q", period)
	}
	n, err := strconv.Atoi(p[:unitStart])
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid period %q", period)
	}
	switch p[unitStart:] {
	case "d":
		return now.AddDate(0, 0, -n), nil
	case "wk":
		return now.AddDate(0, 0, -7*n), nil
	case "mo":
		return now.AddDate(0, -n, 0), nil
	case "y":
		return now.AddDate(-n, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("invalid period %q", period)
}

// eodPeriod maps an interval code onto the EOD API's d/w/m periods.
func eodPeriod(interval string) (string, error) {
	switch strings.ToLower(interval) {
	case "", "1d":
		return "d", nil
	case "1wk", "1w":
		return "w", nil
	case "1mo", "1m":
		return "m", nil
	}
	return "", fmt.Errorf("interval %q not supported by end-of-day data", interval)
}
