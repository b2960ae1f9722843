package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Resolved is the outcome of resolving natural-language date/time tokens
// into an absolute timestamp. The Defaulted flags record whether each part
// came from the token or from the fallback policy, so callers (and tests)
// can tell an explicit "hoje às 9h" apart from a bare "hoje".
type Resolved struct {
	At            time.Time
	DateDefaulted bool
	TimeDefaulted bool
}

// Default time of day applied when a message carries a date but no time.
const (
	defaultHour   = 9
	defaultMinute = 0
)

var dateSeparators = regexp.MustCompile(`[-/]`)

var timeSeparators = regexp.MustCompile(`[:hH]`)

// Resolve converts a date token and a time token into an absolute timestamp
// anchored at now. Empty or malformed tokens degrade to defaults (today,
// 09:00) rather than failing, so every caller receives a usable timestamp.
func Resolve(dateToken, timeToken string, now time.Time) Resolved {
	res := Resolved{DateDefaulted: true, TimeDefaulted: true}

	year, month, day := now.Date()

	switch tok := strings.ToLower(strings.TrimSpace(dateToken)); tok {
	case "", "hoje":
		// today; defaulted only when the token was absent
		if tok == "hoje" {
			res.DateDefaulted = false
		}
	case "amanhã", "amanha":
		year, month, day = now.AddDate(0, 0, 1).Date()
		res.DateDefaulted = false
	default:
		if y, m, d, ok := parseNumericDate(tok, now.Year()); ok {
			year, month, day = y, m, d
			res.DateDefaulted = false
		}
	}

	hour, minute := defaultHour, defaultMinute
	if h, m, ok := parseClock(timeToken); ok {
		hour, minute = h, m
		res.TimeDefaulted = false
	}

	res.At = time.Date(year, month, day, hour, minute, 0, 0, now.Location())
	return res
}

// parseNumericDate parses d/m, d/m/yy or d/m/yyyy ("-" also accepted as
// separator). A two-digit year is normalized by adding 2000. Returns ok=false
// for malformed input or impossible calendar dates such as 31/02.
func parseNumericDate(token string, currentYear int) (int, time.Month, int, bool) {
	parts := dateSeparators.Split(token, -1)
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, false
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}

	day, month := nums[0], nums[1]
	year := currentYear
	if len(nums) == 3 {
		year = nums[2]
		if year < 100 {
			year += 2000
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, false
	}

	// Reject dates that don't exist on the calendar (time.Date would
	// silently normalize 31/02 into March).
	candidate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if candidate.Day() != day || candidate.Month() != time.Month(month) {
		return 0, 0, 0, false
	}

	return year, time.Month(month), day, true
}

// parseClock parses "H", "H:MM" or "HhMM" (separator one of ':', 'h', 'H').
func parseClock(token string) (int, int, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, 0, false
	}

	parts := timeSeparators.Split(token, -1)
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}

	minute := 0
	if len(parts) > 1 && parts[1] != "" {
		minute, err = strconv.Atoi(parts[1])
		if err != nil || minute < 0 || minute > 59 {
			return 0, 0, false
		}
	}

	return hour, minute, true
}
