// Package durafmt parses and renders the human-readable durations used for
// cooldown config values ("1h30m", "2j", "20m").
package durafmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var tokenRe = regexp.MustCompile(`(\d+)([smhdj])`)

// unitSeconds maps a unit letter to its length in seconds. "j" (jour) is the
// legacy day unit and is kept alongside "d".
var unitSeconds = map[string]int{
	"s": 1,
	"m": 60,
	"h": 3600,
	"d": 86400,
	"j": 86400,
}

// Parse converts text like "1h", "20m", "2j 5m" or "3h10m" into seconds.
// Tokens may repeat and combine; unrecognized input is skipped. Returns 0
// when nothing is recognized; callers must treat 0 as invalid for durations.
func Parse(text string) int {
	text = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), " ", "")
	total := 0
	for _, m := range tokenRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		total += n * unitSeconds[m[2]]
	}
	return total
}

// Format renders seconds as the largest applicable unit plus one abbreviated
// subordinate unit, e.g. "2 hours 15m" or "1 day 3h". Presentational only.
func Format(seconds int) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d %s", seconds, plural("second", seconds))
	case seconds < 3600:
		minutes := seconds / 60
		out := fmt.Sprintf("%d %s", minutes, plural("minute", minutes))
		if s := seconds % 60; s > 0 {
			out += fmt.Sprintf(" %ds", s)
		}
		return out
	case seconds < 86400:
		hours := seconds / 3600
		out := fmt.Sprintf("%d %s", hours, plural("hour", hours))
		if m := (seconds % 3600) / 60; m > 0 {
			out += fmt.Sprintf(" %dm", m)
		}
		return out
	default:
		days := seconds / 86400
		out := fmt.Sprintf("%d %s", days, plural("day", days))
		if h := (seconds % 86400) / 3600; h > 0 {
			out += fmt.Sprintf(" %dh", h)
		}
		return out
	}
}

func plural(unit string, n int) string {
	if n > 1 {
		return unit + "s"
	}
	return unit
}
