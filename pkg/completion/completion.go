// Package completion turns free-text handover periods ("Q4 2027",
// "March 2026", "2029") into approximate dates.
package completion

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	quarterRe   = regexp.MustCompile(`(?i)Q([1-4])\s*(\d{4})`)
	monthYearRe = regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December)\s*(\d{4})`)
	yearRe      = regexp.MustCompile(`(\d{4})`)
)

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// Parse resolves the first matching format in precedence order:
// quarter+year, month+year, bare year. Quarters and months resolve to the
// 28th of the (last) month; a bare year to 31 December.
func Parse(text string) (time.Time, bool) {
	if m := quarterRe.FindStringSubmatch(text); m != nil {
		q, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		return time.Date(year, time.Month(q*3), 28, 0, 0, 0, 0, time.UTC), true
	}
	if m := monthYearRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[2])
		return time.Date(year, months[strings.ToLower(m[1])], 28, 0, 0, 0, 0, time.UTC), true
	}
	if m := yearRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// Until counts 30-day months from now to date, rounded.
func Until(now, date time.Time) int {
	days := date.Sub(now).Hours() / 24
	return int(math.Round(days / 30))
}

// Hint renders the timing sentence for the risk prompt, or "" when the
// text does not parse or the date is not in the future.
func Hint(text string, now time.Time) string {
	date, ok := Parse(text)
	if !ok || !date.After(now) {
		return ""
	}
	total := Until(now, date)
	return fmt.Sprintf("Time until completion: approximately %d year(s) and %d month(s) (%d months total).",
		total/12, total%12, total)
}
