// Package durations parses human-written durations and relative dates.
//
// Two duration grammars are accepted: a unit-suffixed form like "1d5m" or
// "5 hours, 2.5 seconds", and the clock form "H:MM:SS(.fff)" optionally
// preceded by a day count ("2 days, 03:04:05").
package durations

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Matches deltas like "1d5m" or "5 hours, 2.5 seconds".
var dhmsRE = regexp.MustCompile(
	`^\s*` +
		`(?P<negative>-)?` +
		`((?P<days>\d+(\.\d+)?)\s*(d|days?))?` +
		`,?\s*((?P<hours>\d+(\.\d+)?)\s*(h|hours?))?` +
		`,?\s*((?P<minutes>\d+(\.\d+)?)\s*(m|minutes?))?` +
		`,?\s*((?P<seconds>\d+(\.\d+)?)\s*(s|secs?|seconds?))?` +
		`\s*$`)

// Matches the clock form, which attaches a negative sign to days only.
var clockRE = regexp.MustCompile(
	`^\s*` +
		`((?P<days>-?\d+)\s*days?,\s*)?` +
		`(?P<hours>\d?\d):(?P<minutes>\d\d)` +
		`:(?P<seconds>\d\d+(\.\d+)?)` +
		`\s*$`)

func groups(re *regexp.Regexp, s string) map[string]string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	out := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" && m[i] != "" {
			out[name] = m[i]
		}
	}
	return out
}

// Parse converts a duration string in either grammar to a time.Duration.
func Parse(value string) (time.Duration, error) {
	g := groups(dhmsRE, value)
	clock := false
	if g == nil {
		g = groups(clockRE, value)
		clock = true
	}
	if g == nil {
		return 0, fmt.Errorf("unparseable duration: %q", value)
	}

	var total float64
	seen := false
	for name, unit := range map[string]float64{
		"days":    86400,
		"hours":   3600,
		"minutes": 60,
		"seconds": 1,
	} {
		raw, ok := g[name]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable duration: %q: %w", value, err)
		}
		total += v * unit
		seen = true
	}
	if !seen {
		return 0, fmt.Errorf("unparseable duration: %q", value)
	}
	if !clock && g["negative"] != "" {
		total = -total
	}
	return time.Duration(total * float64(time.Second)), nil
}

// MonthsAgo returns the first day of the month the given number of months
// before (or, when negative, after) the month of t.
func MonthsAgo(t time.Time, months int) time.Time {
	year := t.Year()
	month := int(t.Month()) - months
	for month < 1 {
		year--
		month += 12
	}
	for month > 12 {
		year++
		month -= 12
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, t.Location())
}

var daysAgoRE = regexp.MustCompile(`^(\d+) days ago$`)
var monthsAgoRE = regexp.MustCompile(`^(\d+) months ago$`)
var isoDateRE = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)

// ParseDate resolves literal and relative date expressions ("today", "now",
// "yesterday", "N days ago", "N months ago", "YYYY-MM-DD") against now.
func ParseDate(value string, now time.Time) (time.Time, error) {
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	switch value {
	case "today", "now":
		return day(now), nil
	case "yesterday":
		return day(now.AddDate(0, 0, -1)), nil
	}
	if m := daysAgoRE.FindStringSubmatch(value); m != nil {
		n, _ := strconv.Atoi(m[1])
		return day(now.AddDate(0, 0, -n)), nil
	}
	if m := monthsAgoRE.FindStringSubmatch(value); m != nil {
		n, _ := strconv.Atoi(m[1])
		return MonthsAgo(now, n), nil
	}
	if m := isoDateRE.FindStringSubmatch(value); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		dayNum, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || dayNum < 1 || dayNum > 31 {
			return time.Time{}, fmt.Errorf("unparseable date: %q", value)
		}
		return time.Date(year, time.Month(month), dayNum, 0, 0, 0, 0, now.Location()), nil
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", value)
}
