package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// isoLayout is the timestamp shape the backend stores.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// generalLayouts are tried before the day/month pattern. Only layouts that
// cannot confuse day and month belong here.
var generalLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Monday, January 2, 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
	time.RFC1123Z,
}

var dayMonthYear = regexp.MustCompile(`^(\d{1,2})[/.\- ](\d{1,2})[/.\- ](\d{4}|\d{2})(?:[ T,]+(\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)

var spaces = regexp.MustCompile(`\s+`)

// ParseDate reads a date in any of the accepted shapes and returns it in
// UTC. Numeric dates are read day first; when the month slot holds a value
// above 12 and the day slot does not, the two are swapped.
func ParseDate(raw string) (time.Time, bool) {
	s := spaces.ReplaceAllString(clean(raw), " ")
	if s == "" {
		return time.Time{}, false
	}
	// OCR renders the time colon as an asterisk.
	s = strings.ReplaceAll(s, "*", ":")

	for _, layout := range generalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	m := dayMonthYear.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}
	if month > 12 && day <= 12 {
		day, month = month, day
	}

	var hour, minute, second int
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		if m[6] != "" {
			second, _ = strconv.Atoi(m[6])
		}
	}
	if month < 1 || month > 12 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// DateOrNow parses raw and substitutes now when parsing fails. This is the
// silent fallback applied to secondary date fields at save time; the
// receipt Date field is blocked by the review gate instead.
func DateOrNow(raw string, now time.Time) time.Time {
	if t, ok := ParseDate(raw); ok {
		return t
	}
	return now.UTC()
}

// ISO renders t the way the backend stores timestamps.
func ISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// FormatDate renders a raw date field for display, leaving unparseable
// input untouched.
func FormatDate(raw string) string {
	if t, ok := ParseDate(raw); ok {
		return ISO(t)
	}
	return strings.TrimSpace(raw)
}
