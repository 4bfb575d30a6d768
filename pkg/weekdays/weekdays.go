// Package weekdays is the single place where weekday names and numbers are converted.
//
// Visit-day sets are stored as lowercase English names ("monday".."sunday").
// Numeric day-of-week values use time.Weekday numbering (Sunday=0..Saturday=6).
// The scheduling week starts on Monday.
package weekdays

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

// DateLayout is the day-granularity format used for date keys and API dates.
const DateLayout = "2006-01-02"

var names = [7]string{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Name returns the lowercase name of d.
func Name(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return names[d]
}

// Title returns the capitalized day name, e.g. "Monday".
func Title(d time.Weekday) string {
	return d.String()
}

// Parse converts a day name (any case, full or three-letter) into a time.Weekday.
func Parse(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, full := range names {
		if n == full || (len(n) == 3 && strings.HasPrefix(full, n)) {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// FromDate returns the lowercase day name of t.
func FromDate(t time.Time) string {
	return Name(t.Weekday())
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Key formats t as a YYYY-MM-DD string.
func Key(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// WeekStart returns Monday 00:00 UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	day := Day(t)
	sinceMonday := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -sinceMonday)
}

// Normalize lowercases, validates and dedupes a set of day names.
// The result is ordered Monday first.
func Normalize(days []string) ([]string, error) {
	seen := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		if strings.TrimSpace(d) == "" {
			continue
		}
		wd, err := Parse(d)
		if err != nil {
			return nil, err
		}
		seen[wd] = true
	}

	result := make([]string, 0, len(seen))
	for wd := range seen {
		result = append(result, Name(wd))
	}
	sortMondayFirst(result)
	return result, nil
}

// Set builds a membership set from day names. Unknown names are ignored.
func Set(days []string) map[string]bool {
	set := make(map[string]bool, len(days))
	for _, d := range days {
		if wd, err := Parse(d); err == nil {
			set[Name(wd)] = true
		}
	}
	return set
}

func sortMondayFirst(days []string) {
	order := func(name string) int {
		wd, _ := Parse(name)
		return (int(wd) + 6) % 7
	}
	sort.Slice(days, func(i, j int) bool { return order(days[i]) < order(days[j]) })
}
