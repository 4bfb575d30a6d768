package weekdays

import (
	"fmt"
	"strings"
	"time"
)

var tokenDays = map[string]time.Weekday{
	"M": time.Monday, "MO": time.Monday, "MON": time.Monday, "MONDAY": time.Monday,
	"T": time.Tuesday, "TU": time.Tuesday, "TUE": time.Tuesday, "TUES": time.Tuesday, "TUESDAY": time.Tuesday,
	"W": time.Wednesday, "WE": time.Wednesday, "WED": time.Wednesday, "WEDNESDAY": time.Wednesday,
	"TH": time.Thursday, "R": time.Thursday, "THU": time.Thursday, "THUR": time.Thursday, "THURS": time.Thursday, "THURSDAY": time.Thursday,
	"F": time.Friday, "FR": time.Friday, "FRI": time.Friday, "FRIDAY": time.Friday,
	"S": time.Saturday, "SA": time.Saturday, "SAT": time.Saturday, "SATURDAY": time.Saturday,
	"SU": time.Sunday, "SUN": time.Sunday, "SUNDAY": time.Sunday,
}

// ParseShorthand turns office shorthand for a visit pattern into a normalized day set.
//
// Accepted forms include "M W F", "Tu/Th", "Mon-Fri", "6 days", "1 day a week" and "daily".
func ParseShorthand(input string) ([]string, error) {
	s := strings.ToUpper(strings.TrimSpace(input))
	s = strings.NewReplacer(".", "", ",", " ", " - ", "-", "–", "-").Replace(s)
	if s == "" {
		return []string{}, nil
	}

	switch {
	case s == "DAILY" || strings.HasPrefix(s, "7 DAY") || strings.HasPrefix(s, "7-DAY"):
		return span(time.Monday, time.Sunday), nil
	case strings.HasPrefix(s, "6 DAY") || strings.HasPrefix(s, "6-DAY"):
		return span(time.Monday, time.Saturday), nil
	case strings.HasPrefix(s, "5 DAY") || strings.HasPrefix(s, "5-DAY"):
		return span(time.Monday, time.Friday), nil
	case strings.HasPrefix(s, "1 DAY") || strings.HasPrefix(s, "1-DAY"):
		return []string{Monday}, nil
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '/' || r == '&' || r == '+'
	})

	var days []string
	for _, field := range fields {
		if from, to, ok := strings.Cut(field, "-"); ok {
			start, okStart := tokenDays[from]
			end, okEnd := tokenDays[to]
			if !okStart || !okEnd {
				return nil, fmt.Errorf("unknown day range %q in %q", field, input)
			}
			days = append(days, span(start, end)...)
			continue
		}

		wd, ok := tokenDays[field]
		if !ok {
			return nil, fmt.Errorf("unknown day %q in %q", field, input)
		}
		days = append(days, Name(wd))
	}

	return Normalize(days)
}

// span lists days from start to end inclusive, walking forward through a Monday-first week.
func span(start, end time.Weekday) []string {
	days := []string{Name(start)}
	for d := start; d != end; {
		d = (d + 1) % 7
		days = append(days, Name(d))
	}
	return days
}
