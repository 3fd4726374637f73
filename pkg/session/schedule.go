package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// legacyDeadlines maps the old integer deadline enum to its HH:MM form.
var legacyDeadlines = map[int64]string{
	1: "10:00",
	2: "14:00",
	3: "18:00",
	4: "23:00",
}

// clockTime is a wall-clock time of day.
type clockTime struct {
	hour, minute int
}

func parseClockTime(s string) (clockTime, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return clockTime{}, fmt.Errorf("invalid time %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return clockTime{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return clockTime{}, fmt.Errorf("invalid minute in %q", s)
	}
	return clockTime{hour, minute}, nil
}

// on returns the instant of ct on the calendar day of day.
func (ct clockTime) on(day time.Time) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, ct.hour, ct.minute, 0, 0, day.Location())
}

func (ct clockTime) String() string {
	return fmt.Sprintf("%02d:%02d", ct.hour, ct.minute)
}

// timeOfDay buckets an hour: morning before 11, afternoon before 17, evening before 21.
func timeOfDay(hour int) int64 {
	switch {
	case hour < 11:
		return 1
	case hour < 17:
		return 2
	case hour < 21:
		return 3
	}
	return 4
}

// isoWeekday returns 1 for Monday through 7 for Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

var weekdayNames = map[string]int{
	"mon": 1, "monday": 1,
	"tue": 2, "tuesday": 2,
	"wed": 3, "wednesday": 3,
	"thu": 4, "thursday": 4,
	"fri": 5, "friday": 5,
	"sat": 6, "saturday": 6,
	"sun": 7, "sunday": 7,
}

// parseWeekday accepts ISO numbers (1-7) or English names.
func parseWeekday(v any) (int, bool) {
	switch val := v.(type) {
	case int64:
		if val >= 1 && val <= 7 {
			return int(val), true
		}
	case float64:
		if val >= 1 && val <= 7 && val == float64(int(val)) {
			return int(val), true
		}
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		if n, err := strconv.Atoi(s); err == nil {
			return parseWeekday(int64(n))
		}
		if n, ok := weekdayNames[s]; ok {
			return n, true
		}
	}
	return 0, false
}

// nextActiveDate returns the first date on or after from whose weekday is active.
// Without active days it returns the day after from.
func nextActiveDate(from time.Time, active map[int]bool) time.Time {
	if len(active) == 0 {
		return from.AddDate(0, 0, 1)
	}
	for i := 0; i < 7; i++ {
		d := from.AddDate(0, 0, i)
		if active[isoWeekday(d)] {
			return d
		}
	}
	return from.AddDate(0, 0, 1)
}
