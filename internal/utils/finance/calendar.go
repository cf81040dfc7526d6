package finance

import "time"

// IsBusinessDay reports whether t falls Monday to Friday. Holidays are not modelled.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDaysBetween counts the business days after start up to and including
// end, negative when end is before start.
func BusinessDaysBetween(start, end time.Time) int {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return -BusinessDaysBetween(end, start)
	}
	n := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			n++
		}
	}
	return n
}

// AddBusinessDays moves start forward by n business days.
func AddBusinessDays(start time.Time, n int) time.Time {
	d := DateOnly(start)
	for n > 0 {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d) {
			n--
		}
	}
	return d
}
