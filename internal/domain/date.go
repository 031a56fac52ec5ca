package domain

import "time"

// DateOf truncates t to the start of its UTC calendar day. Due dates and
// review dates are date-grained and always pass through here.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date that is days calendar days after date.
func AddDays(date time.Time, days int) time.Time {
	return DateOf(date).AddDate(0, 0, days)
}
