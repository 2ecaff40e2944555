package helpers

import "time"

const humanDateLayout = "02 January 2006"

// FormatDueDate renders a due date for user-facing messages.
func FormatDueDate(t time.Time) string {
	return t.Format(humanDateLayout)
}

// AddDays moves t by whole calendar days, keeping the wall-clock time.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

func NowRFC3339(now time.Time) string {
	return now.UTC().Format(time.RFC3339Nano)
}
