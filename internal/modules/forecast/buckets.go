package forecast

import (
	"fmt"
	"time"
)

// Calendar arithmetic for bucket boundaries. All dates are naive calendar
// days; weeks align to Mondays.

// dayOf truncates a time to its calendar day.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// mondayOf returns the Monday of the week containing t.
func mondayOf(t time.Time) time.Time {
	d := dayOf(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return d.AddDate(0, 0, -offset)
}

// monthStart returns the first day of t's calendar month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// quarterStart returns the first day of t's calendar quarter.
func quarterStart(t time.Time) time.Time {
	q := (int(t.Month()) - 1) / 3
	return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
}

// bucketStart aligns a day to the start of its bucket.
func bucketStart(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityMonth:
		return monthStart(t)
	case GranularityQuarter:
		return quarterStart(t)
	default:
		return mondayOf(t)
	}
}

// nextBucket returns the start of the bucket after the one starting at t.
func nextBucket(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	case GranularityQuarter:
		return t.AddDate(0, 3, 0)
	default:
		return t.AddDate(0, 0, 7)
	}
}

// bucketLabel names a bucket by its start.
func bucketLabel(start time.Time, g Granularity) string {
	switch g {
	case GranularityMonth:
		return start.Format("Jan 2006")
	case GranularityQuarter:
		return fmt.Sprintf("Q%d %d", (int(start.Month())-1)/3+1, start.Year())
	default:
		return start.Format("2006-01-02")
	}
}
