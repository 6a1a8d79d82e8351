package booking

import "time"

// MaxOccurrences is the largest series CreateSeries accepts.
const MaxOccurrences = 366

// OccurrenceDates lists the dates (midnight) of every occurrence of a series
// whose first occurrence starts at first, up to and including until's date.
//
// Monthly series keep the first occurrence's day of month. Months without
// that day (the 31st in April, the 30th in February) have no occurrence,
// matching RFC 5545 BYMONTHDAY behaviour.
//
// An unrecognised pattern yields only the first date. Generation stops once
// MaxOccurrences+1 dates exist so callers can reject oversized series.
func OccurrenceDates(first time.Time, pattern Pattern, until time.Time) []time.Time {
	anchor := dateOf(first)
	last := dateOf(until)
	if last.Before(anchor) {
		return nil
	}

	dates := []time.Time{anchor}

	var step int
	switch pattern {
	case PatternDaily:
		step = 1
	case PatternWeekly:
		step = 7
	case PatternBiweekly:
		step = 14
	case PatternMonthly:
		return monthlyDates(anchor, last)
	default:
		return dates
	}

	for i := 1; len(dates) <= MaxOccurrences; i++ {
		d := anchor.AddDate(0, 0, i*step)
		if d.After(last) {
			break
		}
		dates = append(dates, d)
	}
	return dates
}

func monthlyDates(anchor, last time.Time) []time.Time {
	dates := []time.Time{anchor}
	day := anchor.Day()

	for i := 1; len(dates) <= MaxOccurrences; i++ {
		// Day 1 of the target month never normalises into the next month.
		firstOfMonth := time.Date(anchor.Year(), anchor.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		if firstOfMonth.After(last) {
			break
		}
		if day > daysIn(firstOfMonth.Year(), firstOfMonth.Month()) {
			continue
		}
		d := time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 0, 0, 0, 0, time.UTC)
		if d.After(last) {
			break
		}
		dates = append(dates, d)
	}
	return dates
}

// occurrenceInterval places the first occurrence's wall-clock start and
// duration onto date.
func occurrenceInterval(date, firstStart, firstEnd time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(),
		firstStart.Hour(), firstStart.Minute(), firstStart.Second(), firstStart.Nanosecond(), time.UTC)
	return start, start.Add(firstEnd.Sub(firstStart))
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
