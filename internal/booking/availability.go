package booking

import (
	"fmt"
	"sort"
	"time"
)

var clockLayouts = []string{"15:04:05", "15:04"}

func parseClock(s string) (time.Time, error) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid clock time %q", s)
}

// CalculateAvailability returns the free slots of date between openStr and
// closeStr ("HH:MM" or "HH:MM:SS"). Only confirmed bookings occupy time.
func CalculateAvailability(date time.Time, openStr, closeStr string, bookings []*Booking) ([]TimeSlot, error) {
	openClock, err := parseClock(openStr)
	if err != nil {
		return nil, err
	}
	closeClock, err := parseClock(closeStr)
	if err != nil {
		return nil, err
	}

	day := dateOf(date)
	open := day.Add(time.Duration(openClock.Hour())*time.Hour + time.Duration(openClock.Minute())*time.Minute + time.Duration(openClock.Second())*time.Second)
	closing := day.Add(time.Duration(closeClock.Hour())*time.Hour + time.Duration(closeClock.Minute())*time.Minute + time.Duration(closeClock.Second())*time.Second)
	if !open.Before(closing) {
		return nil, ErrInvalidTimeRange
	}

	var busy []*Booking
	for _, b := range bookings {
		if b.Status == StatusConfirmed && Overlaps(b.StartTime, b.EndTime, open, closing) {
			busy = append(busy, b)
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].StartTime.Before(busy[j].StartTime) })

	var slots []TimeSlot
	cursor := open
	for _, b := range busy {
		if b.StartTime.After(cursor) {
			slots = append(slots, TimeSlot{StartTime: cursor, EndTime: b.StartTime})
		}
		if b.EndTime.After(cursor) {
			cursor = b.EndTime
		}
	}
	if cursor.Before(closing) {
		slots = append(slots, TimeSlot{StartTime: cursor, EndTime: closing})
	}
	return slots, nil
}
