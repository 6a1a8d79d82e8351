package booking

import (
	"context"
	"fmt"
	"time"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ConflictError is returned when an interval overlaps confirmed bookings.
// errors.Is(err, ErrTimeConflict) holds for it.
type ConflictError struct {
	BookingIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (%d conflicting)", ErrTimeConflict.Message, len(e.BookingIDs))
}

func (e *ConflictError) Unwrap() error {
	return ErrTimeConflict
}

// Details exposes the conflicting ids to API clients.
func (e *ConflictError) Details() any {
	return map[string][]string{"conflicting_booking_ids": e.BookingIDs}
}

// ConflictDetector answers whether an interval on a resource is free.
// Only confirmed bookings block; pending and cancelled ones never do.
type ConflictDetector struct {
	repo Repository
}

func NewConflictDetector(repo Repository) *ConflictDetector {
	return &ConflictDetector{repo: repo}
}

// HasConflict reports whether [start, end) overlaps a confirmed booking on resourceID.
// Query failures are returned, never treated as "free".
func (d *ConflictDetector) HasConflict(ctx context.Context, resourceID string, start, end time.Time) (bool, error) {
	ids, err := d.Conflicts(ctx, resourceID, start, end, "")
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// Conflicts returns the ids of confirmed bookings overlapping [start, end),
// ignoring excludeID so a booking can be checked against everything but itself.
func (d *ConflictDetector) Conflicts(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]string, error) {
	existing, err := d.repo.FindConfirmed(ctx, resourceID, start, end, excludeID)
	if err != nil {
		return nil, fmt.Errorf("conflict check failed: %w", err)
	}

	var ids []string
	for _, b := range existing {
		// FindConfirmed may return a wider window than requested.
		if b.Status == StatusConfirmed && Overlaps(b.StartTime, b.EndTime, start, end) {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

// check returns a *ConflictError when the interval is taken.
func (d *ConflictDetector) check(ctx context.Context, resourceID string, start, end time.Time, excludeID string) error {
	ids, err := d.Conflicts(ctx, resourceID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return &ConflictError{BookingIDs: ids}
	}
	return nil
}
