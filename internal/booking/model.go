package booking

import (
	"net/http"
	"time"

	"github.com/kanemolly/campus-resource-hub/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "booking not found")
	ErrResourceNotFound    = apperror.New(http.StatusNotFound, "resource not found")
	ErrTimeConflict        = apperror.New(http.StatusConflict, "time slot conflicts with an existing confirmed booking")
	ErrInvalidTimeRange    = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrInvalidState        = apperror.New(http.StatusConflict, "booking status does not allow this operation")
	ErrResourceUnavailable = apperror.New(http.StatusBadRequest, "resource is not available for booking")
	ErrRecurrenceEnd       = apperror.New(http.StatusBadRequest, "recurrence end date must not be before the first occurrence")
	ErrSeriesTooLong       = apperror.New(http.StatusBadRequest, "recurring series has too many occurrences")
	ErrPermissionDenied    = apperror.New(http.StatusForbidden, "permission denied")
	ErrNothingToUpdate     = apperror.New(http.StatusBadRequest, "no fields to update")
	ErrInvalidInput        = apperror.New(http.StatusBadRequest, "invalid input parameters")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Pattern is the step between occurrences of a recurring series.
type Pattern string

const (
	PatternDaily    Pattern = "daily"
	PatternWeekly   Pattern = "weekly"
	PatternBiweekly Pattern = "biweekly"
	PatternMonthly  Pattern = "monthly"
)

func (p Pattern) Valid() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternBiweekly, PatternMonthly:
		return true
	}
	return false
}

// Booking is a time-bounded claim on a resource. Times are naive wall-clock
// values stored in UTC without any zone conversion.
type Booking struct {
	ID            string
	ResourceID    string
	ResourceName  string
	RequesterID   string
	RequesterName string
	StartTime     time.Time
	EndTime       time.Time
	Status        Status
	Notes         *string

	IsRecurring       bool
	RecurrencePattern *Pattern
	RecurrenceEndDate *time.Time
	ParentBookingID   *string // first occurrence of the series; nil on the parent itself

	ApprovedByID       *string
	ApprovedAt         *time.Time
	CancelledByID      *string
	CancellationReason *string
	ModifiedByID       *string
	ModifiedAt         *time.Time
	ChangeSummary      *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Filter struct {
	RequesterID string
	ResourceID  string
	ParentID    string
	Status      string
	StartTime   *time.Time // bookings ending after this time
	EndTime     *time.Time // bookings starting before this time
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// Actor identifies who performs a lifecycle operation. Privileged actors
// are staff or admins.
type Actor struct {
	ID         string
	Privileged bool
}

// TimeSlot is a free half-open interval.
type TimeSlot struct {
	StartTime time.Time
	EndTime   time.Time
}

// NaiveNow returns the local wall clock expressed in UTC, the representation
// used for every booking timestamp.
func NaiveNow() time.Time {
	t := time.Now()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
