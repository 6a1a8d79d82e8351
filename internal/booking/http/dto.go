package http

import (
	"time"

	"github.com/kanemolly/campus-resource-hub/internal/booking"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	ResourceID    string `form:"resource_id" binding:"omitempty,uuid"`
	Status        string `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	RequesterID   string `form:"requester_id" binding:"omitempty,uuid"`
	StartTimeFrom string `form:"start_time_from" binding:"omitempty,naive_datetime"`
	StartTimeTo   string `form:"start_time_to" binding:"omitempty,naive_datetime"`
	SortBy        string `form:"sort_by" binding:"omitempty,oneof=start_time end_time created_at status"`
}

// Window returns the parsed time filter. Tags have already validated the format.
func (r *ListBookingsRequest) Window() (from, to *time.Time, err error) {
	if r.StartTimeFrom != "" {
		t, _ := request.ParseNaiveTime(r.StartTimeFrom)
		from = &t
	}
	if r.StartTimeTo != "" {
		t, _ := request.ParseNaiveTime(r.StartTimeTo)
		to = &t
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, booking.ErrInvalidTimeRange
	}
	return from, to, nil
}

type RecurrenceBody struct {
	Pattern string `json:"pattern" binding:"required,oneof=daily weekly biweekly monthly"`
	EndDate string `json:"end_date" binding:"required,datetime=2006-01-02"`
}

type CreateBookingRequest struct {
	ResourceID string          `json:"resource_id" binding:"required,uuid"`
	StartTime  string          `json:"start_time" binding:"required,naive_datetime"`
	EndTime    string          `json:"end_time" binding:"required,naive_datetime"`
	Notes      string          `json:"notes" binding:"omitempty,max=2000"`
	Recurrence *RecurrenceBody `json:"recurrence"`
}

type EditBookingRequest struct {
	StartTime *string `json:"start_time" binding:"omitempty,naive_datetime"`
	EndTime   *string `json:"end_time" binding:"omitempty,naive_datetime"`
	Notes     *string `json:"notes" binding:"omitempty,max=2000"`
}

// toEditRequest converts the body. Tags have already validated the formats.
func (r *EditBookingRequest) toEditRequest() booking.EditRequest {
	var req booking.EditRequest
	if r.StartTime != nil {
		t, _ := request.ParseNaiveTime(*r.StartTime)
		req.StartTime = &t
	}
	if r.EndTime != nil {
		t, _ := request.ParseNaiveTime(*r.EndTime)
		req.EndTime = &t
	}
	req.Notes = r.Notes
	return req
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=1000"`
}

type AvailabilityRequest struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// naiveTime renders timestamps without an offset, matching how they are stored.
type naiveTime time.Time

const naiveLayout = "2006-01-02T15:04:05"

func (t naiveTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(naiveLayout) + `"`), nil
}

func naivePtr(t *time.Time) *naiveTime {
	if t == nil {
		return nil
	}
	n := naiveTime(*t)
	return &n
}

type ResourceTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UserTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BookingResponse struct {
	ID                 string      `json:"id"`
	Resource           ResourceTag `json:"resource"`
	Requester          UserTag     `json:"requester"`
	StartTime          naiveTime   `json:"start_time"`
	EndTime            naiveTime   `json:"end_time"`
	Status             string      `json:"status"`
	Notes              *string     `json:"notes"`
	IsRecurring        bool        `json:"is_recurring"`
	RecurrencePattern  *string     `json:"recurrence_pattern"`
	RecurrenceEndDate  *string     `json:"recurrence_end_date"`
	ParentBookingID    *string     `json:"parent_booking_id"`
	ApprovedByID       *string     `json:"approved_by"`
	ApprovedAt         *naiveTime  `json:"approved_at"`
	CancelledByID      *string     `json:"cancelled_by"`
	CancellationReason *string     `json:"cancellation_reason"`
	ModifiedByID       *string     `json:"modified_by"`
	ModifiedAt         *naiveTime  `json:"modified_at"`
	ChangeSummary      *string     `json:"change_summary"`
	CreatedAt          naiveTime   `json:"created_at"`
	UpdatedAt          naiveTime   `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                 b.ID,
		Resource:           ResourceTag{ID: b.ResourceID, Name: b.ResourceName},
		Requester:          UserTag{ID: b.RequesterID, Name: b.RequesterName},
		StartTime:          naiveTime(b.StartTime),
		EndTime:            naiveTime(b.EndTime),
		Status:             string(b.Status),
		Notes:              b.Notes,
		IsRecurring:        b.IsRecurring,
		ParentBookingID:    b.ParentBookingID,
		ApprovedByID:       b.ApprovedByID,
		ApprovedAt:         naivePtr(b.ApprovedAt),
		CancelledByID:      b.CancelledByID,
		CancellationReason: b.CancellationReason,
		ModifiedByID:       b.ModifiedByID,
		ModifiedAt:         naivePtr(b.ModifiedAt),
		ChangeSummary:      b.ChangeSummary,
		CreatedAt:          naiveTime(b.CreatedAt),
		UpdatedAt:          naiveTime(b.UpdatedAt),
	}
	if b.RecurrencePattern != nil {
		p := string(*b.RecurrencePattern)
		resp.RecurrencePattern = &p
	}
	if b.RecurrenceEndDate != nil {
		d := b.RecurrenceEndDate.Format(request.DateLayout)
		resp.RecurrenceEndDate = &d
	}
	return resp
}

func newBookingResponses(bookings []*booking.Booking) []BookingResponse {
	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	return items
}

type SeriesResponse struct {
	Parent       BookingResponse   `json:"parent"`
	Bookings     []BookingResponse `json:"bookings"`
	CreatedCount int               `json:"created_count"`
	SkippedCount int               `json:"skipped_count"`
	SkippedDates []string          `json:"skipped_dates"`
}

func NewSeriesResponse(res *booking.SeriesResult) SeriesResponse {
	skipped := make([]string, len(res.SkippedDates))
	for i, d := range res.SkippedDates {
		skipped[i] = d.Format(request.DateLayout)
	}
	return SeriesResponse{
		Parent:       NewBookingResponse(res.Parent),
		Bookings:     newBookingResponses(res.Created),
		CreatedCount: len(res.Created),
		SkippedCount: len(res.SkippedDates),
		SkippedDates: skipped,
	}
}

type TimeSlotResponse struct {
	StartTime naiveTime `json:"start_time"`
	EndTime   naiveTime `json:"end_time"`
}

type AvailabilityResponse struct {
	ResourceID string             `json:"resource_id"`
	Date       string             `json:"date"`
	Slots      []TimeSlotResponse `json:"slots"`
}
