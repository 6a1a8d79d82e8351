package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kanemolly/campus-resource-hub/internal/auth"
	"github.com/kanemolly/campus-resource-hub/internal/booking"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/apperror"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/request"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/response"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/validation"
)

var (
	ErrOutsideBusinessHours = apperror.New(http.StatusBadRequest, "bookings must fall within business hours")
	ErrStartTimePast        = apperror.New(http.StatusBadRequest, "start time must be in the future")
)

// BusinessHours is the daily window, in whole hours, bookings may occupy.
type BusinessHours struct {
	Start int
	End   int
}

// Check rejects intervals whose start or end hour falls outside the window.
// An end at exactly the closing hour must be on the hour.
func (bh BusinessHours) Check(start, end time.Time) error {
	inside := func(t time.Time) bool { return t.Hour() >= bh.Start && t.Hour() <= bh.End }
	if !inside(start) || !inside(end) || (end.Hour() == bh.End && (end.Minute() > 0 || end.Second() > 0)) {
		return apperror.Wrap(ErrOutsideBusinessHours, http.StatusBadRequest,
			fmt.Sprintf("bookings must fall within business hours (%02d:00-%02d:00)", bh.Start, bh.End))
	}
	return nil
}

func (bh BusinessHours) openClock() string { return fmt.Sprintf("%02d:00", bh.Start) }
func (bh BusinessHours) closeClock() string { return fmt.Sprintf("%02d:00", bh.End) }

type Handler struct {
	service booking.Service
	hours   BusinessHours
	now     func() time.Time
}

func NewHandler(service booking.Service, hours BusinessHours) *Handler {
	return &Handler{
		service: service,
		hours:   hours,
		now:     booking.NaiveNow,
	}
}

func actorFrom(c *gin.Context) booking.Actor {
	return booking.Actor{ID: auth.GetUserID(c), Privileged: auth.IsPrivileged(c)}
}

func badRequest(c *gin.Context, message string, err error) {
	response.BadRequest(c, message, validation.Messages(err))
}

// canView reports whether the caller owns b or is staff.
func canView(c *gin.Context, b *booking.Booking) bool {
	return auth.IsPrivileged(c) || b.RequesterID == auth.GetUserID(c)
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	from, to, err := req.Window()
	if err != nil {
		response.Error(c, err)
		return
	}

	// Students only ever see their own bookings.
	requesterID := auth.GetUserID(c)
	if auth.IsPrivileged(c) {
		requesterID = req.RequesterID
	}

	filter := booking.Filter{
		RequesterID: requesterID,
		ResourceID:  req.ResourceID,
		Status:      req.Status,
		StartTime:   from,
		EndTime:     to,
		Page:        req.Page,
		PageSize:    req.PageSize,
		SortBy:      req.SortBy,
		SortOrder:   req.SortOrder,
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPageResponse(newBookingResponses(bookings), req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, "invalid request", err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canView(c, b) {
		response.Error(c, booking.ErrPermissionDenied)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	start, _ := request.ParseNaiveTime(body.StartTime)
	end, _ := request.ParseNaiveTime(body.EndTime)
	if !start.Before(end) {
		response.Error(c, booking.ErrInvalidTimeRange)
		return
	}
	if err := h.hours.Check(start, end); err != nil {
		response.Error(c, err)
		return
	}
	if start.Before(h.now()) {
		response.Error(c, ErrStartTimePast)
		return
	}

	ctx := c.Request.Context()
	requesterID := auth.GetUserID(c)

	if body.Recurrence != nil {
		until, _ := request.ParseDate(body.Recurrence.EndDate)
		res, err := h.service.CreateSeries(ctx, booking.SeriesRequest{
			ResourceID:    body.ResourceID,
			RequesterID:   requesterID,
			FirstStart:    start,
			FirstEnd:      end,
			Pattern:       booking.Pattern(body.Recurrence.Pattern),
			RecurrenceEnd: until,
			Notes:         body.Notes,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, NewSeriesResponse(res))
		return
	}

	b, err := h.service.Create(ctx, booking.CreateRequest{
		ResourceID:  body.ResourceID,
		RequesterID: requesterID,
		StartTime:   start,
		EndTime:     end,
		Notes:       body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Edit(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, "invalid request", err)
		return
	}

	var body EditBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	req := body.toEditRequest()

	// Only a moved booking is re-checked against business hours; the
	// unchanged side comes from the stored booking.
	if req.StartTime != nil || req.EndTime != nil {
		current, err := h.service.GetByID(c.Request.Context(), uri.ID)
		if err != nil {
			response.Error(c, err)
			return
		}
		start, end := current.StartTime, current.EndTime
		if req.StartTime != nil {
			start = *req.StartTime
		}
		if req.EndTime != nil {
			end = *req.EndTime
		}
		if start.Before(end) {
			if err := h.hours.Check(start, end); err != nil {
				response.Error(c, err)
				return
			}
		}
	}

	b, err := h.service.Edit(c.Request.Context(), uri.ID, actorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Confirm(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, "invalid request", err)
		return
	}

	b, err := h.service.Confirm(c.Request.Context(), uri.ID, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, "invalid request", err)
		return
	}

	// The body is optional.
	var body CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid request body", err)
			return
		}
	}

	b, err := h.service.Cancel(c.Request.Context(), uri.ID, actorFrom(c), body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Series(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, "invalid request", err)
		return
	}

	bookings, err := h.service.ListSeries(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(bookings) > 0 && !canView(c, bookings[0]) {
		response.Error(c, booking.ErrPermissionDenied)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": newBookingResponses(bookings), "total": len(bookings)})
}

func (h *Handler) Availability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, "invalid request", err)
		return
	}
	var query AvailabilityRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "invalid query parameters", err)
		return
	}
	date, _ := request.ParseDate(query.Date)

	slots, err := h.service.Availability(c.Request.Context(), uri.ID, date, h.hours.openClock(), h.hours.closeClock())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]TimeSlotResponse, len(slots))
	for i, s := range slots {
		items[i] = TimeSlotResponse{StartTime: naiveTime(s.StartTime), EndTime: naiveTime(s.EndTime)}
	}
	c.JSON(http.StatusOK, AvailabilityResponse{ResourceID: uri.ID, Date: query.Date, Slots: items})
}
