package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kanemolly/campus-resource-hub/internal/auth"
	"github.com/kanemolly/campus-resource-hub/internal/booking"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/validation"
	"github.com/kanemolly/campus-resource-hub/internal/resource"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type catalog map[string]*resource.Resource

func (c catalog) GetByID(_ context.Context, id string) (*resource.Resource, error) {
	r, ok := c[id]
	if !ok {
		return nil, resource.ErrNotFound
	}
	return r, nil
}

var (
	roomID   = uuid.NewString()
	studioID = uuid.NewString()
)

type testEnv struct {
	router  *gin.Engine
	tokens  map[string]string
	userIDs map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	svc := booking.NewService(booking.NewMemoryRepository(), catalog{
		roomID:   {ID: roomID, Name: "Study Room 2B", IsAvailable: true},
		studioID: {ID: studioID, Name: "Recording Studio", IsAvailable: true, RequiresApproval: true},
	}, nil, zap.NewNop())

	h := NewHandler(svc, BusinessHours{Start: 8, End: 20})
	h.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), h, auth.AuthRequired(jwtManager))

	env := &testEnv{router: router, tokens: map[string]string{}, userIDs: map[string]string{}}
	for name, role := range map[string]string{"alice": "student", "bob": "student", "sam": "staff"} {
		id := uuid.NewString()
		token, err := jwtManager.GenerateAccessToken(id, role)
		require.NoError(t, err)
		env.tokens[name] = token
		env.userIDs[name] = id
	}
	return env
}

func (e *testEnv) do(method, path string, body any, who string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}
	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if who != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[who])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type bookingJSON struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	ApprovedBy    *string `json:"approved_by"`
	ChangeSummary *string `json:"change_summary"`
	Requester     struct {
		ID string `json:"id"`
	} `json:"requester"`
}

type errorJSON struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details"`
}

func bookingBody(resourceID, start, end string) gin.H {
	return gin.H{"resource_id": resourceID, "start_time": start, "end_time": end}
}

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/v1/bookings", bookingBody(roomID, "2024-01-10T10:00:00", "2024-01-10T12:00:00"), "alice")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[bookingJSON](t, w)
	assert.Equal(t, "confirmed", first.Status)
	assert.Equal(t, "2024-01-10T10:00:00", first.StartTime)
	assert.Equal(t, env.userIDs["alice"], first.Requester.ID)

	w = env.do(http.MethodPost, "/v1/bookings", bookingBody(roomID, "2024-01-10 11:00:00", "2024-01-10 13:00:00"), "bob")
	require.Equal(t, http.StatusConflict, w.Code)
	conflict := decode[errorJSON](t, w)
	assert.Equal(t, "time slot conflicts with an existing confirmed booking", conflict.Error)
	assert.Equal(t, []any{first.ID}, conflict.Details["conflicting_booking_ids"])

	// RFC3339 input keeps its wall clock.
	w = env.do(http.MethodPost, "/v1/bookings", bookingBody(roomID, "2024-01-10T12:00:00+08:00", "2024-01-10T14:00:00+08:00"), "bob")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "2024-01-10T12:00:00", decode[bookingJSON](t, w).StartTime)
}

func TestCreateBookingRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		body     gin.H
		wantCode int
		wantErr  string
	}{
		{"malformed timestamp", bookingBody(roomID, "10/01/2024 10:00", "2024-01-10T12:00:00"), http.StatusBadRequest, "invalid request body"},
		{"missing resource", gin.H{"start_time": "2024-01-10T10:00:00", "end_time": "2024-01-10T12:00:00"}, http.StatusBadRequest, "invalid request body"},
		{"inverted range", bookingBody(roomID, "2024-01-10T12:00:00", "2024-01-10T10:00:00"), http.StatusBadRequest, "start time must be before end time"},
		{"before opening", bookingBody(roomID, "2024-01-10T07:00:00", "2024-01-10T09:00:00"), http.StatusBadRequest, "bookings must fall within business hours (08:00-20:00)"},
		{"past closing", bookingBody(roomID, "2024-01-10T19:00:00", "2024-01-10T20:30:00"), http.StatusBadRequest, "bookings must fall within business hours (08:00-20:00)"},
		{"in the past", bookingBody(roomID, "2023-12-10T10:00:00", "2023-12-10T12:00:00"), http.StatusBadRequest, "start time must be in the future"},
		{"unknown resource", bookingBody(uuid.NewString(), "2024-01-10T10:00:00", "2024-01-10T12:00:00"), http.StatusNotFound, "resource not found"},
		{"bad pattern", gin.H{
			"resource_id": roomID, "start_time": "2024-01-10T10:00:00", "end_time": "2024-01-10T12:00:00",
			"recurrence": gin.H{"pattern": "yearly", "end_date": "2024-02-10"},
		}, http.StatusBadRequest, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/v1/bookings", tt.body, "alice")
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, decode[errorJSON](t, w).Error)
		})
	}

	w := env.do(http.MethodPost, "/v1/bookings", bookingBody(roomID, "2024-01-10T18:00:00", "2024-01-10T20:00:00"), "alice")
	assert.Equal(t, http.StatusCreated, w.Code, "ending exactly at closing is allowed")

	w = env.do(http.MethodPost, "/v1/bookings", bookingBody(roomID, "2024-01-10T10:00:00", "2024-01-10T11:00:00"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/v1/bookings", bookingBody(roomID, "bogus", "2024-01-10T11:00:00"), "alice")
	assert.Contains(t, decode[errorJSON](t, w).Details, "start_time")
}

func TestCreateSeriesEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/v1/bookings", bookingBody(roomID, "2024-01-24T10:00:00", "2024-01-24T11:00:00"), "bob")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/v1/bookings", gin.H{
		"resource_id": roomID,
		"start_time":  "2024-01-10T10:00:00",
		"end_time":    "2024-01-10T11:00:00",
		"recurrence":  gin.H{"pattern": "weekly", "end_date": "2024-02-07"},
	}, "alice")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	series := decode[struct {
		Parent       bookingJSON   `json:"parent"`
		Bookings     []bookingJSON `json:"bookings"`
		CreatedCount int           `json:"created_count"`
		SkippedCount int           `json:"skipped_count"`
		SkippedDates []string      `json:"skipped_dates"`
	}](t, w)
	assert.Equal(t, 4, series.CreatedCount)
	assert.Equal(t, 1, series.SkippedCount)
	assert.Equal(t, []string{"2024-01-24"}, series.SkippedDates)
	assert.Equal(t, "pending", series.Parent.Status)

	w = env.do(http.MethodGet, "/v1/bookings/"+series.Bookings[2].ID+"/series", nil, "alice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), decode[map[string]any](t, w)["total"])

	w = env.do(http.MethodGet, "/v1/bookings/"+series.Parent.ID+"/series", nil, "bob")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApprovalFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/v1/bookings", bookingBody(studioID, "2024-01-10T10:00:00", "2024-01-10T12:00:00"), "alice")
	require.Equal(t, http.StatusCreated, w.Code)
	b := decode[bookingJSON](t, w)
	require.Equal(t, "pending", b.Status)

	w = env.do(http.MethodPost, "/v1/bookings/"+b.ID+"/confirm", nil, "alice")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/v1/bookings/"+b.ID+"/confirm", nil, "sam")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	confirmed := decode[bookingJSON](t, w)
	assert.Equal(t, "confirmed", confirmed.Status)
	require.NotNil(t, confirmed.ApprovedBy)
	assert.Equal(t, env.userIDs["sam"], *confirmed.ApprovedBy)

	w = env.do(http.MethodPost, "/v1/bookings/"+b.ID+"/confirm", nil, "sam")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cannot confirm a confirmed booking", decode[errorJSON](t, w).Error)

	w = env.do(http.MethodPost, "/v1/bookings/not-a-uuid/confirm", nil, "sam")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/v1/bookings/"+uuid.NewString()+"/confirm", nil, "sam")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEditAndCancel(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/v1/bookings", bookingBody(roomID, "2024-01-10T10:00:00", "2024-01-10T12:00:00"), "alice")
	require.Equal(t, http.StatusCreated, w.Code)
	b := decode[bookingJSON](t, w)

	w = env.do(http.MethodPatch, "/v1/bookings/"+b.ID, gin.H{}, "alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPatch, "/v1/bookings/"+b.ID, gin.H{"end_time": "2024-01-10T21:00:00"}, "alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPatch, "/v1/bookings/"+b.ID, gin.H{"end_time": "2024-01-10T13:00:00"}, "bob")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPatch, "/v1/bookings/"+b.ID, gin.H{"end_time": "2024-01-10T13:00:00"}, "alice")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	edited := decode[bookingJSON](t, w)
	assert.Equal(t, "2024-01-10T13:00:00", edited.EndTime)
	require.NotNil(t, edited.ChangeSummary)
	assert.Equal(t, "end_time: 2024-01-10 12:00 → 2024-01-10 13:00", *edited.ChangeSummary)

	w = env.do(http.MethodGet, "/v1/bookings/"+b.ID, nil, "bob")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(http.MethodGet, "/v1/bookings/"+b.ID, nil, "sam")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/v1/bookings/"+b.ID+"/cancel", nil, "alice")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancelled", decode[bookingJSON](t, w).Status)

	w = env.do(http.MethodPost, "/v1/bookings/"+b.ID+"/cancel", gin.H{"reason": "again"}, "sam")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListBookings(t *testing.T) {
	env := newTestEnv(t)

	for _, who := range []string{"alice", "bob"} {
		w := env.do(http.MethodPost, "/v1/bookings", bookingBody(studioID, "2024-01-10T10:00:00", "2024-01-10T12:00:00"), who)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	type page struct {
		Items []bookingJSON `json:"items"`
		Total int           `json:"total"`
	}

	w := env.do(http.MethodGet, "/v1/bookings", nil, "alice")
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[page](t, w)
	require.Equal(t, 1, mine.Total)
	assert.Equal(t, env.userIDs["alice"], mine.Items[0].Requester.ID)

	// A student cannot widen the filter to someone else.
	w = env.do(http.MethodGet, "/v1/bookings?requester_id="+env.userIDs["bob"], nil, "alice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[page](t, w).Total)

	w = env.do(http.MethodGet, "/v1/bookings?status=pending", nil, "sam")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[page](t, w).Total)

	w = env.do(http.MethodGet, "/v1/bookings?status=lost", nil, "sam")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/v1/bookings?start_time_from=2024-01-11T00:00:00&start_time_to=2024-01-10T00:00:00", nil, "sam")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/v1/bookings", bookingBody(roomID, "2024-01-10T10:00:00", "2024-01-10T12:00:00"), "alice")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodGet, "/v1/resources/"+roomID+"/availability?date=2024-01-10", nil, "bob")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[struct {
		Slots []struct {
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
		} `json:"slots"`
	}](t, w)
	require.Len(t, got.Slots, 2)
	assert.Equal(t, "2024-01-10T08:00:00", got.Slots[0].StartTime)
	assert.Equal(t, "2024-01-10T10:00:00", got.Slots[0].EndTime)
	assert.Equal(t, "2024-01-10T12:00:00", got.Slots[1].StartTime)
	assert.Equal(t, "2024-01-10T20:00:00", got.Slots[1].EndTime)

	w = env.do(http.MethodGet, "/v1/resources/"+roomID+"/availability?date=10-01-2024", nil, "bob")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBusinessHoursCheck(t *testing.T) {
	bh := BusinessHours{Start: 8, End: 20}
	clock := func(h, m int) time.Time { return time.Date(2024, 1, 10, h, m, 0, 0, time.UTC) }

	assert.NoError(t, bh.Check(clock(8, 0), clock(9, 0)))
	assert.NoError(t, bh.Check(clock(19, 30), clock(20, 0)))
	assert.ErrorIs(t, bh.Check(clock(7, 59), clock(9, 0)), ErrOutsideBusinessHours)
	assert.ErrorIs(t, bh.Check(clock(19, 0), clock(20, 1)), ErrOutsideBusinessHours)
	assert.ErrorIs(t, bh.Check(clock(19, 0), clock(21, 0)), ErrOutsideBusinessHours)
}
