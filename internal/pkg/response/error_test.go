package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanemolly/campus-resource-hub/internal/pkg/apperror"
)

var errTaken = apperror.New(http.StatusConflict, "slot taken")

type takenError struct{ ids []string }

func (e *takenError) Error() string { return "taken" }
func (e *takenError) Unwrap() error { return errTaken }
func (e *takenError) Details() any { return map[string][]string{"ids": e.ids} }

func render(err error) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, err)
	return w, c
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantBody   string
		wantLogged bool
	}{
		{"app error", apperror.New(http.StatusNotFound, "booking not found"), http.StatusNotFound, `{"error":"booking not found"}`, false},
		{"wrapped app error", fmt.Errorf("load: %w", apperror.New(http.StatusBadRequest, "bad")), http.StatusBadRequest, `{"error":"bad"}`, false},
		{"with details", &takenError{ids: []string{"b1"}}, http.StatusConflict, `{"error":"slot taken","details":{"ids":["b1"]}}`, false},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError, `{"error":"internal server error"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := render(tt.err)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.Equal(t, tt.wantLogged, len(c.Errors) > 0)
		})
	}
}

func TestBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	BadRequest(c, "invalid request body", map[string]string{"start_time": "This field is required"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid request body", body.Error)
	assert.Equal(t, map[string]any{"start_time": "This field is required"}, body.Details)
}

func TestNewPageResponse(t *testing.T) {
	page := NewPageResponse[string](nil, 2, 10, 0)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 2, page.Page)
}
