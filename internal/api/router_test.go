package api

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kanemolly/campus-resource-hub/internal/auth"
	"github.com/kanemolly/campus-resource-hub/internal/booking"
	bookingHttp "github.com/kanemolly/campus-resource-hub/internal/booking/http"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/validation"
	"github.com/kanemolly/campus-resource-hub/internal/resource"
	"github.com/kanemolly/campus-resource-hub/internal/user"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeUsers struct {
	byEmail map[string]*user.User
}

func (f *fakeUsers) Register(_ context.Context, email, password, displayName string) (*user.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, user.ErrEmailAlreadyUsed
	}
	if len(password) < 8 {
		return nil, user.ErrPasswordTooShort
	}
	u := &user.User{ID: "u-" + email, Email: email, PasswordHash: password, DisplayName: &displayName, Role: user.RoleStudent, IsActive: true}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUsers) Login(_ context.Context, email, password string) (*user.User, error) {
	u, ok := f.byEmail[email]
	if !ok || u.PasswordHash != password {
		return nil, user.ErrInvalidCredentials
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

type noResources struct{ resource.Service }

func (noResources) GetByID(context.Context, string) (*resource.Resource, error) {
	return nil, resource.ErrNotFound
}

func newRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	return NewRouter(Config{
		Logger:         logger,
		BusinessHours:  bookingHttp.BusinessHours{Start: 8, End: 20},
		UserService:    &fakeUsers{byEmail: map[string]*user.User{}},
		ResService:     noResources{},
		BookingService: booking.NewService(booking.NewMemoryRepository(), noResources{}, nil, logger),
		JWTManager:     auth.NewJWTManager("test-secret", time.Hour),
	}), logs
}

func send(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}
	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	r, _ := newRouter(t)

	w := send(r, http.MethodPost, "/v1/auth/register", gin.H{"email": "not-an-email", "password": "longenough"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/v1/auth/register", gin.H{"email": "kai@campus.edu", "password": "short"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/v1/auth/register", gin.H{"email": "kai@campus.edu", "password": "longenough", "display_name": "Kai"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.Equal(t, "student", reg.User.Role)

	w = send(r, http.MethodPost, "/v1/auth/register", gin.H{"email": "kai@campus.edu", "password": "longenough"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = send(r, http.MethodPost, "/v1/auth/login", gin.H{"email": "kai@campus.edu", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(r, http.MethodPost, "/v1/auth/login", gin.H{"email": "kai@campus.edu", "password": "longenough"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)

	claims, err := auth.NewJWTManager("test-secret", time.Hour).ParseAndValidate(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "student", claims.Role)

	w = send(r, http.MethodGet, "/v1/me", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var me MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "kai@campus.edu", me.User.Email)

	w = send(r, http.MethodGet, "/v1/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Students cannot create resources.
	w = send(r, http.MethodPost, "/v1/resources", gin.H{"name": "Lab"}, login.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	r, logs := newRouter(t)
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := send(r, http.MethodGet, "/v1/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusUnauthorized), entries[0].ContextMap()["status"])
	assert.Equal(t, "/v1/me", entries[0].ContextMap()["path"])

	w = send(r, http.MethodGet, "/boom", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://hub.campus.edu", "https://admin.campus.edu"},
		allowedOrigins(true, " https://hub.campus.edu, ,https://admin.campus.edu"))
	assert.Contains(t, allowedOrigins(false, "ignored"), "http://localhost:3000")
}
