package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hogwarts/facility-booking/internal/auth"
	"github.com/hogwarts/facility-booking/internal/pkg/response"
	"github.com/hogwarts/facility-booking/internal/user"
)

type stubUsers struct {
	user.Service
	byID map[int64]*user.User
}

func (s stubUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func TestHealthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		dbCheck  func(context.Context) error
		path     string
		wantCode int
		wantBody string
	}{
		{"liveness", nil, "/health", http.StatusOK, `{"ok":true}`},
		{"db up", func(context.Context) error { return nil }, "/health/db", http.StatusOK, `{"ok":true,"dbOk":true}`},
		{"db down", func(context.Context) error { return errors.New("refused") }, "/health/db", http.StatusInternalServerError, `{"ok":false,"dbOk":false}`},
		{"db check missing", nil, "/health/db", http.StatusServiceUnavailable, `{"ok":false,"dbOk":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			registerHealthRoutes(r, tt.dbCheck)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(response.RequestIDKey))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwt := auth.NewJWTManager("secret", time.Minute)
	users := stubUsers{byID: map[int64]*user.User{
		1: {ID: 1, HogwartsID: "harry", Role: user.RoleUser},
		2: {ID: 2, HogwartsID: "snape", Role: user.RoleStaff},
		3: {ID: 3, HogwartsID: "dumbledore", Role: user.RoleAdmin},
	}}

	r := gin.New()
	r.GET("/admin", auth.AuthRequired(jwt), RequireAdmin(users), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		id       int64
		role     string
		wantCode int
	}{
		{"regular user", 1, "user", http.StatusForbidden},
		{"stale admin token", 1, "admin", http.StatusForbidden},
		{"staff", 2, "staff", http.StatusNoContent},
		{"admin", 3, "admin", http.StatusNoContent},
		{"deleted account", 9, "admin", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.GenerateAccessToken(tt.id, "x", tt.role)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("peeves") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
