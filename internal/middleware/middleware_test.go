package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firesafety-backend/internal/auth"
	"firesafety-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	user *models.User
	err  error
}

func (f fakeSessions) LoadSession(context.Context) (*models.User, error) {
	return f.user, f.err
}

var alex = models.User{Name: "Alex Morgan", TechnicianID: "TECH-002", Role: models.RoleTech}

func echoUser(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(user.TechnicianID))
}

func TestAuth(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	token, err := tokens.Issue(alex)
	require.NoError(t, err)

	other := alex
	other.TechnicianID = "TECH-001"

	tests := []struct {
		name     string
		sessions SessionSource
		header   string
		query    string
		want     int
	}{
		{"no token", fakeSessions{user: &alex}, "", "", http.StatusUnauthorized},
		{"bad token", fakeSessions{user: &alex}, "Bearer nope", "", http.StatusUnauthorized},
		{"no session", fakeSessions{}, "Bearer " + token, "", http.StatusUnauthorized},
		{"session for someone else", fakeSessions{user: &other}, "Bearer " + token, "", http.StatusUnauthorized},
		{"session read error", fakeSessions{err: errors.New("disk")}, "Bearer " + token, "", http.StatusInternalServerError},
		{"bearer", fakeSessions{user: &alex}, "Bearer " + token, "", http.StatusOK},
		{"query token", fakeSessions{user: &alex}, "", token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Auth(tokens, tt.sessions)(http.HandlerFunc(echoUser))
			target := "/api/snapshot"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "TECH-002", rec.Body.String())
			}
		})
	}
}

func TestAuth_RefreshesTokenWhileSessionSlides(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	now := t0
	tokens := auth.NewTokenManager("test-secret", time.Hour).WithClock(func() time.Time { return now })
	h := Auth(tokens, fakeSessions{user: &alex})(http.HandlerFunc(echoUser))

	call := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	original, err := tokens.Issue(alex)
	require.NoError(t, err)

	now = t0.Add(50 * time.Minute)
	rec := call(original)
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := rec.Header().Get(SessionTokenHeader)
	require.NotEmpty(t, refreshed)

	// past the original token's lifetime, the session is still live
	now = t0.Add(90 * time.Minute)
	assert.Equal(t, http.StatusUnauthorized, call(original).Code)
	rec = call(refreshed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TECH-002", rec.Body.String())

	claims, err := tokens.Validate(rec.Header().Get(SessionTokenHeader))
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestAuth_NoRefreshWithoutSession(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	token, err := tokens.Issue(alex)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	Auth(tokens, fakeSessions{})(http.HandlerFunc(echoUser)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get(SessionTokenHeader))
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), alex)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := models.User{Name: "Admin User", TechnicianID: "TECH-001", Role: models.RoleAdmin}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), admin)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	hit := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, hit("10.0.0.1:5000"))
	assert.Equal(t, http.StatusNoContent, hit("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:5002"), "same host, different port")
	assert.Equal(t, http.StatusNoContent, hit("10.0.0.2:5000"))

	assert.Equal(t, 0, rl.Cleanup(time.Hour))
	assert.Equal(t, 2, rl.Cleanup(0))
}

func TestRequestLogger_PassesStatusThrough(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/todos", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
