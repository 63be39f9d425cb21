package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"welfare-app-go/internal/auth"
	"welfare-app-go/internal/domain/member"
	"welfare-app-go/internal/ratelimit"
	"welfare-app-go/pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	handler := NewCORS([]string{"https://app.test/"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.test")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCategory(t *testing.T) {
	var seen member.Category
	r := chi.NewRouter()
	r.With(Category).Get("/{category}", func(w http.ResponseWriter, r *http.Request) {
		seen = CategoryFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, member.CategoryDoctor, seen)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lawyers", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuth(t *testing.T) {
	tokens := auth.NewManager("middleware-secret", time.Hour)
	mw := NewAuth(tokens, logger.Nop())

	memberToken, err := tokens.Issue("m-1", string(member.CategoryEngineer))
	require.NoError(t, err)
	adminToken, err := tokens.Issue("root@welfare.test", member.RoleAdmin)
	require.NoError(t, err)

	var actor member.Actor
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name   string
		chain  http.Handler
		header string
		status int
		actor  member.Actor
	}{
		{name: "require missing", chain: mw.Require(capture), status: http.StatusUnauthorized},
		{name: "require malformed", chain: mw.Require(capture), header: "Token " + memberToken, status: http.StatusUnauthorized},
		{name: "require member", chain: mw.Require(capture), header: "Bearer " + memberToken, status: http.StatusOK, actor: member.Actor{ID: "m-1", Role: "engineer"}},
		{name: "optional anonymous", chain: mw.Optional(capture), status: http.StatusOK},
		{name: "optional invalid", chain: mw.Optional(capture), header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "admin rejects member", chain: mw.Require(RequireAdmin(capture)), header: "Bearer " + memberToken, status: http.StatusForbidden},
		{name: "admin allows admin", chain: mw.Require(RequireAdmin(capture)), header: "bearer " + adminToken, status: http.StatusOK, actor: member.Actor{ID: "root@welfare.test", Role: member.RoleAdmin}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			actor = member.Actor{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			tc.chain.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.actor, actor)
		})
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

type countingRecorder struct {
	scopes []string
}

func (r *countingRecorder) RecordRateLimited(scope string) {
	r.scopes = append(r.scopes, scope)
}

func TestRateLimit(t *testing.T) {
	recorder := &countingRecorder{}
	handler := RateLimit(ratelimit.NewMemoryLimiter(), "login", 2, time.Minute, recorder, logger.Nop())(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, []string{"login"}, recorder.scopes)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	handler := RateLimit(failingLimiter{}, "login", 1, time.Minute, nil, logger.Nop())(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
