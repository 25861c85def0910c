package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type stubCounter struct {
	hits map[string]int64
	err  error
}

func (s *stubCounter) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s.err != nil {
		return 0, 0, s.err
	}
	s.hits[key]++
	return s.hits[key], window, nil
}

func runLimited(t *testing.T, mw echo.MiddlewareFunc, ip string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return rec, err
}

func TestRateLimit_BlocksAfterMax(t *testing.T) {
	counter := &stubCounter{hits: map[string]int64{}}
	mw := RateLimit(counter, RateLimitConfig{Max: 2, Window: time.Hour}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		rec, err := runLimited(t, mw, "10.0.0.1")
		if err != nil || rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d (%v)", i, rec.Code, err)
		}
	}

	rec, err := runLimited(t, mw, "10.0.0.1")
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") != "3600" {
		t.Fatalf("expected Retry-After 3600, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected no remaining requests, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}

	// a different client has its own window
	if rec, err := runLimited(t, mw, "10.0.0.2"); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("other ip must not be limited")
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	counter := &stubCounter{err: errors.New("redis down")}
	mw := RateLimit(counter, RateLimitConfig{Max: 1, Window: time.Hour}, zerolog.Nop())

	rec, err := runLimited(t, mw, "10.0.0.1")
	if err != nil || rec.Code != http.StatusOK {
		t.Fatalf("expected request through when counter fails, got %d (%v)", rec.Code, err)
	}
}
