package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hourbank/timebank/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    int
		status  string
		message string
	}{
		{"validation", domain.Validation("rating must be between 1 and 5"), http.StatusBadRequest, "fail", "rating must be between 1 and 5"},
		{"business rule", domain.ErrApprovalExpired, http.StatusBadRequest, "fail", domain.ErrApprovalExpired.Message},
		{"unauthorized", domain.ErrNotOrderSender, http.StatusUnauthorized, "fail", domain.ErrNotOrderSender.Message},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "fail", domain.ErrForbidden.Message},
		{"not found", domain.ErrOrderNotFound, http.StatusNotFound, "fail", "order not found"},
		{"conflict", domain.ErrUserExists, http.StatusConflict, "fail", domain.ErrUserExists.Message},
		{"wrapped", fmt.Errorf("send: %w", domain.ErrSelfOrder), http.StatusBadRequest, "fail", domain.ErrSelfOrder.Message},
		{"internal operational", domain.ErrTransferFailed, http.StatusInternalServerError, "error", domain.ErrTransferFailed.Message},
		{"unexpected", errors.New("mongo: connection reset"), http.StatusInternalServerError, "error", "something went wrong"},
		{"echo error", echo.NewHTTPError(http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests, "fail", "slow down"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Status != tc.status || resp.Message != tc.message {
				t.Fatalf("unexpected envelope: %+v", resp)
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.NoContent(http.StatusNoContent)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrOrderNotFound, c)

	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("committed response must be left alone, got %d %q", rec.Code, rec.Body.String())
	}
}
