package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var privilegedFields = []string{"role", "credit"}

// RejectPrivilegedFields refuses JSON bodies that try to set a user's role or
// credit, and logs the client IP. Falsy values (0, "", false, null) pass, so
// a client echoing back its own zero balance is not refused.
func RejectPrivilegedFields(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.ContentLength == 0 {
				return next(c)
			}

			raw, err := io.ReadAll(req.Body)
			_ = req.Body.Close()
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					// BodyLimit reports an oversized body through the reader
					return he
				}
				return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
			}
			req.Body = io.NopCloser(bytes.NewReader(raw))

			var body map[string]any
			if json.Unmarshal(raw, &body) != nil {
				// not an object; let the handler's binder report it
				return next(c)
			}
			for _, f := range privilegedFields {
				if truthy(body[f]) {
					log.Warn().Str("ip", c.RealIP()).Str("field", f).Str("path", c.Path()).Msg("privileged field in request body")
					return echo.NewHTTPError(http.StatusBadRequest, "Could not proceed")
				}
			}
			return next(c)
		}
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
