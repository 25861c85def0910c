package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hourbank/timebank/internal/api/middleware"
)

// callerID returns the authenticated user's id injected by the Auth
// middleware, failing fast when the route was mounted without it.
func callerID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.ContextUserID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator, mapping failures to 400s.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return validationError(err)
	}
	return nil
}
