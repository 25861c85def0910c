package handler

import (
	"github.com/labstack/echo/v4"
)

const statusSuccess = "success"

// successEnvelope wraps every successful payload: {"status":"success","data":{...}}.
type successEnvelope struct {
	Status string `json:"status" example:"success"`
	Data   any    `json:"data,omitempty"`
}

// errorEnvelope is documented here for swagger; it is rendered by the API error handler.
type errorEnvelope struct {
	Status  string `json:"status" example:"fail"`
	Message string `json:"message"`
}

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, successEnvelope{Status: statusSuccess, Data: data})
}
