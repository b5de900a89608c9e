package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

type requestError struct {
	Status  int
	Message string
	Code    int
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

func writeError(c echo.Context, status int, message string, code int) error {
	return c.JSON(status, errorBody{Error: message, Code: code})
}

// jsonErrorHandler renders every failure, including echo's own, as {"error": "..."}.
func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		status := reqErr.Status
		if status < 100 || status > 999 {
			slog.Error("backend reported an invalid status", "status", status)
			status = http.StatusBadGateway
		}
		_ = writeError(c, status, reqErr.Message, reqErr.Code)
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
		_ = writeError(c, he.Code, message, 0)
		return
	}

	slog.Error("unhandled server error", "err", err)
	_ = writeError(c, http.StatusInternalServerError, msgInternalServer, 0)
}
