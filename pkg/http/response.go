package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorEnvelope is the JSON error shape the dashboard expects.
type ErrorEnvelope struct {
	Error string `json:"error"`
}

// SuccessResponse writes the payload raw; the dashboard contract has no
// wrapper object.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// NoContentResponse writes no content response.
func NoContentResponse(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// ErrorResponse converts any error into the error envelope at its mapped
// status. Unknown errors become opaque 500s so internals never leak.
func ErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, ErrorEnvelope{Error: appErr.Message})
	}
	return c.JSON(http.StatusInternalServerError, ErrorEnvelope{Error: "internal server error"})
}

// ValidationErrorResponse writes a 400 envelope from the validation result
// returned by ReadAndValidateRequest.
func ValidationErrorResponse(c echo.Context, verr interface{}) error {
	msg := "invalid request"
	if errs, ok := verr.([]ValidationError); ok && len(errs) > 0 {
		msg = errs[0].Message
	}
	return c.JSON(http.StatusBadRequest, ErrorEnvelope{Error: msg})
}

// TooManyRequestsResponse writes a 429 envelope.
func TooManyRequestsResponse(c echo.Context) error {
	return c.JSON(http.StatusTooManyRequests, ErrorEnvelope{Error: "rate limit exceeded"})
}
