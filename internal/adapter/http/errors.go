package http

import (
	"errors"
	"log/slog"
	"net/http"

	"mediatheque/internal/domain/apperr"
	"mediatheque/pkg/id"

	"github.com/labstack/echo/v4"
)

var (
	errInvalidID   = apperr.New(apperr.KindValidation, "INVALID_ID", "invalid id format")
	errInvalidBody = apperr.New(apperr.KindValidation, "INVALID_BODY", "invalid body")
	errValidation  = apperr.New(apperr.KindValidation, "VALIDATION_FAILED", "validation failed")
	errInvalidType = apperr.New(apperr.KindValidation, "INVALID_TYPE", "type must be one of: book magazine dvd")
	errInvalidBool = apperr.New(apperr.KindValidation, "INVALID_AVAILABLE", "available must be true or false")
)

func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindStateViolation, apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindDuplicateKey:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorResponse whose status follows its kind.
// Internal errors are logged and never leak their cause.
func respondError(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "code", apperr.CodeOf(err), "err", err)
	}
	return c.JSON(status, ErrorResponse{Error: apperr.MessageOf(err), Code: apperr.CodeOf(err)})
}

func respondInvalid(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   errValidation.Message,
		Code:    errValidation.Code,
		Details: ToFieldErrors(err),
	})
}

// bindValid binds the JSON body into dst and runs the registered validator.
// It writes the 400 itself and reports false when the request is rejected.
func bindValid(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, respondError(c, apperr.Wrap(errInvalidBody, err))
	}
	if err := c.Validate(dst); err != nil {
		return false, respondInvalid(c, err)
	}
	return true, nil
}

// pathID reads :id and rejects anything that is not a record id.
func pathID(c echo.Context) (string, error) {
	v := c.Param("id")
	if !id.Valid(v) {
		return "", errInvalidID
	}
	return v, nil
}

// ErrorHandler renders errors that reach echo (unknown routes, bad methods,
// timeouts, panics recovered upstream) with the same body shape.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, ErrorResponse{Error: msg, Code: codeForStatus(he.Code)})
		}
		if werr != nil {
			slog.Warn("write error response", "err", werr)
		}
		return
	}
	if werr := respondError(c, err); werr != nil {
		slog.Warn("write error response", "err", werr)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "ROUTE_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL"
	}
	return "BAD_REQUEST"
}
