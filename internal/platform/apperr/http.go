package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Problem is the JSON error body returned for every failed request.
type Problem struct {
	Status   int    `json:"status"`
	Title    string `json:"title"`
	Instance string `json:"instance,omitempty"`
}

// statusFor maps an error kind to its HTTP status code. OperationInProgress
// and ReplayedFailure are conflict-class responses; the title distinguishes
// them for the client.
func statusFor(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindVersionMismatch:
		return http.StatusPreconditionFailed
	case KindConflict, KindOperationInProgress, KindReplayedFailure:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler returns an echo error handler that maps classified errors
// to HTTP responses. Internal errors are logged in full and surfaced as a
// generic failure; all other kinds surface their message.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		title := "an unexpected error occurred"

		var ae *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = statusFor(ae.Kind())
			if ae.Kind() == KindInternal {
				logger.Error().
					Err(err).
					Str("path", c.Request().URL.Path).
					Str("kind", ae.Kind().String()).
					Msg("internal error")
			} else {
				title = ae.Message()
			}
		case errors.As(err, &he):
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				title = msg
			}
		default:
			logger.Error().
				Err(err).
				Str("path", c.Request().URL.Path).
				Msg("unclassified error")
		}

		_ = c.JSON(status, Problem{
			Status:   status,
			Title:    title,
			Instance: c.Request().URL.Path,
		})
	}
}
