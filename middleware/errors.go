package middleware

import (
	"errors"
	"immigration_crm_go/services"
	"immigration_crm_go/services/i18n"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// apiError is the translated form of an error
type apiError struct {
	status  int
	key     string
	field   string
	message string
}

var notFound = []error{
	services.ErrClientNotFound,
	services.ErrServiceNotFound,
	services.ErrMilestoneNotFound,
	services.ErrCaseNotFound,
	services.ErrLawyerNotFound,
	services.ErrCaseMilestoneNotFound,
	services.ErrUserNotFound,
	services.ErrNotificationNotFound,
	services.ErrSummaryNotFound,
	services.ErrExpenseNotFound,
}

var conflicts = []error{
	services.ErrClientEmailTaken,
	services.ErrClientHasCases,
	services.ErrDuplicateOrder,
	services.ErrUserEmailTaken,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func classify(err error) apiError {
	var ve *services.ValidationError
	var fieldErrs validator.ValidationErrors
	var he *echo.HTTPError

	switch {
	case errors.As(err, &ve):
		return apiError{status: http.StatusBadRequest, key: "errors.validation", field: ve.Field, message: ve.Message}
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		fe := fieldErrs[0]
		return apiError{status: http.StatusBadRequest, key: "errors.validation", field: fe.Field(), message: "failed " + fe.Tag()}
	case isAny(err, notFound):
		return apiError{status: http.StatusNotFound, key: "errors.not_found"}
	case isAny(err, conflicts):
		return apiError{status: http.StatusConflict, key: "errors.conflict", message: err.Error()}
	case errors.Is(err, services.ErrInvalidCredentials):
		return apiError{status: http.StatusUnauthorized, key: "errors.invalid_credentials"}
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrSessionExpired):
		return apiError{status: http.StatusUnauthorized, key: "errors.unauthorized"}
	case errors.Is(err, services.ErrNoServiceMapped):
		return apiError{status: http.StatusUnprocessableEntity, key: "errors.unprocessable", message: err.Error()}
	case errors.Is(err, services.ErrIngestionDisabled):
		return apiError{status: http.StatusServiceUnavailable, key: "errors.unavailable"}
	case errors.As(err, &he):
		switch he.Code {
		case http.StatusUnauthorized:
			return apiError{status: he.Code, key: "errors.unauthorized"}
		case http.StatusForbidden:
			return apiError{status: he.Code, key: "errors.forbidden"}
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			return apiError{status: he.Code, key: "errors.not_found"}
		case http.StatusTooManyRequests:
			return apiError{status: he.Code, key: "errors.rate_limited"}
		}
		if he.Code < http.StatusInternalServerError {
			return apiError{status: he.Code, key: "errors.bad_request"}
		}
	}
	return apiError{status: http.StatusInternalServerError, key: "errors.generic"}
}

// StatusFor returns the HTTP status an error is answered with
func StatusFor(err error) int {
	return classify(err).status
}

// ErrorHandler answers every error with a localized ErrorResponse.
// Server errors are logged and their detail is not sent.
func ErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		e := classify(err)
		if e.status >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).Error("Request failed")
		}

		ctx := c.Request().Context()
		body := ErrorResponse{
			Error: i18n.T(ctx, e.key, map[string]interface{}{"field": e.field, "message": e.message}),
			Field: e.field,
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(e.status)
		} else {
			writeErr = c.JSON(e.status, body)
		}
		if writeErr != nil {
			log.WithError(writeErr).Warn("Failed to write error response")
		}
	}
}
