package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	calendardomain "github.com/paycalhq/paycal/internal/calendar/domain"
	obligationdomain "github.com/paycalhq/paycal/internal/obligation/domain"
	paymentdomain "github.com/paycalhq/paycal/internal/payment/domain"
	scheduledomain "github.com/paycalhq/paycal/internal/schedule/domain"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

type apiError struct {
	status  int
	code    string
	message string
	field   string
}

func (e *apiError) Error() string { return e.code }

func newValidationError(field, code, message string) error {
	return &apiError{
		status:  http.StatusBadRequest,
		code:    code,
		message: message,
		field:   field,
	}
}

func invalidRequestError() error {
	return &apiError{
		status:  http.StatusBadRequest,
		code:    "invalid_request",
		message: "request body could not be parsed",
	}
}

// AbortWithError maps a domain error onto an HTTP response and stops the
// handler chain.
func AbortWithError(c *gin.Context, err error) {
	status, code, message, field := classify(err)
	body := gin.H{"error": gin.H{"code": code, "message": message}}
	if field != "" {
		body["error"].(gin.H)["field"] = field
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, string, string, string) {
	var api *apiError
	if errors.As(err, &api) {
		return api.status, api.code, api.message, api.field
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "missing or invalid API key", ""
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found", "resource not found", ""
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded", ""
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable", "service not ready", ""

	case errors.Is(err, scheduledomain.ErrRuleNotFound),
		errors.Is(err, obligationdomain.ErrRuleNotFound),
		errors.Is(err, obligationdomain.ErrObligationNotFound):
		return http.StatusNotFound, err.Error(), "resource not found", ""

	case errors.Is(err, obligationdomain.ErrObligationExists):
		return http.StatusConflict, err.Error(), "an unresolved obligation already exists for this occurrence", ""
	case errors.Is(err, scheduledomain.ErrRuleAlreadyStopped),
		errors.Is(err, obligationdomain.ErrNotUnresolved),
		errors.Is(err, obligationdomain.ErrAlreadyResolved),
		errors.Is(err, obligationdomain.ErrNotSettled):
		return http.StatusConflict, err.Error(), "state transition not allowed", ""

	case errors.Is(err, paymentdomain.ErrProviderUnknown):
		return http.StatusNotFound, err.Error(), "unknown payment provider", ""
	case errors.Is(err, paymentdomain.ErrSignatureInvalid),
		errors.Is(err, paymentdomain.ErrSignatureExpired):
		return http.StatusUnauthorized, err.Error(), "webhook signature rejected", ""

	case errors.Is(err, scheduledomain.ErrInvalidOrganization),
		errors.Is(err, obligationdomain.ErrInvalidOrganization),
		errors.Is(err, calendardomain.ErrInvalidOrganization):
		return http.StatusUnauthorized, "unauthorized", "organization could not be resolved", ""

	case errors.Is(err, scheduledomain.ErrInvalidClientName),
		errors.Is(err, scheduledomain.ErrInvalidAmount),
		errors.Is(err, scheduledomain.ErrInvalidCurrency),
		errors.Is(err, scheduledomain.ErrInvalidFrequency),
		errors.Is(err, scheduledomain.ErrInvalidStartDate),
		errors.Is(err, scheduledomain.ErrInvalidExcludedDate),
		errors.Is(err, scheduledomain.ErrInvalidRuleID),
		errors.Is(err, obligationdomain.ErrInvalidObligationID),
		errors.Is(err, obligationdomain.ErrInvalidRuleID),
		errors.Is(err, obligationdomain.ErrInvalidDueDate),
		errors.Is(err, obligationdomain.ErrInvalidAmountPaid),
		errors.Is(err, obligationdomain.ErrMissingWriteOffNote),
		errors.Is(err, obligationdomain.ErrInvalidStatus),
		errors.Is(err, calendardomain.ErrInvalidWindow),
		errors.Is(err, paymentdomain.ErrPayloadInvalid):
		return http.StatusBadRequest, err.Error(), "request validation failed", ""
	}

	return http.StatusInternalServerError, "internal_error", "internal server error", ""
}
