package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutdomain "github.com/zalingo/billing/internal/checkout/domain"
	entitlementdomain "github.com/zalingo/billing/internal/entitlement/domain"
	obscontext "github.com/zalingo/billing/internal/observability/context"
	paymentdomain "github.com/zalingo/billing/internal/payment/domain"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrTooManyRequests    = errors.New("too_many_requests")
)

// ValidationError carries a field-level rejection back to the caller.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Code
}

func newValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

func invalidRequestError() *ValidationError {
	return newValidationError("", "invalid_request", "request body could not be parsed")
}

// AbortWithError maps a domain error onto the HTTP surface. Signature
// and payload failures stay 4xx so the provider does not retry them;
// storage failures stay 5xx so it does.
func AbortWithError(c *gin.Context, err error) {
	var validation *ValidationError
	if errors.As(err, &validation) {
		abortJSON(c, http.StatusBadRequest, validation.Code, validation.Message, validation.Field)
		return
	}

	switch {
	case errors.Is(err, entitlementdomain.ErrInvalidCustomer),
		errors.Is(err, checkoutdomain.ErrInvalidPrice):
		abortJSON(c, http.StatusBadRequest, err.Error(), "request rejected", "")
	case errors.Is(err, paymentdomain.ErrInvalidSignature),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidEvent):
		abortJSON(c, http.StatusBadRequest, rootCode(err), "event rejected", "")
	case errors.Is(err, checkoutdomain.ErrRemoteSession):
		abortJSON(c, http.StatusBadGateway, checkoutdomain.ErrRemoteSession.Error(), err.Error(), "")
	case errors.Is(err, entitlementdomain.ErrNotFound), errors.Is(err, ErrNotFound):
		abortJSON(c, http.StatusNotFound, "not_found", "resource not found", "")
	case errors.Is(err, ErrTooManyRequests):
		abortJSON(c, http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded", "")
	case errors.Is(err, ErrServiceUnavailable):
		abortJSON(c, http.StatusServiceUnavailable, "service_unavailable", "storage unavailable, retry later", "")
	default:
		abortJSON(c, http.StatusInternalServerError, "internal_error", "internal error", "")
	}
}

// rootCode returns the sentinel's code for wrapped errors without
// leaking wrap detail to the caller.
func rootCode(err error) string {
	for _, sentinel := range []error{
		paymentdomain.ErrInvalidSignature,
		paymentdomain.ErrInvalidPayload,
		paymentdomain.ErrInvalidEvent,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// abortJSON echoes the request id so callers can quote it in support
// requests.
func abortJSON(c *gin.Context, status int, code, message, field string) {
	body := gin.H{"code": code, "message": message}
	if field != "" {
		body["field"] = field
	}
	if requestID := obscontext.RequestIDFromGin(c); requestID != "" {
		body["request_id"] = requestID
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
