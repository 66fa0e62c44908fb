package domain

import "errors"

// Domain errors - represent business rule violations.
var (
	// ErrValidation is returned for caller-fixable input problems, before any
	// external request is made.
	ErrValidation = errors.New("validation failed")

	// ErrUpstream is returned when the payment provider rejects or fails a request.
	ErrUpstream = errors.New("payment provider error")

	// ErrAuthenticity is returned when a webhook signature does not verify.
	ErrAuthenticity = errors.New("webhook authenticity check failed")

	// ErrDataIntegrity is returned when an authenticated event carries
	// missing or malformed data.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrDuplicateSession is returned when an order already exists for a payment session.
	ErrDuplicateSession = errors.New("order already recorded for payment session")

	// ErrInvalidTransition is returned for order status changes the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid order status transition")

	ErrOrderNotFound   = errors.New("order not found")
	ErrVariantNotFound = errors.New("variant not found")

	// ErrStockCeiling is returned when a cart line would exceed available stock.
	ErrStockCeiling = errors.New("quantity exceeds available stock")

	ErrLineNotFound = errors.New("cart line not found")

	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotification is returned when the shipment notice cannot be delivered.
	ErrNotification = errors.New("shipment notification failed")
)

// ServiceError wraps errors with additional context.
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(err error, message, code string) *ServiceError {
	return &ServiceError{Err: err, Message: message, Code: code}
}

// ErrorCode returns the machine readable code carried by err, if any.
func ErrorCode(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
