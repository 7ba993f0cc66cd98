package shared

// DomainError represents a domain-level error with a stable code that
// callers can branch on without string-matching the message.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidInput    = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrNegativeAmount  = NewDomainError("NEGATIVE_AMOUNT", "Amount cannot be negative")
	ErrRateExceeds100  = NewDomainError("RATE_EXCEEDS_100", "Discount rate cannot exceed 100%")
	ErrRateExceeds200  = NewDomainError("RATE_EXCEEDS_200", "Surcharge rate cannot exceed 200%")
	ErrFixedExceedsMax = NewDomainError("FIXED_EXCEEDS_MAX", "Fixed amount exceeds the allowed maximum")
	ErrInvalidBucket   = NewDomainError("INVALID_BUCKET", "Time bucket must be one of hour, day, month, year")
	ErrInvalidCurrency = NewDomainError("INVALID_CURRENCY", "Currency is not supported")
)
