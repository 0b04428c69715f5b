package shared

// DomainError represents a domain-level error
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

// NewValidationError creates a validation error (rejected before any side effect)
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: "VALIDATION_ERROR", Message: message}
}

// NewNotFoundError creates a not-found error for a named resource
func NewNotFoundError(message string) *DomainError {
	return &DomainError{Code: "NOT_FOUND", Message: message}
}

// NewConflictError creates a conflict error (policy violation, nothing written)
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: "CONFLICT", Message: message}
}

// NewTransientStorageError wraps a durable-write failure. The operation is
// retryable by the caller; no partial write occurred.
func NewTransientStorageError(message string) *DomainError {
	return &DomainError{Code: "STORAGE_TRANSIENT", Message: message}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrTenantMismatch      = NewDomainError("TENANT_MISMATCH", "Resource belongs to a different tenant")
)

// IsValidationError reports whether err is a validation error
func IsValidationError(err error) bool {
	return hasCode(err, "VALIDATION_ERROR", "INVALID_INPUT", "INVALID_AMOUNT", "INVALID_PHONE")
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return hasCode(err, "NOT_FOUND")
}

// IsConflict reports whether err is a conflict error
func IsConflict(err error) bool {
	return hasCode(err, "CONFLICT", "ALREADY_EXISTS", "CONCURRENCY_CONFLICT", "OVERPAYMENT_NOT_ALLOWED")
}

// IsTransientStorage reports whether err is a retryable storage failure
func IsTransientStorage(err error) bool {
	return hasCode(err, "STORAGE_TRANSIENT")
}

func hasCode(err error, codes ...string) bool {
	de, ok := err.(*DomainError)
	if !ok {
		return false
	}
	for _, c := range codes {
		if de.Code == c {
			return true
		}
	}
	return false
}
