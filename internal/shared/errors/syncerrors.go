package errors

import (
	"fmt"
	"net/http"
)

// Reconciliation-specific error types. All of these are object-scoped: they
// fail one object within a run, never the run itself (unless the run profile
// disables continue-on-failure).
const (
	ErrorTypeScoping             ErrorType = "scoping_error"
	ErrorTypeMapping             ErrorType = "mapping_error"
	ErrorTypeAmbiguousJoin       ErrorType = "ambiguous_join"
	ErrorTypeConnector           ErrorType = "connector_error"
	ErrorTypeConcurrencyConflict ErrorType = "concurrency_conflict"
)

// SyncError wraps an AppError with reconciliation context. Retryable marks
// errors that are expected to succeed on a later run without operator action.
type SyncError struct {
	*AppError
	// Retryable errors are re-attempted on the next run automatically.
	Retryable bool
	// ObjectSID identifies the object whose processing failed, when known.
	ObjectSID string
}

// Error implements the error interface
func (e *SyncError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to reach the embedded AppError.
func (e *SyncError) Unwrap() error {
	return e.AppError
}

// NewScopingError reports scoping criteria that referenced an attribute the
// object does not carry. The object is treated as out of scope.
func NewScopingError(attributeName string) *SyncError {
	return &SyncError{
		AppError: &AppError{
			Type:    ErrorTypeScoping,
			Message: "scoping criteria referenced a missing attribute",
			Code:    http.StatusUnprocessableEntity,
			Details: attributeName,
		},
		Retryable: false,
	}
}

// NewMappingError reports a function or type-conversion failure while
// resolving one mapping. The mapping's target stays unresolved; other
// mappings for the object continue.
func NewMappingError(targetAttribute string, cause error) *SyncError {
	detail := targetAttribute
	if cause != nil {
		detail = fmt.Sprintf("%s: %v", targetAttribute, cause)
	}
	return &SyncError{
		AppError: &AppError{
			Type:    ErrorTypeMapping,
			Message: "attribute flow mapping failed",
			Code:    http.StatusUnprocessableEntity,
			Details: detail,
		},
		Retryable: false,
	}
}

// NewAmbiguousJoinError reports a join condition that matched more than one
// hub object. The external object is left unjoined and surfaced to the
// operator; it is never silently joined to an arbitrary candidate.
func NewAmbiguousJoinError(uniqueID string, candidates int) *SyncError {
	return &SyncError{
		AppError: &AppError{
			Type:    ErrorTypeAmbiguousJoin,
			Message: "join condition matched multiple hub objects",
			Code:    http.StatusConflict,
			Details: fmt.Sprintf("object %q matched %d candidates", uniqueID, candidates),
		},
		Retryable: false,
	}
}

// NewConnectorError reports a failed or timed-out connector boundary call.
func NewConnectorError(operation string, cause error) *SyncError {
	detail := operation
	if cause != nil {
		detail = fmt.Sprintf("%s: %v", operation, cause)
	}
	return &SyncError{
		AppError: &AppError{
			Type:    ErrorTypeConnector,
			Message: "connector call failed",
			Code:    http.StatusBadGateway,
			Details: detail,
		},
		Retryable: true,
	}
}

// NewConcurrencyConflictError reports an optimistic version mismatch on
// write. The caller retries once with a fresh read before surfacing this.
func NewConcurrencyConflictError(objectSID string) *SyncError {
	return &SyncError{
		AppError: &AppError{
			Type:    ErrorTypeConcurrencyConflict,
			Message: "concurrent write detected",
			Code:    http.StatusConflict,
			Details: objectSID,
		},
		Retryable: true,
		ObjectSID: objectSID,
	}
}

// IsConcurrencyConflict checks if the error is an optimistic locking conflict.
func IsConcurrencyConflict(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeConcurrencyConflict
}

// IsAmbiguousJoin checks if the error is an ambiguous join error.
func IsAmbiguousJoin(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeAmbiguousJoin
}

// IsScopingError checks if the error is a scoping error.
func IsScopingError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeScoping
}

// IsMappingError checks if the error is an attribute flow mapping error.
func IsMappingError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeMapping
}
