package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Lifeline error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrInternal        ErrorCode = "INTERNAL"         // 500
	ErrStoreUnwritable ErrorCode = "STORE_UNWRITABLE" // 507
)

// LifelineError represents a structured error with code, status, and details.
type LifelineError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *LifelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *LifelineError {
	return &LifelineError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNoSnapshot creates a 404 error for when no latest snapshot exists in a store.
func NewNoSnapshot(latestPath string) *LifelineError {
	return &LifelineError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("No snapshot found at %s. Run: lifeline save", latestPath),
		Details: map[string]any{"path": latestPath},
	}
}

// NewFileNotFound creates a 404 error for a missing input file.
func NewFileNotFound(path string) *LifelineError {
	return &LifelineError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewStoreUnwritable creates a 507 error when the snapshot store cannot be created or written.
// This is the only error class that aborts a save.
func NewStoreUnwritable(path string, err error) *LifelineError {
	msg := fmt.Sprintf("cannot write snapshot store at %s", path)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &LifelineError{
		Code:    ErrStoreUnwritable,
		Status:  507,
		Message: msg,
		Details: map[string]any{"path": path},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *LifelineError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &LifelineError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// As extracts a LifelineError from err, unwrapping as needed.
func As(err error) (*LifelineError, bool) {
	var lErr *LifelineError
	if stderrors.As(err, &lErr) {
		return lErr, true
	}
	return nil, false
}

// Is checks if an error is (or wraps) a LifelineError with the given code.
func Is(err error, code ErrorCode) bool {
	if lErr, ok := As(err); ok {
		return lErr.Code == code
	}
	return false
}
