package errors

import "fmt"

// RetryExhaustedError is raised when the commit protocol's
// conflict-retry loop exceeds its retry budget.
type RetryExhaustedError struct {
	Attempts  int
	LastError error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("commit retry exhausted after %d attempts: %v", e.Attempts, e.LastError)
}

func (e *RetryExhaustedError) Unwrap() error { return e.LastError }

func (e *RetryExhaustedError) Transform() *Error {
	return New(CommonRetryExhausted, e.Error(), e.LastError).
		AddContext("attempts", e.Attempts)
}

// TransactionFailedError is raised when a mid-commit I/O failure leaves
// files possibly orphaned and cleanup could not be guaranteed.
type TransactionFailedError struct {
	WrittenFiles []string
	CleanupOK    bool
	Cause        error
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("commit transaction failed (cleanup_ok=%t, written=%d): %v",
		e.CleanupOK, len(e.WrittenFiles), e.Cause)
}

func (e *TransactionFailedError) Unwrap() error { return e.Cause }

func (e *TransactionFailedError) Transform() *Error {
	return New(CommonTransactionFailed, e.Error(), e.Cause).
		AddContext("written_files", e.WrittenFiles).
		AddContext("cleanup_ok", e.CleanupOK)
}

// Convenience constructors for the common error codes.

func NotFound(message string) *Error            { return New(CommonNotFound, message, nil) }
func AlreadyExists(message string) *Error       { return New(CommonAlreadyExists, message, nil) }
func NotEmpty(message string) *Error            { return New(CommonNotEmpty, message, nil) }
func Conflict(message string) *Error            { return New(CommonConflict, message, nil) }
func InvalidInput(message string) *Error        { return New(CommonInvalidInput, message, nil) }
func IncompatibleType(message string) *Error    { return New(CommonIncompatibleType, message, nil) }
func IdentifierProtected(message string) *Error { return New(CommonIdentifierProtected, message, nil) }

// IsCode reports whether err (or any error in its Unwrap chain) is an
// *Error carrying the given Code.
func IsCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code.Equals(code) {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return false
}
