package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
// A duplicate-key violation on one of the idempotency gates maps to this error.
var ErrDuplicate = errors.New("resource already exists")

// ErrMaxRetries indicates that a queue record has exhausted its retry budget.
var ErrMaxRetries = errors.New("maximum retry attempts exceeded")

// ErrTransient indicates a recoverable failure from an external system
// (network error, timeout, 5xx). Callers may retry with backoff.
var ErrTransient = errors.New("transient external error")

// ErrTimeout indicates that an operation exceeded its time budget.
var ErrTimeout = errors.New("operation timed out")

// ErrAlreadyRunning indicates that a single-instance job rejected an
// overlapping invocation.
var ErrAlreadyRunning = errors.New("job is already running")
