package analysis

import (
	"errors"
	"fmt"
)

// Validation rule identifiers, surfaced in error responses.
const (
	RuleEmptyKey            = "empty_file_key"
	RuleKeyTooLong          = "file_key_too_long"
	RuleNotPDF              = "not_a_pdf"
	RulePathTraversal       = "path_traversal"
	RuleObjectTooLarge      = "object_too_large"
	RuleInsufficientContent = "insufficient_content"
)

// ValidationError is client-caused, never retried, always 4xx.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Rule, e.Message)
}

// NewValidationError builds a ValidationError for a rule.
func NewValidationError(rule, message string) *ValidationError {
	return &ValidationError{Rule: rule, Message: message}
}

var (
	// ErrObjectNotFound: the referenced file does not exist in storage.
	ErrObjectNotFound = errors.New("referenced file not found in storage")

	// ErrNoPendingDocument: no upload notification queued for the caller.
	ErrNoPendingDocument = errors.New("no document processing request found")

	// ErrExtractionFailed: text extraction failed (corrupt file, timeout). Not retried.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrUpstreamUnavailable: AI capability still failing after bounded retries.
	ErrUpstreamUnavailable = errors.New("upstream ai capability unavailable")

	// ErrUpstreamTransient marks a retryable summarization failure (timeout, rate limit).
	ErrUpstreamTransient = errors.New("transient upstream failure")

	// ErrMatchingFailed: corpus matching failed; a defect, not a transient error.
	ErrMatchingFailed = errors.New("statutory matching failed")

	// ErrWaitTimeout: the request-scoped wait expired; the job keeps running.
	ErrWaitTimeout = errors.New("analysis still in progress, retry later")
)
