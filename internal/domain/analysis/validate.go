package analysis

import (
	"fmt"
	"strings"
)

const (
	// MaxFileKeyLen caps the storage key length.
	MaxFileKeyLen = 500
	// MaxObjectSize caps the uploaded document size (50 MB).
	MaxObjectSize = 50 * 1024 * 1024
	// MinContentLen is the minimum extracted text length for a usable document.
	MinContentLen = 50
)

// ValidateFileKey checks the structural rules for a file key, in order,
// short-circuiting on the first failure. No side effects, no storage access.
func ValidateFileKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return NewValidationError(RuleEmptyKey, "file key cannot be empty")
	}
	if len(key) > MaxFileKeyLen {
		return NewValidationError(RuleKeyTooLong,
			fmt.Sprintf("file key exceeds %d characters", MaxFileKeyLen))
	}
	if !strings.HasSuffix(strings.ToLower(key), ".pdf") {
		return NewValidationError(RuleNotPDF, "only PDF files are supported")
	}
	// interior "/" is a storage namespace separator and allowed;
	// "..", backslashes and absolute keys are not
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.HasPrefix(key, "/") {
		return NewValidationError(RulePathTraversal, "invalid file key format")
	}
	return nil
}

// ValidateObjectSize checks the size cap against storage metadata, not content.
func ValidateObjectSize(size int64) error {
	if size > MaxObjectSize {
		return NewValidationError(RuleObjectTooLarge,
			"file size exceeds maximum limit of 50MB")
	}
	return nil
}

// ValidateContent checks the extracted text is long enough to analyze.
func ValidateContent(text string) error {
	if len(strings.TrimSpace(text)) < MinContentLen {
		return NewValidationError(RuleInsufficientContent,
			"the uploaded document contains insufficient readable text (minimum 50 characters required)")
	}
	return nil
}
