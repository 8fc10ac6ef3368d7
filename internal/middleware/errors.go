package middleware

import (
	"encoding/json"
	"net/http"
)

// Stable machine-readable error codes carried by every non-2xx response.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeHTTPException   = "HTTP_EXCEPTION"
	CodeInternalError   = "INTERNAL_ERROR"
)

// ErrorResponse is the error envelope for all non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteJSONError writes the error envelope.
func WriteJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}
