// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// Code is a stable machine-readable kind; Detail is for humans.
type APIError struct {
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func WithCode(code, msg string) *APIError {
	return &APIError{Code: code, Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Code: "validation_error", Detail: "validation failed", Fields: fields}
}

// StockError is returned when a sale or stock removal asks for more than is on hand.
type StockError struct {
	Code      string `json:"code"`
	Detail    string `json:"detail"`
	ProductID string `json:"product_id"`
	Product   string `json:"product"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}
