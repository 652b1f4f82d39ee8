package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure of the analysis pipeline.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindExtraction        Kind = "EXTRACTION_FAILURE"
	KindQualityGate       Kind = "QUALITY_GATE_FAILURE"
	KindAnalysis          Kind = "ANALYSIS_ERROR"
	KindMalformedResponse Kind = "MALFORMED_RESPONSE"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// AppError carries a user-facing message and the technical cause separately.
type AppError struct {
	Kind    Kind
	Message string
	Details string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode maps the kind onto an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindQualityGate:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the technical detail, falling back to the cause text.
func (e *AppError) Detail() string {
	if e.Details != "" {
		return e.Details
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return ""
}

func New(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewExtractionFailure(strategy string, cause error) *AppError {
	return &AppError{
		Kind:    KindExtraction,
		Message: fmt.Sprintf("text extraction failed (%s)", strategy),
		Cause:   cause,
	}
}

func NewQualityGateFailure(source string, length, minimum int) *AppError {
	return &AppError{
		Kind:    KindQualityGate,
		Message: fmt.Sprintf("Failed to extract meaningful text from %s. Please upload a clearer file.", source),
		Details: fmt.Sprintf("extracted %d characters, minimum is %d", length, minimum),
	}
}

func NewAnalysisError(cause error) *AppError {
	return &AppError{
		Kind:    KindAnalysis,
		Message: "Failed to analyze document",
		Cause:   cause,
	}
}

func NewMalformedResponseError(raw string, cause error) *AppError {
	return &AppError{
		Kind:    KindMalformedResponse,
		Message: "Invalid response format from analysis backend",
		Details: raw,
		Cause:   cause,
	}
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
