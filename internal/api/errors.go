package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is the machine-readable code carried by the itinerary envelope.
type ErrorCode string

const (
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodeAIService       ErrorCode = "AI_SERVICE_ERROR"
	CodeResponseParsing ErrorCode = "RESPONSE_PARSING_ERROR"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeTripNotFound    ErrorCode = "TRIP_NOT_FOUND"
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"
)

// PlatformCode is the typed error status used by the food, promo and notification endpoints.
type PlatformCode string

const (
	PlatformInvalidArgument    PlatformCode = "invalid-argument"
	PlatformUnauthenticated    PlatformCode = "unauthenticated"
	PlatformPermissionDenied   PlatformCode = "permission-denied"
	PlatformNotFound           PlatformCode = "not-found"
	PlatformFailedPrecondition PlatformCode = "failed-precondition"
	PlatformInternal           PlatformCode = "internal"
	PlatformUnavailable        PlatformCode = "unavailable"
	PlatformResourceExhausted  PlatformCode = "resource-exhausted"
)

var (
	ErrEmptyResponse     = errors.New("empty response from AI model")
	ErrMalformedResponse = errors.New("invalid JSON response from AI model")
	ErrSchemaViolation   = errors.New("invalid response structure from AI model")
)

type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every violated field constraint of a request.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "Invalid request: " + strings.Join(msgs, ", ")
}

// NewValidationError builds a single-violation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Violations: []FieldViolation{{Field: field, Rule: "custom", Message: message}}}
}

type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return e.Message }

// ModelServiceError wraps every failure of a generative model call.
type ModelServiceError struct {
	Err error
}

func (e *ModelServiceError) Error() string { return e.Err.Error() }
func (e *ModelServiceError) Unwrap() error { return e.Err }

// Parsing reports whether the model answered but its output was unusable.
func (e *ModelServiceError) Parsing() bool {
	return errors.Is(e.Err, ErrMalformedResponse) || errors.Is(e.Err, ErrSchemaViolation)
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

// RateLimitError is returned when a caller exceeds its request quota.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string { return e.Message }

// InternalError carries a caller-safe message and the underlying cause.
type InternalError struct {
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// EnvelopeCodeOf maps an error to the itinerary envelope code.
func EnvelopeCodeOf(err error) ErrorCode {
	var (
		ve *ValidationError
		me *ModelServiceError
		ae *AuthenticationError
		ne *NotFoundError
		re *RateLimitError
	)
	switch {
	case errors.As(err, &ve):
		return CodeValidation
	case errors.As(err, &re):
		return CodeRateLimited
	case errors.As(err, &ae):
		return CodeUnauthenticated
	case errors.As(err, &me):
		if me.Parsing() {
			return CodeResponseParsing
		}
		return CodeAIService
	case errors.As(err, &ne):
		return CodeTripNotFound
	default:
		return CodeInternal
	}
}

// PlatformCodeOf maps an error to the typed platform status.
func PlatformCodeOf(err error) PlatformCode {
	var (
		ve *ValidationError
		ae *AuthenticationError
		pe *PermissionError
		ne *NotFoundError
		pc *PreconditionError
		me *ModelServiceError
		re *RateLimitError
	)
	switch {
	case errors.As(err, &ve):
		return PlatformInvalidArgument
	case errors.As(err, &re):
		return PlatformResourceExhausted
	case errors.As(err, &ae):
		return PlatformUnauthenticated
	case errors.As(err, &pe):
		return PlatformPermissionDenied
	case errors.As(err, &ne):
		return PlatformNotFound
	case errors.As(err, &pc):
		return PlatformFailedPrecondition
	case errors.As(err, &me):
		return PlatformUnavailable
	default:
		return PlatformInternal
	}
}

// HTTPStatusOf returns the HTTP status for an error class.
func HTTPStatusOf(err error) int {
	switch PlatformCodeOf(err) {
	case PlatformInvalidArgument:
		return http.StatusBadRequest
	case PlatformUnauthenticated:
		return http.StatusUnauthorized
	case PlatformPermissionDenied:
		return http.StatusForbidden
	case PlatformNotFound:
		return http.StatusNotFound
	case PlatformFailedPrecondition:
		return http.StatusPreconditionFailed
	case PlatformUnavailable:
		return http.StatusServiceUnavailable
	case PlatformResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// MessageOf returns the message a caller may see; unexpected errors never leak.
func MessageOf(err error) string {
	var (
		ve *ValidationError
		ae *AuthenticationError
		pe *PermissionError
		ne *NotFoundError
		pc *PreconditionError
		me *ModelServiceError
		re *RateLimitError
		ie *InternalError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &re):
		return re.Message
	case errors.As(err, &ae):
		return ae.Message
	case errors.As(err, &pe):
		return pe.Message
	case errors.As(err, &ne):
		return ne.Message
	case errors.As(err, &pc):
		return pc.Message
	case errors.As(err, &me):
		if me.Parsing() {
			return "Invalid response from AI model"
		}
		return "AI service temporarily unavailable"
	case errors.As(err, &ie):
		return ie.Message
	default:
		return "An unexpected error occurred"
	}
}
