package api

import "time"

// ErrorBody is the error part of the itinerary envelope.
type ErrorBody struct {
	Message   string    `json:"message"`
	Code      ErrorCode `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	Details   any       `json:"details,omitempty"`
}

// Envelope is the {success, data|error} response shape of the itinerary endpoints.
type Envelope struct {
	Success  bool       `json:"success"`
	Data     any        `json:"data,omitempty"`
	Metadata any        `json:"metadata,omitempty"`
	Error    *ErrorBody `json:"error,omitempty"`
}

type PlatformErrorBody struct {
	Status  PlatformCode `json:"status"`
	Message string       `json:"message"`
	Details any          `json:"details,omitempty"`
}

// PlatformErrorResponse is the typed error shape the food and promo clients branch on.
type PlatformErrorResponse struct {
	Error PlatformErrorBody `json:"error"`
}
