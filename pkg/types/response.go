// Package types holds the wire envelopes shared by every checkout API
// response so storefront clients parse one shape for success and one for
// failure.
package types

// SuccessEnvelope wraps every 2xx payload under a data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Code carries the string form
// of a pkg/errors code, so clients can branch on state_conflict versus
// dependency without parsing messages.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under an error key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
