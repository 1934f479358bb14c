package ai

import "errors"

var (
	// ErrEmptyResponse is returned when a service answers with no usable content.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrMalformedResponse is returned when a structured response cannot be decoded.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrDimensionMismatch is returned when an embedding has an unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
