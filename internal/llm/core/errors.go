package core

import "errors"

var (
	// ErrInvalidRequest indicates a missing or malformed completion request.
	ErrInvalidRequest = errors.New("invalid llm request")
	// ErrMissingAPIKey indicates the completion service credential is absent.
	ErrMissingAPIKey = errors.New("missing api key")
)
