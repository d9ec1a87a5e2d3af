package llmclient

import "errors"

var (
	// ErrPermanent marks failures that retrying cannot fix, such as rejected
	// credentials or a blocked prompt.
	ErrPermanent = errors.New("permanent llm error")
	// ErrMissingAPIKey is returned by constructors when no key is configured.
	ErrMissingAPIKey = errors.New("missing api key")
	// ErrEmptyResponse is returned when the provider answers without any text.
	ErrEmptyResponse = errors.New("empty llm response")
)
