package restclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingCredentials indicates a required credential is not configured.
var ErrMissingCredentials = errors.New("missing credentials")

var errInvalidEncoding = errors.New("response body is not valid UTF-8")

// CredentialsError reports which credential is missing. It matches
// ErrMissingCredentials via errors.Is.
type CredentialsError struct {
	Field string
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("no %s specified; set it in the drives configuration", e.Field)
}

func (e *CredentialsError) Unwrap() error {
	return ErrMissingCredentials
}

// ProviderError is an HTTP-level error response from the provider.
//
// Message carries the `message` field of a JSON error body when one is
// present and decodable, otherwise the raw error text.
type ProviderError struct {
	URL     string
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("invalid response in '%s' (status %d): %s", e.URL, e.Status, e.Message)
}

// DecodeError indicates the response body could not be decoded: invalid
// UTF-8, or invalid JSON when JSON was expected.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid response in '%s': %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TransportError covers every other transport-level failure.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to '%s' failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// newProviderError builds a ProviderError from an HTTP error response body.
func newProviderError(url string, status int, body []byte) *ProviderError {
	message := string(body)
	var decoded struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Message != "" {
		message = decoded.Message
	}
	return &ProviderError{URL: url, Status: status, Message: message}
}
