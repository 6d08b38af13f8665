package chat

import (
	"fmt"

	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
)

type ErrorKind string

const (
	// ErrorKindProviderUnimplemented means the configured provider has no
	// client.
	ErrorKindProviderUnimplemented ErrorKind = "provider-unimplemented"
	// ErrorKindRequestFailed covers transport errors and non-2xx responses.
	ErrorKindRequestFailed ErrorKind = "request-failed"
	// ErrorKindNoResponse means the backend answered without any candidate.
	ErrorKindNoResponse ErrorKind = "no-response"
)

// Error is returned by Client.Complete. Detail holds the backend's own error
// text so it can be shown to the user.
type Error struct {
	Kind       ErrorKind
	Provider   types.ApiType
	StatusCode int
	Detail     string
	Err        error
}

var (
	ErrProviderUnimplemented = &Error{Kind: ErrorKindProviderUnimplemented}
	ErrRequestFailed         = &Error{Kind: ErrorKindRequestFailed}
	ErrNoResponse            = &Error{Kind: ErrorKindNoResponse}
)

func (e *Error) Error() string {
	switch e.Kind {
	case ErrorKindProviderUnimplemented:
		return fmt.Sprintf("provider %q is not implemented", e.Provider)
	case ErrorKindNoResponse:
		if e.Detail != "" {
			return fmt.Sprintf("no response from %s: %s", e.Provider, e.Detail)
		}
		return fmt.Sprintf("no response from %s", e.Provider)
	case ErrorKindRequestFailed:
		if e.StatusCode != 0 {
			return fmt.Sprintf("Request failed with status %d: %s", e.StatusCode, e.Detail)
		}
		if e.Detail != "" {
			return fmt.Sprintf("request to %s failed: %s", e.Provider, e.Detail)
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, chat.ErrNoResponse).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewProviderUnimplementedError(provider types.ApiType) *Error {
	return &Error{Kind: ErrorKindProviderUnimplemented, Provider: provider}
}

func NewRequestFailedError(provider types.ApiType, statusCode int, detail string, err error) *Error {
	if detail == "" && err != nil {
		detail = err.Error()
	}
	return &Error{
		Kind:       ErrorKindRequestFailed,
		Provider:   provider,
		StatusCode: statusCode,
		Detail:     detail,
		Err:        err,
	}
}

func NewNoResponseError(provider types.ApiType, detail string) *Error {
	return &Error{Kind: ErrorKindNoResponse, Provider: provider, Detail: detail}
}

// KindOf returns the kind of a chat error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
