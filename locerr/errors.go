// Package locerr defines the typed error taxonomy propagated from every
// layer of the resolver/publisher library.
package locerr

import (
	"fmt"
	"strings"
)

// libraryError is the unexported base every public error kind embeds. It
// carries a machine-checkable code plus optional structured details, mirroring
// the (Code, Message, Details) shape used across the codebase's error types.
type libraryError struct {
	kind    string
	message string
	details map[string]interface{}
	cause   error
}

func (e *libraryError) Error() string {
	var b strings.Builder
	b.WriteString(e.kind)
	b.WriteString(": ")
	b.WriteString(e.message)
	if e.cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.cause)
	}
	return b.String()
}

func (e *libraryError) Unwrap() error { return e.cause }

// WithDetail attaches a key/value pair describing the failure and returns
// the receiver for chaining.
func (e *libraryError) WithDetail(key string, value interface{}) *libraryError {
	if e.details == nil {
		e.details = make(map[string]interface{})
	}
	e.details[key] = value
	return e
}

// Details returns the structured detail map, possibly nil.
func (e *libraryError) Details() map[string]interface{} { return e.details }

// ArgumentError reports a malformed caller input: bad hex, bad bech32, an
// invalid key length. Always surfaced immediately to the caller.
type ArgumentError struct{ *libraryError }

// NewArgumentError builds an ArgumentError wrapping an optional cause.
func NewArgumentError(message string, cause error) *ArgumentError {
	return &ArgumentError{&libraryError{kind: "ArgumentError", message: message, cause: cause}}
}

// RelayError aggregates the causes of every relay that failed a publish or
// query. Reported only when every selected relay failed.
type RelayError struct {
	*libraryError
	Causes map[string]error // relay URL -> failure
}

// NewRelayError builds a RelayError from a map of relay URL to failure.
func NewRelayError(message string, causes map[string]error) *RelayError {
	parts := make([]string, 0, len(causes))
	for url, err := range causes {
		parts = append(parts, fmt.Sprintf("%s: %v", url, err))
	}
	return &RelayError{
		libraryError: &libraryError{kind: "RelayError", message: message + ": " + strings.Join(parts, "; ")},
		Causes:       causes,
	}
}

// TimeoutError reports that a per-call deadline elapsed before completion.
type TimeoutError struct{ *libraryError }

// NewTimeoutError builds a TimeoutError.
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{&libraryError{kind: "TimeoutError", message: message}}
}

// DecryptionError reports a failure to decrypt or parse wrapped content for
// a caller that IS an intended recipient. A caller who simply isn't a
// recipient gets nil, not this error.
type DecryptionError struct{ *libraryError }

// NewDecryptionError builds a DecryptionError wrapping an optional cause.
func NewDecryptionError(message string, cause error) *DecryptionError {
	return &DecryptionError{&libraryError{kind: "DecryptionError", message: message, cause: cause}}
}

// LibraryError is the catch-all base kind for failures that don't fit the
// four named categories above.
type LibraryError struct{ *libraryError }

// NewLibraryError builds a generic LibraryError wrapping an optional cause.
func NewLibraryError(message string, cause error) *LibraryError {
	return &LibraryError{&libraryError{kind: "LibraryError", message: message, cause: cause}}
}
