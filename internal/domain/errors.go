package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataLocked is returned while a language catalog owns the data directory.
	ErrDataLocked = errors.New("OCR data is locked")

	// ErrNoActiveLangs is returned when queueing a job without active languages.
	ErrNoActiveLangs = errors.New("no active languages")

	// ErrOperationInProgress is returned when starting a second language operation.
	ErrOperationInProgress = errors.New("an operation is active")

	// ErrOperationCanceled unwinds a language operation after a cancel request.
	ErrOperationCanceled = errors.New("operation canceled")

	// ErrUnknownEngine is returned for engine ids missing from the service.
	ErrUnknownEngine = errors.New("unknown OCR engine")
)

// Recognizer operations reported by RecognizerError.
const (
	RecognizerOpCreate    = "create"
	RecognizerOpReload    = "reload"
	RecognizerOpRecognize = "recognize"
)

// RecognizerError is a failure of the recognition engine.
type RecognizerError struct {
	Op  string
	Err error
}

// Error formats the failed engine operation.
func (e *RecognizerError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("recognizer %s: %v", e.Op, e.Err)
}

// Unwrap exposes the engine error for errors.Is / errors.As.
func (e *RecognizerError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LangManagerError is a language manager failure. Network marks
// connection-level failures so the UI can add a connectivity hint.
type LangManagerError struct {
	Message string
	Network bool
	Err     error
}

// Error formats the message with the wrapped cause.
func (e *LangManagerError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap exposes the underlying error.
func (e *LangManagerError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewLangManagerError wraps err with a message.
func NewLangManagerError(message string, err error) *LangManagerError {
	return &LangManagerError{Message: message, Err: err}
}

// NewNetworkError wraps a connection failure.
func NewNetworkError(message string, err error) *LangManagerError {
	return &LangManagerError{Message: message, Network: true, Err: err}
}

// IsNetworkError reports whether err carries a network-class LangManagerError.
func IsNetworkError(err error) bool {
	var lmErr *LangManagerError
	return errors.As(err, &lmErr) && lmErr.Network
}
