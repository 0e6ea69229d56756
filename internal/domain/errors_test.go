package domain

import (
	"errors"
	"fmt"
	"testing"
)

// TestLangManagerErrorMessage checks message and cause formatting.
func TestLangManagerErrorMessage(t *testing.T) {
	cause := errors.New("refused")
	tests := []struct {
		err  *LangManagerError
		want string
	}{
		{&LangManagerError{Message: "fetching failed"}, "fetching failed"},
		{&LangManagerError{Err: cause}, "refused"},
		{NewLangManagerError("can't install", cause), "can't install: refused"},
	}
	for _, tc := range tests {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error() = %q, want %q", got, tc.want)
		}
	}
}

// TestIsNetworkErrorThroughWrapping checks network detection survives wrapping.
func TestIsNetworkErrorThroughWrapping(t *testing.T) {
	netErr := NewNetworkError("can't get data", errors.New("timeout"))
	if !IsNetworkError(fmt.Errorf("install deu: %w", netErr)) {
		t.Fatal("expected wrapped network error to be detected")
	}
	if IsNetworkError(NewLangManagerError("bad checksum", nil)) {
		t.Fatal("generic error reported as network")
	}
	if IsNetworkError(nil) {
		t.Fatal("nil reported as network")
	}
}

// TestRecognizerErrorUnwrap checks errors.Is reaches the engine cause.
func TestRecognizerErrorUnwrap(t *testing.T) {
	cause := errors.New("no traineddata")
	err := &RecognizerError{Op: RecognizerOpCreate, Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is did not reach cause")
	}
	if got, want := err.Error(), "recognizer create: no traineddata"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

// TestOpStatusCodeIsError checks which codes count as failures.
func TestOpStatusCodeIsError(t *testing.T) {
	for code, want := range map[OpStatusCode]bool{
		OpStatusNone:         false,
		OpStatusInProgress:   false,
		OpStatusSuccess:      false,
		OpStatusGenericError: true,
		OpStatusNetworkError: true,
	} {
		if got := code.IsError(); got != want {
			t.Fatalf("%s.IsError() = %v, want %v", code, got, want)
		}
	}
}
