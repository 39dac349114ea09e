package errs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorWrapsKindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(ErrTransport, "geocode", cause)

	if !errors.Is(err, ErrTransport) {
		t.Error("expected errors.Is(err, ErrTransport)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is(err, cause)")
	}
	if errors.Is(err, ErrDecode) {
		t.Error("did not expect errors.Is(err, ErrDecode)")
	}

	msg := err.Error()
	for _, want := range []string{"geocode", "transport error", "connection refused"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want it to contain %q", msg, want)
		}
	}
}

func TestErrorWithoutCause(t *testing.T) {
	err := New(ErrNotFound, "geocode Starhaven", nil)
	if err.Error() != "geocode Starhaven: not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is(err, ErrNotFound)")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("enrich record 3: %w", Newf(ErrDecode, "synthesize", "bad base64"))
	if Kind(err) != ErrDecode {
		t.Errorf("Kind() = %v, want %v", Kind(err), ErrDecode)
	}
	if Kind(errors.New("plain")) != nil {
		t.Error("expected nil kind for a plain error")
	}
}

func TestFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"parse", New(ErrParse, "row", nil), false},
		{"not found", New(ErrNotFound, "geocode", nil), false},
		{"transport", New(ErrTransport, "geocode", nil), false},
		{"decode", New(ErrDecode, "synthesize", nil), false},
		{"invalid input", New(ErrInvalidInput, "synthesize", nil), false},
		{"credential", New(ErrCredential, "token", nil), true},
		{"io", New(ErrIO, "write", nil), true},
		{"provider down", New(ErrProviderDown, "geocode", nil), true},
		{"locked", New(ErrLocked, "lock", nil), true},
		{"canceled", fmt.Errorf("run: %w", context.Canceled), true},
		{"unknown", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fatal(tt.err); got != tt.want {
				t.Errorf("Fatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
