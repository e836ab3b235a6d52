package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestDomainErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *DomainError
		want string
	}{
		{"without cause", Internal("decoding response", nil), "INTERNAL: decoding response"},
		{"with cause", Unavailable("executing request", fmt.Errorf("dial tcp: refused")), "UNAVAILABLE: executing request: dial tcp: refused"},
		{"config", Config("missing credentials", nil), "CONFIG: missing credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if len(tt.err.StackTrace()) == 0 {
				t.Error("expected a captured stack")
			}
		})
	}
}

func TestIsWalksWrappedChain(t *testing.T) {
	inner := RateLimit("provider throttled", nil)
	outer := Internal("fetching adzuna", fmt.Errorf("attempt 1: %w", inner))

	if !Is(outer, ErrTypeInternal) {
		t.Error("expected outer type to match")
	}
	if !Is(outer, ErrTypeRateLimit) {
		t.Error("expected wrapped type to match")
	}
	if Is(outer, ErrTypeNotFound) {
		t.Error("unexpected match for NOT_FOUND")
	}
	if Is(fmt.Errorf("plain"), ErrTypeInternal) {
		t.Error("plain error must not match")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Internal("insert job", cause)
	if err.Unwrap() != cause {
		t.Fatalf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("message %q should include cause", err.Error())
	}
}
