package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidRequest, "missing parameter %q", "build")

	if err.Code != ErrCodeInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidRequest)
	}
	if err.Message != `missing parameter "build"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("Cause = %v, want nil", err.Cause)
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeNotFound, "project missing"),
			want: "NOT_FOUND: project missing",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeUpstreamHTTP, stderrors.New("status 503"), "artifact fetch failed"),
			want: "UPSTREAM_HTTP: artifact fetch failed: status 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeUpstreamHTTP, cause, "cannot reach CI")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeUpstreamStructure, "no win-x86 zip artifact")

	if !Is(err, ErrCodeUpstreamStructure) {
		t.Error("Is() should match the error's own code")
	}
	if Is(err, ErrCodeNotFound) {
		t.Error("Is() should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("Is() should not match a plain error")
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeNotFound, "no such release")
	outer := fmt.Errorf("aggregation failed: %w", inner)

	if !Is(outer, ErrCodeNotFound) {
		t.Error("Is() should unwrap fmt-wrapped errors")
	}
	if GetCode(outer) != ErrCodeNotFound {
		t.Errorf("GetCode() = %q, want %q", GetCode(outer), ErrCodeNotFound)
	}
}

func TestGetCodePlainError(t *testing.T) {
	if got := GetCode(stderrors.New("boom")); got != ErrCodeInternal {
		t.Errorf("GetCode(plain) = %q, want %q", got, ErrCodeInternal)
	}
}

func TestUserMessage(t *testing.T) {
	coded := New(ErrCodeInvalidRequest, "parameter build supplied twice")
	if got := UserMessage(coded); got != "parameter build supplied twice" {
		t.Errorf("UserMessage(coded) = %q", got)
	}

	plain := stderrors.New("boom")
	if got := UserMessage(plain); got != "boom" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
