package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrInvalidMode", ErrInvalidMode, "invalid search mode"},
		{"ErrDataIntegrity", ErrDataIntegrity, "data integrity violation"},
		{"ErrUnsupportedSourceType", ErrUnsupportedSourceType, "unsupported source type"},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrForbidden", ErrForbidden, "forbidden"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrInvalidMode,
		ErrDataIntegrity,
		ErrUnsupportedSourceType,
		ErrUnauthorized,
		ErrForbidden,
		ErrTokenExpired,
		ErrTokenInvalid,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrorsWrap(t *testing.T) {
	wrapped := fmt.Errorf("chunk c1 references missing document d1: %w", ErrDataIntegrity)
	if !errors.Is(wrapped, ErrDataIntegrity) {
		t.Error("expected wrapped error to match ErrDataIntegrity")
	}
}
