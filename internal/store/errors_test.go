package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "wrapped ErrNotFound", err: fmt.Errorf("failed to find artist: %w", ErrNotFound), expected: true},
		{
			name:     "store error wrapping ErrNotFound",
			err:      NewStoreError("course", "get", "no rows", ErrNotFound),
			expected: true,
		},
		{name: "ErrDuplicate", err: ErrDuplicate, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrDuplicate", err: ErrDuplicate, expected: true},
		{name: "wrapped ErrDuplicate", err: fmt.Errorf("failed to create: %w", ErrDuplicate), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateError(tt.err); got != tt.expected {
				t.Errorf("IsDuplicateError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStoreError(t *testing.T) {
	originalErr := errors.New("database connection failed")
	storeErr := NewStoreError("artist", "create", "database error", originalErr)

	expectedErrorString := "create operation on artist failed: database error: database connection failed"
	if got := storeErr.Error(); got != expectedErrorString {
		t.Errorf("StoreError.Error() = %v, want %v", got, expectedErrorString)
	}

	if !errors.Is(storeErr, originalErr) {
		t.Errorf("errors.Is() not recognizing the wrapped error")
	}

	bare := NewStoreError("artist", "delete", "nothing to delete", nil)
	if got := bare.Error(); got != "delete operation on artist failed: nothing to delete" {
		t.Errorf("StoreError.Error() without cause = %v", got)
	}
}
