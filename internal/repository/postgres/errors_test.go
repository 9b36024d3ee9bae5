package postgres

import (
	"errors"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name: "unique_violation_matching_constraint",
			err: &pq.Error{
				Code:       "23505",
				Constraint: roomIDConstraint,
			},
			constraint: roomIDConstraint,
			want:       true,
		},
		{
			name: "unique_violation_any_constraint",
			err: &pq.Error{
				Code:       "23505",
				Constraint: "rooms_pkey",
			},
			constraint: "",
			want:       true,
		},
		{
			name: "unique_violation_different_constraint",
			err: &pq.Error{
				Code:       "23505",
				Constraint: "rooms_pkey",
			},
			constraint: roomIDConstraint,
			want:       false,
		},
		{
			name: "foreign_key_violation",
			err: &pq.Error{
				Code:       "23503",
				Constraint: roomIDConstraint,
			},
			constraint: roomIDConstraint,
			want:       false,
		},
		{
			name:       "not_pq_error",
			err:        errors.New("some other error"),
			constraint: roomIDConstraint,
			want:       false,
		},
		{
			name:       "nil_error",
			err:        nil,
			constraint: roomIDConstraint,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation_WrappedError(t *testing.T) {
	base := &pq.Error{
		Code:       "23505",
		Constraint: roomIDConstraint,
	}

	// String concatenation loses the typed error and must not match.
	concatenated := errors.New("failed to insert: " + base.Error())
	if IsUniqueViolation(concatenated, roomIDConstraint) {
		t.Error("expected false for string-concatenated error")
	}

	// errors.As unwraps a %w-wrapped pq.Error.
	wrapped := storageError("create room", base)
	if !IsUniqueViolation(wrapped, "") {
		t.Error("expected true for wrapped pq.Error")
	}
}
