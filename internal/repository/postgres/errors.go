package postgres

import (
	"errors"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// roomIDConstraint is the unique constraint backing external room ids.
const roomIDConstraint = "rooms_room_id_key"

// IsUniqueViolation checks if an error is a PostgreSQL unique constraint
// violation. With an empty constraint name it matches any unique violation,
// otherwise only that specific constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	if string(pqErr.Code) != pqUniqueViolation {
		return false
	}

	if constraint == "" {
		return true
	}

	return pqErr.Constraint == constraint
}
