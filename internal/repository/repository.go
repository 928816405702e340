package repository

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation returns the violated constraint name when err is a
// PostgreSQL unique-constraint error. The store's constraint enforcement is
// the authoritative conflict signal for duplicate keys and race-lost inserts.
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}
	return "", false
}
