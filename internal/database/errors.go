package database

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when a user email collides with an
	// already registered one.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrOverlap is returned when a booking window intersects an approved
	// booking on the same item.
	ErrOverlap = errors.New("item already booked for these dates")
)

// isUniqueViolation detects sqlite UNIQUE constraint failures.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
