package content

import (
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ValidationError reports bad input caught before any storage call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports that the targeted entity does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// PersistenceError wraps a failed storage call.
type PersistenceError struct {
	Op  string
	Err error
	// Conflict is set when a uniqueness constraint rejected the write.
	Conflict bool
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsPersistence reports whether err is, or wraps, a *PersistenceError.
func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a PersistenceError caused by a
// uniqueness violation, such as a duplicate slug.
func IsConflict(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target) && target.Conflict
}

func persistence(op string, err error) error {
	return &PersistenceError{
		Op:       op,
		Err:      errors.WithStack(err),
		Conflict: isUniqueViolation(err),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}
