package sqlite

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
)

// wrapErr maps a driver error to the domain taxonomy. Errors that already
// carry a code pass through untouched.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}

	if isUniqueViolation(err) {
		return domainerrors.Wrap(err, domainerrors.CodeConstraintViolation, op+": duplicate value")
	}
	if isForeignKeyViolation(err) {
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, op+": referenced row does not exist")
	}

	return domainerrors.StoreUnavailable(op, err)
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY failure.
func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
