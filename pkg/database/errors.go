package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrUniqueViolation marks writes rejected by a UNIQUE or PRIMARY KEY constraint.
var ErrUniqueViolation = errors.New("unique constraint violation")

// ErrForeignKeyViolation marks writes referencing a missing parent row.
var ErrForeignKeyViolation = errors.New("foreign key violation")

// Classify maps driver-specific constraint errors onto the package sentinels,
// keeping the driver error in the chain. Other errors are returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return &classified{kind: ErrUniqueViolation, err: err}
	case IsForeignKeyViolation(err):
		return &classified{kind: ErrForeignKeyViolation, err: err}
	default:
		return err
	}
}

type classified struct {
	kind error
	err  error
}

func (c *classified) Error() string { return c.kind.Error() + ": " + c.err.Error() }

func (c *classified) Unwrap() []error { return []error{c.kind, c.err} }

// IsUniqueViolation reports whether err came from a uniqueness constraint.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, ErrUniqueViolation) {
		return true
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err came from a foreign key constraint.
func IsForeignKeyViolation(err error) bool {
	if errors.Is(err, ErrForeignKeyViolation) {
		return true
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsConnectionFailure reports whether err means the store could not be reached.
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_IOERR:
			return true
		}
	}
	return false
}
