package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
)

// ErrorKind classifies database failures per the session contract:
// connection errors abort the session, validation errors downgrade to
// warnings, operation errors are reported per item and never halt a
// batch.
type ErrorKind string

const (
	// KindConnection covers unreachable server and bad credentials; fatal
	KindConnection ErrorKind = "connection"
	// KindPermission covers denied statements; fatal for that item only
	KindPermission ErrorKind = "permission"
	// KindValidation covers bad identifiers and malformed input; warning
	KindValidation ErrorKind = "validation"
	// KindOperation covers all other per-statement failures; per-item
	KindOperation ErrorKind = "operation"
)

// Error is a classified database failure
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error during %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth retrying. Only
// connection-level failures are; permission and constraint errors will
// fail identically on retry.
func (e *Error) Retryable() bool {
	return e.Kind == KindConnection
}

// access-denied and privilege error numbers from the MariaDB protocol
var permissionErrNums = map[uint16]bool{
	1044: true, // ER_DBACCESS_DENIED_ERROR
	1045: true, // ER_ACCESS_DENIED_ERROR
	1142: true, // ER_TABLEACCESS_DENIED_ERROR
	1227: true, // ER_SPECIFIC_ACCESS_DENIED_ERROR
	1370: true, // ER_PROCACCESS_DENIED_ERROR
}

// Classify wraps err in an Error with the appropriate kind
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if permissionErrNums[myErr.Number] {
			return &Error{Kind: KindPermission, Op: op, Err: err}
		}
		return &Error{Kind: KindOperation, Op: op, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindConnection, Op: op, Err: err}
	}

	return &Error{Kind: KindOperation, Op: op, Err: err}
}

// IsConnection reports whether err is a classified connection failure
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindConnection
}
