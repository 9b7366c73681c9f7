package repository

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ErrorCategory groups storage failures for diagnostics.
type ErrorCategory string

const (
	CategoryNone               ErrorCategory = ""
	CategoryConnectionLost     ErrorCategory = "connection_lost"
	CategoryTooManyConnections ErrorCategory = "too_many_connections"
	CategoryConnectionRefused  ErrorCategory = "connection_refused"
	CategoryHostNotFound       ErrorCategory = "host_not_found"
	CategoryAccessDenied       ErrorCategory = "access_denied"
	CategoryUnknownDatabase    ErrorCategory = "unknown_database"
	CategoryTimeout            ErrorCategory = "timeout"
	CategoryQuery              ErrorCategory = "query"
)

var categoryMessages = map[ErrorCategory]string{
	CategoryConnectionLost:     "The database connection was closed",
	CategoryTooManyConnections: "Too many open database connections",
	CategoryConnectionRefused:  "Database connection refused, check the host and credentials",
	CategoryHostNotFound:       "Database host not found, check the configuration",
	CategoryAccessDenied:       "Database access denied, check the credentials",
	CategoryUnknownDatabase:    "Database does not exist",
	CategoryTimeout:            "Database operation timed out",
}

// Connectivity reports whether the category describes a failure of the
// connection rather than of the statement.
func (c ErrorCategory) Connectivity() bool {
	_, ok := categoryMessages[c]
	return ok
}

// Message returns the human readable diagnostic for connectivity categories.
func (c ErrorCategory) Message() string {
	if msg, ok := categoryMessages[c]; ok {
		return msg
	}
	return "Database query failed"
}

// Classify maps a driver or network error onto an ErrorCategory.
func Classify(err error) ErrorCategory {
	if err == nil ||
		errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, context.Canceled) {
		return CategoryNone
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1040:
			return CategoryTooManyConnections
		case 1044, 1045:
			return CategoryAccessDenied
		case 1049:
			return CategoryUnknownDatabase
		case 2006, 2013:
			return CategoryConnectionLost
		}
		return CategoryQuery
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "53300":
			return CategoryTooManyConnections
		case "28000", "28P01":
			return CategoryAccessDenied
		case "3D000":
			return CategoryUnknownDatabase
		case "57P01", "57P02", "57P03":
			return CategoryConnectionLost
		}
		return CategoryQuery
	}

	switch {
	case errors.Is(err, mysqldriver.ErrInvalidConn),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return CategoryConnectionLost
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, mysqldriver.ErrNoTLS):
		return CategoryConnectionRefused
	case errors.Is(err, mysqldriver.ErrUnknownPlugin),
		errors.Is(err, mysqldriver.ErrNativePassword),
		errors.Is(err, mysqldriver.ErrOldPassword),
		errors.Is(err, mysqldriver.ErrCleartextPassword):
		return CategoryAccessDenied
	case errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return CategoryTimeout
		}
		return CategoryHostNotFound
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}

	if isTLSFailure(err) {
		return CategoryConnectionRefused
	}

	// Remaining failures to establish a postgres session.
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return CategoryConnectionRefused
	}

	return CategoryQuery
}

func isTLSFailure(err error) bool {
	var (
		recordErr    tls.RecordHeaderError
		alertErr     tls.AlertError
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostErr      x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	return errors.As(err, &recordErr) ||
		errors.As(err, &alertErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr)
}

// diagnose logs connectivity failures with their category. Statement
// failures are left to the caller.
func (p *Pool) diagnose(err error) {
	category := Classify(err)
	if !category.Connectivity() {
		return
	}
	p.logger.Error("Database error", "category", string(category), "message", category.Message(), "error", err)
}

func (p *Pool) registerDiagnostics() error {
	hook := func(db *gorm.DB) {
		if db.Error != nil {
			p.diagnose(db.Error)
		}
	}
	cb := p.db.Callback()
	if err := cb.Create().After("gorm:create").Register("favlinks:diagnose_create", hook); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("favlinks:diagnose_query", hook); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("favlinks:diagnose_update", hook); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("favlinks:diagnose_delete", hook); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("favlinks:diagnose_row", hook); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("favlinks:diagnose_raw", hook)
}
