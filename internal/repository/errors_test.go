package repository

import (
	"context"
	"crypto/tls"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, CategoryNone},
		{"not found", gorm.ErrRecordNotFound, CategoryNone},
		{"cancelled", context.Canceled, CategoryNone},
		{"mysql too many connections", &mysqldriver.MySQLError{Number: 1040}, CategoryTooManyConnections},
		{"mysql access denied", &mysqldriver.MySQLError{Number: 1045}, CategoryAccessDenied},
		{"mysql unknown database", &mysqldriver.MySQLError{Number: 1049}, CategoryUnknownDatabase},
		{"mysql syntax", &mysqldriver.MySQLError{Number: 1064}, CategoryQuery},
		{"mysql invalid conn", mysqldriver.ErrInvalidConn, CategoryConnectionLost},
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), CategoryConnectionLost},
		{"postgres too many connections", &pgconn.PgError{Code: "53300"}, CategoryTooManyConnections},
		{"postgres auth", &pgconn.PgError{Code: "28P01"}, CategoryAccessDenied},
		{"postgres missing db", &pgconn.PgError{Code: "3D000"}, CategoryUnknownDatabase},
		{"postgres shutdown", &pgconn.PgError{Code: "57P01"}, CategoryConnectionLost},
		{"refused", fmt.Errorf("handshake: %w", refused), CategoryConnectionRefused},
		{"dns", &net.DNSError{Err: "no such host", Name: "db.invalid", IsNotFound: true}, CategoryHostNotFound},
		{"deadline", context.DeadlineExceeded, CategoryTimeout},
		{"mysql unknown auth plugin", mysqldriver.ErrUnknownPlugin, CategoryAccessDenied},
		{"mysql no tls", fmt.Errorf("handshake: %w", mysqldriver.ErrNoTLS), CategoryConnectionRefused},
		{"tls record header", fmt.Errorf("handshake: %w", tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}), CategoryConnectionRefused},
		{"other", errors.New("boom"), CategoryQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestErrorCategory(t *testing.T) {
	assert.True(t, CategoryConnectionLost.Connectivity())
	assert.True(t, CategoryHostNotFound.Connectivity())
	assert.False(t, CategoryQuery.Connectivity())
	assert.False(t, CategoryNone.Connectivity())

	assert.Equal(t, "Too many open database connections", CategoryTooManyConnections.Message())
	assert.Equal(t, "Database query failed", CategoryQuery.Message())
}

// startTLSRefusingPostgres accepts connections and answers the SSLRequest
// with 'N', as a server without TLS support does.
func startTLSRefusingPostgres(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 8)
				if _, err := c.Read(buf); err != nil {
					return
				}
				c.Write([]byte("N"))
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func TestClassify_PostgresConnectFailure(t *testing.T) {
	addr := startTLSRefusingPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pgconn.Connect(ctx, "postgres://root@"+addr+"/db_links?sslmode=require")
	require.Error(t, err)

	var connectErr *pgconn.ConnectError
	assert.ErrorAs(t, err, &connectErr)
	assert.Equal(t, CategoryConnectionRefused, Classify(err))
	assert.True(t, Classify(err).Connectivity())
}
