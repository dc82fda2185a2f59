package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// PostgreSQL error codes for transient conditions.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// transientPgClasses are SQLSTATE classes that are always worth retrying:
// 08 connection exception, 53 insufficient resources, 57 operator intervention.
var transientPgClasses = []string{"08", "53", "57"}

// transientMessages match driver errors that carry no SQLSTATE.
var transientMessages = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"connection failure",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"connection pool exhausted",
}

// PostgreSQLErrorClassifier recognises transient PostgreSQL and network errors.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient reports whether err is temporary. Referential integrity
// rejections are never transient: retrying the same batch cannot succeed.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil || errors.Is(err, mnx.ErrReferentialIntegrity) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientPgCode(pgErr.Code)
	}
	if isNetworkError(err) {
		return true
	}
	return hasTransientMessage(err)
}

func isTransientPgCode(code string) bool {
	for _, class := range transientPgClasses {
		if strings.HasPrefix(code, class) {
			return true
		}
	}
	switch code {
	case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		if opErr.Err != nil {
			for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
				if errors.Is(opErr.Err, errno) {
					return true
				}
			}
		}
	}
	return false
}

func hasTransientMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// Primary SQLite result codes. Extended codes carry the primary code in the low byte.
const (
	sqliteBusy   = 5
	sqliteLocked = 6
)

// SQLiteErrorClassifier recognises busy and locked SQLite databases.
type SQLiteErrorClassifier struct{}

// NewSQLiteErrorClassifier creates a SQLite error classifier.
func NewSQLiteErrorClassifier() *SQLiteErrorClassifier {
	return &SQLiteErrorClassifier{}
}

// IsTransient reports whether err is a busy or locked database.
func (c *SQLiteErrorClassifier) IsTransient(err error) bool {
	if err == nil || errors.Is(err, mnx.ErrReferentialIntegrity) {
		return false
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		switch coded.Code() & 0xff {
		case sqliteBusy, sqliteLocked:
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

// anyClassifier reports an error transient if any member does.
type anyClassifier []mnx.ErrorClassifier

// Any combines classifiers.
func Any(classifiers ...mnx.ErrorClassifier) mnx.ErrorClassifier {
	return anyClassifier(classifiers)
}

func (a anyClassifier) IsTransient(err error) bool {
	for _, c := range a {
		if c.IsTransient(err) {
			return true
		}
	}
	return false
}

var (
	_ mnx.ErrorClassifier = (*PostgreSQLErrorClassifier)(nil)
	_ mnx.ErrorClassifier = (*SQLiteErrorClassifier)(nil)
)
