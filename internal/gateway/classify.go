package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// transientFragments is the fixed allow-list of failure messages that
// indicate a dropped or wedged connection. Anything outside this list
// is treated as a semantic error and never retried.
var transientFragments = []string{
	"connection terminated",
	"connection reset",
	"socket hang up",
	"conn closed",
	"closed pool",
	"unexpected eof",
	"timeout",
}

// IsTransient reports whether err is worth a reconnect-and-retry.
//
// Errors the server itself produced (pgconn.PgError) mean the
// connection is healthy, so they are never transient regardless of
// their message.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range transientFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
