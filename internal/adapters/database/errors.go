package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// queryError wraps a failed query. Failures to reach Postgres become
// STORAGE_UNAVAILABLE; anything else stays INTERNAL.
func queryError(message string, err error) error {
	if unreachable(err) {
		return apperrors.NewStorageUnavailableError(message, err)
	}
	return apperrors.NewInternalError(message, err)
}

func unreachable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "08": // connection_exception
			return true
		case pqErr.Code == "57P01", pqErr.Code == "57P03", pqErr.Code == "53300":
			// admin_shutdown, cannot_connect_now, too_many_connections
			return true
		}
	}
	return false
}
