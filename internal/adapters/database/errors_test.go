package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

func TestQueryError_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorType
	}{
		{"bad connection", driver.ErrBadConn, apperrors.ErrorTypeStorageUnavailable},
		{"wrapped bad connection", fmt.Errorf("exec: %w", driver.ErrBadConn), apperrors.ErrorTypeStorageUnavailable},
		{"closed connection", sql.ErrConnDone, apperrors.ErrorTypeStorageUnavailable},
		{"deadline", context.DeadlineExceeded, apperrors.ErrorTypeStorageUnavailable},
		{"dial refused", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, apperrors.ErrorTypeStorageUnavailable},
		{"connection failure class", &pq.Error{Code: "08001"}, apperrors.ErrorTypeStorageUnavailable},
		{"server shutting down", &pq.Error{Code: "57P01"}, apperrors.ErrorTypeStorageUnavailable},
		{"too many connections", &pq.Error{Code: "53300"}, apperrors.ErrorTypeStorageUnavailable},
		{"unique violation", &pq.Error{Code: "23505"}, apperrors.ErrorTypeInternal},
		{"syntax error", &pq.Error{Code: "42601"}, apperrors.ErrorTypeInternal},
		{"cancelled by caller", context.Canceled, apperrors.ErrorTypeInternal},
		{"anything else", errors.New("boom"), apperrors.ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := queryError("failed to run query", tt.err)
			assert.True(t, apperrors.IsType(err, tt.want), "got %v", err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
