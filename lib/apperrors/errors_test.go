package apperrors

import (
	"context"
	"database/sql/driver"
	"net"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestFromStore(t *testing.T) {
	t.Run(`nil stays nil`, func(t *testing.T) {
		require.NoError(t, FromStore(nil))
	})
	t.Run(`deadline is transient`, func(t *testing.T) {
		err := FromStore(errors.Wrap(context.DeadlineExceeded, "list requests"))
		require.True(t, IsTransient(err))
		require.True(t, errors.Is(err, context.DeadlineExceeded))
	})
	t.Run(`bad connection is transient`, func(t *testing.T) {
		require.True(t, IsTransient(FromStore(driver.ErrBadConn)))
	})
	t.Run(`network error is transient`, func(t *testing.T) {
		err := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		require.True(t, IsTransient(FromStore(err)))
	})
	t.Run(`domain errors pass through`, func(t *testing.T) {
		err := FromStore(ErrNotApproved)
		require.False(t, IsTransient(err))
		require.True(t, errors.Is(err, ErrNotApproved))
	})
	t.Run(`already processed carries loan id`, func(t *testing.T) {
		processed, ok := AsAlreadyProcessed(errors.Wrap(&AlreadyProcessedError{LoanID: "loan-1"}, "process"))
		require.True(t, ok)
		require.Equal(t, "loan-1", processed.LoanID)
	})
}
