package fundingworker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"microloan-backend/lib/apperrors"
	"microloan-backend/lib/events"
	loanfunding "microloan-backend/lib/loan-funding"
	"microloan-backend/lib/utils/memstore"
	"microloan-backend/models"
	approvalapimodels "microloan-backend/models/api/approval"
	dbmodels "microloan-backend/models/db"
)

func seed(t *testing.T, db *memstore.DB, requestType models.RequestType, status models.RequestStatus) string {
	id, err := db.Requests().Create(context.Background(), dbmodels.ApprovalRequest{
		UserID:      "client-1",
		RequestType: requestType,
		RequestData: map[string]any{"amount": 1000, "term": 10, "document_id": "d"},
		Status:      status,
	}, dbmodels.ApprovalWorkflowHistory{NewStatus: status})
	require.NoError(t, err)
	return id
}

type failingFunder struct {
	err error
}

func (f failingFunder) Process(ctx context.Context, requestID string) (*approvalapimodels.ProcessResponse, error) {
	return nil, f.err
}

type countingFunder struct {
	calls map[string]int
	err   error
}

func (f *countingFunder) Process(ctx context.Context, requestID string) (*approvalapimodels.ProcessResponse, error) {
	f.calls[requestID]++
	return nil, f.err
}

func TestSweeper(t *testing.T) {
	t.Run(`funds every approved loan application without a loan`, func(t *testing.T) {
		db := memstore.New()
		first := seed(t, db, models.RequestTypeLoanApplication, models.RequestStatusApproved)
		second := seed(t, db, models.RequestTypeLoanApplication, models.RequestStatusApproved)
		seed(t, db, models.RequestTypeLoanApplication, models.RequestStatusPending)
		seed(t, db, models.RequestTypeKycDocument, models.RequestStatusApproved)

		w := newWorker(db.Requests(), loanfunding.NewInstance(db.Funding(), 12, time.Second), time.Minute, time.Second)
		w.handle(context.Background())

		require.Len(t, db.Loans(), 2)
		require.NotNil(t, db.Request(first).ReferenceID)
		require.NotNil(t, db.Request(second).ReferenceID)

		w.handle(context.Background())
		require.Len(t, db.Loans(), 2)
	})
	t.Run(`permanent failure is not retried`, func(t *testing.T) {
		db := memstore.New()
		id := seed(t, db, models.RequestTypeLoanApplication, models.RequestStatusApproved)
		funder := &countingFunder{calls: map[string]int{}, err: apperrors.NewValidation("term must be positive")}
		w := newWorker(db.Requests(), funder, time.Minute, time.Second)

		w.handle(context.Background())
		w.handle(context.Background())
		w.handle(context.Background())
		require.Equal(t, 1, funder.calls[id])
		require.Contains(t, w.skipped, id)
	})
	t.Run(`transient failure is retried`, func(t *testing.T) {
		db := memstore.New()
		id := seed(t, db, models.RequestTypeLoanApplication, models.RequestStatusApproved)
		funder := &countingFunder{calls: map[string]int{}, err: &apperrors.TransientStoreError{Err: context.DeadlineExceeded}}
		w := newWorker(db.Requests(), funder, time.Minute, time.Second)

		w.handle(context.Background())
		w.handle(context.Background())
		require.Equal(t, 2, funder.calls[id])
		require.Empty(t, w.skipped)
	})
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()
	body := func(requestID string) []byte {
		raw, err := json.Marshal(events.RequestChangedEvent{
			RequestID:   requestID,
			RequestType: models.RequestTypeLoanApplication,
			Status:      models.RequestStatusApproved,
		})
		require.NoError(t, err)
		return raw
	}
	t.Run(`event funds the loan and redelivery is harmless`, func(t *testing.T) {
		db := memstore.New()
		id := seed(t, db, models.RequestTypeLoanApplication, models.RequestStatusApproved)
		w := newWorker(nil, loanfunding.NewInstance(db.Funding(), 12, time.Second), 0, time.Second)

		require.True(t, w.handleEvent(ctx, body(id)))
		require.True(t, w.handleEvent(ctx, body(id)))
		require.Len(t, db.Loans(), 1)
	})
	t.Run(`malformed body is dropped`, func(t *testing.T) {
		w := newWorker(nil, failingFunder{}, 0, time.Second)
		require.True(t, w.handleEvent(ctx, []byte("{")))
	})
	t.Run(`transient failure is requeued`, func(t *testing.T) {
		w := newWorker(nil, failingFunder{err: &apperrors.TransientStoreError{Err: context.DeadlineExceeded}}, 0, time.Second)
		require.False(t, w.handleEvent(ctx, body("req-1")))
	})
	t.Run(`permanent failure is acknowledged`, func(t *testing.T) {
		w := newWorker(nil, failingFunder{err: errors.Wrap(apperrors.ErrNotApproved, "process")}, 0, time.Second)
		require.True(t, w.handleEvent(ctx, body("req-1")))
	})
}
