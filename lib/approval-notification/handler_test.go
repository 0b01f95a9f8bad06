package approvalnotification

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"microloan-backend/lib/apperrors"
	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

type fakeStore struct {
	mu   sync.Mutex
	seq  int
	recs map[string]*dbmodels.ApprovalNotification
	fail error
}

func newFakeStore() *fakeStore {
	return &fakeStore{recs: map[string]*dbmodels.ApprovalNotification{}}
}

func (f *fakeStore) CreateBatch(ctx context.Context, recs []dbmodels.ApprovalNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	for _, rec := range recs {
		f.seq++
		rec.ID = fmt.Sprintf("n-%d", f.seq)
		copied := rec
		f.recs[rec.ID] = &copied
	}
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*dbmodels.ApprovalNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[id]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) List(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]dbmodels.ApprovalNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := []dbmodels.ApprovalNotification{}
	for _, rec := range f.recs {
		if rec.RecipientID != recipientID || (unreadOnly && rec.IsRead) {
			continue
		}
		list = append(list, *rec)
	}
	sort.Slice(list, func(a, b int) bool { return list[a].SentAt.After(list[b].SentAt) })
	return list, nil
}

func (f *fakeStore) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	list, _ := f.List(ctx, recipientID, true, 0)
	return int64(len(list)), nil
}

func (f *fakeStore) MarkRead(ctx context.Context, id, recipientID string, readAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[id]
	if !ok || rec.RecipientID != recipientID || rec.IsRead {
		return false, nil
	}
	rec.IsRead = true
	rec.ReadAt = &readAt
	return true, nil
}

func (f *fakeStore) MarkAllRead(ctx context.Context, recipientID string, readAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var updated int64
	for _, rec := range f.recs {
		if rec.RecipientID == recipientID && !rec.IsRead {
			rec.IsRead = true
			at := readAt
			rec.ReadAt = &at
			updated++
		}
	}
	return updated, nil
}

func (f *fakeStore) ExistsSince(ctx context.Context, requestID string, notificationType models.NotificationType, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.recs {
		if rec.ApprovalRequestID == requestID && rec.NotificationType == notificationType && !rec.SentAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func newTestHandler(store *fakeStore, clock *time.Time) *impl {
	return &impl{
		store:        store,
		storeTimeout: time.Second,
		now:          func() time.Time { return *clock },
	}
}

func TestNotify(t *testing.T) {
	clock := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	h := newTestHandler(store, &clock)
	ctx := context.Background()

	t.Run(`one row per distinct recipient`, func(t *testing.T) {
		err := h.Notify(ctx, "req-1", models.NotificationStatusUpdate, []string{"u1", "u2", "u1", ""}, "Status changed", "approved", nil)
		require.NoError(t, err)
		require.Len(t, store.recs, 2)
	})
	t.Run(`no recipients is a no-op`, func(t *testing.T) {
		require.NoError(t, h.Notify(ctx, "req-1", models.NotificationNewRequest, nil, "t", "m", nil))
		require.Len(t, store.recs, 2)
	})
	t.Run(`store failure surfaces`, func(t *testing.T) {
		store.fail = errors.Wrap(context.DeadlineExceeded, "insert")
		err := h.Notify(ctx, "req-2", models.NotificationNewRequest, []string{"u3"}, "t", "m", nil)
		require.True(t, apperrors.IsTransient(err))
		store.fail = nil
	})
}

func TestMarkRead(t *testing.T) {
	clock := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	h := newTestHandler(store, &clock)
	ctx := context.Background()
	owner := models.Actor{UserID: "u1"}

	require.NoError(t, h.Notify(ctx, "req-1", models.NotificationStatusUpdate, []string{"u1"}, "Status changed", "approved", nil))
	list, err := h.List(ctx, owner, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	t.Run(`read_at does not advance on the second call`, func(t *testing.T) {
		clock = clock.Add(time.Minute)
		first, err := h.MarkRead(ctx, owner, id)
		require.NoError(t, err)
		require.True(t, first.IsRead)
		require.NotNil(t, first.ReadAt)
		firstReadAt := *first.ReadAt

		clock = clock.Add(time.Hour)
		second, err := h.MarkRead(ctx, owner, id)
		require.NoError(t, err)
		require.True(t, second.IsRead)
		require.Equal(t, firstReadAt, *second.ReadAt)
	})
	t.Run(`other users cannot mark`, func(t *testing.T) {
		_, err := h.MarkRead(ctx, models.Actor{UserID: "u2"}, id)
		require.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
	t.Run(`unread count and mark all`, func(t *testing.T) {
		require.NoError(t, h.Notify(ctx, "req-2", models.NotificationAssignment, []string{"u1"}, "Assigned", "", nil))
		require.NoError(t, h.Notify(ctx, "req-3", models.NotificationAssignment, []string{"u1"}, "Assigned", "", nil))
		count, err := h.UnreadCount(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, int64(2), count)

		updated, err := h.MarkAllRead(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, int64(2), updated)
		count, err = h.UnreadCount(ctx, owner)
		require.NoError(t, err)
		require.Zero(t, count)
	})
	t.Run(`sent since`, func(t *testing.T) {
		exists, err := h.SentSince(ctx, "req-2", models.NotificationAssignment, clock.Add(-time.Minute))
		require.NoError(t, err)
		require.True(t, exists)
		exists, err = h.SentSince(ctx, "req-2", models.NotificationReminder, clock.Add(-time.Minute))
		require.NoError(t, err)
		require.False(t, exists)
	})
}
