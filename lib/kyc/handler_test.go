package kyc

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"microloan-backend/lib/apperrors"
	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

type fakeStore struct {
	docs       map[string]*dbmodels.KycDocument
	verified   map[string]bool
	approveErr error
}

func (f *fakeStore) GetDocument(ctx context.Context, id string) (*dbmodels.KycDocument, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeStore) ApproveDocument(ctx context.Context, documentID, userID string) (bool, error) {
	if f.approveErr != nil {
		return false, f.approveErr
	}
	doc, ok := f.docs[documentID]
	if !ok || doc.UserID != userID {
		return false, nil
	}
	doc.Status = models.KycDocumentApproved
	return true, nil
}

func (f *fakeStore) ApprovedTypes(ctx context.Context, userID string) ([]string, error) {
	types := []string{}
	for _, doc := range f.docs {
		if doc.UserID == userID && doc.Status == models.KycDocumentApproved {
			types = append(types, doc.DocumentType)
		}
	}
	return types, nil
}

func (f *fakeStore) SetKycVerified(ctx context.Context, userID string) error {
	f.verified[userID] = true
	return nil
}

type fakeObjects struct{}

func (fakeObjects) MakeBucket(ctx context.Context) error { return nil }

func (fakeObjects) PresignedGetURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	return "https://s3.local/kyc/" + objectKey + "?ttl=" + ttl.String(), nil
}

func newStore() *fakeStore {
	return &fakeStore{
		docs: map[string]*dbmodels.KycDocument{
			"passport-1": {BaseModel: dbmodels.BaseModel{ID: "passport-1"}, UserID: "u1", DocumentType: "passport", Status: models.KycDocumentPending, StorageKey: "u1/passport.pdf"},
			"address-1":  {BaseModel: dbmodels.BaseModel{ID: "address-1"}, UserID: "u1", DocumentType: "proof_of_address", Status: models.KycDocumentPending},
		},
		verified: map[string]bool{},
	}
}

func TestApproveDocument(t *testing.T) {
	ctx := context.Background()
	required := []string{"passport", "proof_of_address"}

	t.Run(`profile verified after every required type`, func(t *testing.T) {
		store := newStore()
		h := NewInstance(store, fakeObjects{}, required, time.Minute, time.Second)
		require.NoError(t, h.ApproveDocument(ctx, "req-1", "u1", "passport-1"))
		require.False(t, store.verified["u1"])
		require.NoError(t, h.ApproveDocument(ctx, "req-2", "u1", "address-1"))
		require.True(t, store.verified["u1"])
	})
	t.Run(`verification still runs when document update fails`, func(t *testing.T) {
		store := newStore()
		store.docs["passport-1"].Status = models.KycDocumentApproved
		store.docs["address-1"].Status = models.KycDocumentApproved
		store.approveErr = errors.New("update failed")
		h := NewInstance(store, fakeObjects{}, required, time.Minute, time.Second)
		err := h.ApproveDocument(ctx, "req-1", "u1", "passport-1")
		require.Error(t, err)
		require.True(t, store.verified["u1"])
	})
	t.Run(`foreign document`, func(t *testing.T) {
		h := NewInstance(newStore(), fakeObjects{}, required, time.Minute, time.Second)
		err := h.ApproveDocument(ctx, "req-1", "u2", "passport-1")
		require.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
}

func TestDocumentURL(t *testing.T) {
	ctx := context.Background()
	h := NewInstance(newStore(), fakeObjects{}, nil, time.Minute, time.Second)

	t.Run(`owner and reviewer`, func(t *testing.T) {
		link, err := h.DocumentURL(ctx, models.Actor{UserID: "u1"}, "passport-1")
		require.NoError(t, err)
		require.Contains(t, link, "u1/passport.pdf")
		_, err = h.DocumentURL(ctx, models.Actor{UserID: "officer", Roles: []models.UserRole{models.LoanOfficerRole}}, "passport-1")
		require.NoError(t, err)
	})
	t.Run(`other client`, func(t *testing.T) {
		_, err := h.DocumentURL(ctx, models.Actor{UserID: "u2"}, "passport-1")
		require.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
	t.Run(`storage not configured`, func(t *testing.T) {
		h := NewInstance(newStore(), nil, nil, time.Minute, time.Second)
		_, err := h.DocumentURL(ctx, models.Actor{UserID: "u1"}, "passport-1")
		require.True(t, apperrors.IsTransient(err))
	})
}
