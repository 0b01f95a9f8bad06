package kyc

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"microloan-backend/config"
	"microloan-backend/db"
	"microloan-backend/lib/apperrors"
	kycstore "microloan-backend/lib/kyc/store"
	"microloan-backend/lib/utils/helpers"
	"microloan-backend/models"
	s3client "microloan-backend/s3"
)

type Provider interface {
	ApproveDocument(ctx context.Context, requestID, userID, documentID string) error
	DocumentURL(ctx context.Context, actor models.Actor, documentID string) (string, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance(kycstore.NewInstance(db.DB), s3client.Instance, config.Conf.Workflow.RequiredKycDocuments,
		config.Conf.S3.PresignTTL, config.Conf.Workflow.StoreTimeout)
}

func NewInstance(store kycstore.Provider, objects s3client.Provider, requiredTypes []string, presignTTL, storeTimeout time.Duration) Provider {
	return &impl{
		store:         store,
		objects:       objects,
		requiredTypes: requiredTypes,
		presignTTL:    presignTTL,
		storeTimeout:  storeTimeout,
	}
}

type impl struct {
	store         kycstore.Provider
	objects       s3client.Provider
	requiredTypes []string
	presignTTL    time.Duration
	storeTimeout  time.Duration
}

// ApproveDocument marks the document approved and then verifies the profile once every
// required document type is approved. The second step runs even when the first fails.
func (i impl) ApproveDocument(ctx context.Context, requestID, userID, documentID string) error {
	logger := log.
		WithField("approval_request_id", requestID).
		WithField("user_id", userID).
		WithField("document_id", documentID)
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()

	var firstErr error
	updated, err := i.store.ApproveDocument(storeCtx, documentID, userID)
	switch {
	case err != nil:
		logger.WithError(err).Error("failed to approve kyc document")
		firstErr = apperrors.FromStore(err)
	case !updated:
		logger.Warn("kyc document not found for user")
		firstErr = apperrors.ErrNotFound
	}

	approved, err := i.store.ApprovedTypes(storeCtx, userID)
	if err != nil {
		logger.WithError(err).Error("failed to load approved kyc documents")
		if firstErr == nil {
			firstErr = apperrors.FromStore(err)
		}
		return firstErr
	}
	if !coversAll(approved, i.requiredTypes) {
		return firstErr
	}
	if err = i.store.SetKycVerified(storeCtx, userID); err != nil {
		logger.WithError(err).Error("failed to mark profile kyc verified")
		if firstErr == nil {
			firstErr = apperrors.FromStore(err)
		}
		return firstErr
	}
	logger.Info("profile kyc verified")
	return firstErr
}

func coversAll(approved, required []string) bool {
	if len(required) == 0 {
		return false
	}
	have := map[string]bool{}
	for _, t := range approved {
		have[t] = true
	}
	for _, t := range required {
		if !have[t] {
			return false
		}
	}
	return true
}

func (i impl) DocumentURL(ctx context.Context, actor models.Actor, documentID string) (string, error) {
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()
	doc, err := i.store.GetDocument(storeCtx, documentID)
	if err != nil {
		return "", apperrors.FromStore(err)
	}
	if doc == nil || (doc.UserID != actor.UserID && !actor.IsReviewer()) {
		return "", apperrors.ErrNotFound
	}
	if i.objects == nil {
		return "", &apperrors.TransientStoreError{Err: errNoObjectStorage}
	}
	link, err := i.objects.PresignedGetURL(storeCtx, doc.StorageKey, i.presignTTL)
	if err != nil {
		log.WithField("document_id", documentID).WithError(err).Error("failed to presign kyc document")
		return "", apperrors.FromStore(err)
	}
	return link, nil
}
