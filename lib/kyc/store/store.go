package kycstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

type Provider interface {
	GetDocument(ctx context.Context, id string) (*dbmodels.KycDocument, error)
	ApproveDocument(ctx context.Context, documentID, userID string) (updated bool, err error)
	ApprovedTypes(ctx context.Context, userID string) ([]string, error)
	SetKycVerified(ctx context.Context, userID string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) GetDocument(ctx context.Context, id string) (*dbmodels.KycDocument, error) {
	rec := dbmodels.KycDocument{}
	err := i.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) ApproveDocument(ctx context.Context, documentID, userID string) (bool, error) {
	tx := i.db.WithContext(ctx).
		Model(&dbmodels.KycDocument{}).
		Where("id = ?", documentID).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"status":     models.KycDocumentApproved,
			"updated_at": time.Now(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (i impl) ApprovedTypes(ctx context.Context, userID string) ([]string, error) {
	types := []string{}
	err := i.db.WithContext(ctx).
		Model(&dbmodels.KycDocument{}).
		Distinct("document_type").
		Where("user_id = ?", userID).
		Where("status = ?", models.KycDocumentApproved).
		Pluck("document_type", &types).
		Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (i impl) SetKycVerified(ctx context.Context, userID string) error {
	tx := i.db.WithContext(ctx).
		Model(&dbmodels.Profile{}).
		Where("id = ?", userID).
		Update("kyc_verified", true)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.Errorf("profile %s not found", userID)
	}
	return nil
}
