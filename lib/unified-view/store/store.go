package unifiedviewstore

import (
	"context"

	"gorm.io/gorm"
	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

const ViewName = "unified_loan_applications"

type Provider interface {
	ViewAvailable(ctx context.Context) (bool, error)
	ListView(ctx context.Context) ([]dbmodels.UnifiedApplication, error)
	ListLoanApplications(ctx context.Context) ([]dbmodels.ApprovalRequest, error)
	ListLoans(ctx context.Context) ([]dbmodels.Loan, error)
	Profiles(ctx context.Context, userIDs []string) (map[string]dbmodels.Profile, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) ViewAvailable(ctx context.Context) (bool, error) {
	var exists bool
	err := i.db.WithContext(ctx).
		Raw("SELECT to_regclass(?) IS NOT NULL", ViewName).
		Scan(&exists).
		Error
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (i impl) ListView(ctx context.Context) ([]dbmodels.UnifiedApplication, error) {
	list := []dbmodels.UnifiedApplication{}
	err := i.db.WithContext(ctx).
		Table(ViewName).
		Order("created_at DESC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListLoanApplications(ctx context.Context) ([]dbmodels.ApprovalRequest, error) {
	list := []dbmodels.ApprovalRequest{}
	err := i.db.WithContext(ctx).
		Where("request_type = ?", models.RequestTypeLoanApplication).
		Order("created_at DESC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListLoans(ctx context.Context) ([]dbmodels.Loan, error) {
	list := []dbmodels.Loan{}
	err := i.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Profiles(ctx context.Context, userIDs []string) (map[string]dbmodels.Profile, error) {
	result := map[string]dbmodels.Profile{}
	if len(userIDs) == 0 {
		return result, nil
	}
	list := []dbmodels.Profile{}
	err := i.db.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	for _, rec := range list {
		result[rec.ID] = rec
	}
	return result, nil
}
