package approvalhistorystore

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	dbmodels "microloan-backend/models/db"
)

type Provider interface {
	Create(ctx context.Context, rec dbmodels.ApprovalWorkflowHistory) (id string, err error)
	List(ctx context.Context, requestID string) (list []dbmodels.ApprovalWorkflowHistory, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(ctx context.Context, rec dbmodels.ApprovalWorkflowHistory) (id string, err error) {
	err = i.db.WithContext(ctx).
		Create(&rec).
		Error
	if err != nil {
		return "", errors.Wrap(err, "insert workflow history")
	}
	return rec.ID, nil
}

func (i impl) List(ctx context.Context, requestID string) (list []dbmodels.ApprovalWorkflowHistory, err error) {
	list = []dbmodels.ApprovalWorkflowHistory{}
	err = i.db.WithContext(ctx).
		Where("approval_request_id = ?", requestID).
		Order("changed_at ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
