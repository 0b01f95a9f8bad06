package approvalnotificationstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

type Provider interface {
	CreateBatch(ctx context.Context, recs []dbmodels.ApprovalNotification) error
	GetByID(ctx context.Context, id string) (rec *dbmodels.ApprovalNotification, err error)
	List(ctx context.Context, recipientID string, unreadOnly bool, limit int) (list []dbmodels.ApprovalNotification, err error)
	UnreadCount(ctx context.Context, recipientID string) (count int64, err error)
	MarkRead(ctx context.Context, id, recipientID string, readAt time.Time) (updated bool, err error)
	MarkAllRead(ctx context.Context, recipientID string, readAt time.Time) (updated int64, err error)
	ExistsSince(ctx context.Context, requestID string, notificationType models.NotificationType, since time.Time) (bool, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) CreateBatch(ctx context.Context, recs []dbmodels.ApprovalNotification) error {
	if len(recs) == 0 {
		return nil
	}
	err := i.db.WithContext(ctx).
		Create(&recs).
		Error
	if err != nil {
		return errors.Wrap(err, "insert notifications")
	}
	return nil
}

func (i impl) GetByID(ctx context.Context, id string) (*dbmodels.ApprovalNotification, error) {
	rec := dbmodels.ApprovalNotification{}
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

func (i impl) List(ctx context.Context, recipientID string, unreadOnly bool, limit int) (list []dbmodels.ApprovalNotification, err error) {
	list = []dbmodels.ApprovalNotification{}
	tx := i.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID)
	if unreadOnly {
		tx = tx.Where("is_read = ?", false)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	err = tx.Order("sent_at DESC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) UnreadCount(ctx context.Context, recipientID string) (count int64, err error) {
	err = i.db.WithContext(ctx).
		Model(&dbmodels.ApprovalNotification{}).
		Where("recipient_id = ?", recipientID).
		Where("is_read = ?", false).
		Count(&count).
		Error
	return count, err
}

// MarkRead only touches unread rows so read_at keeps the first read time
func (i impl) MarkRead(ctx context.Context, id, recipientID string, readAt time.Time) (updated bool, err error) {
	tx := i.db.WithContext(ctx).
		Model(&dbmodels.ApprovalNotification{}).
		Where("id = ?", id).
		Where("recipient_id = ?", recipientID).
		Where("is_read = ?", false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (i impl) MarkAllRead(ctx context.Context, recipientID string, readAt time.Time) (updated int64, err error) {
	tx := i.db.WithContext(ctx).
		Model(&dbmodels.ApprovalNotification{}).
		Where("recipient_id = ?", recipientID).
		Where("is_read = ?", false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt,
		})
	return tx.RowsAffected, tx.Error
}

func (i impl) ExistsSince(ctx context.Context, requestID string, notificationType models.NotificationType, since time.Time) (bool, error) {
	var count int64
	err := i.db.WithContext(ctx).
		Model(&dbmodels.ApprovalNotification{}).
		Where("approval_request_id = ?", requestID).
		Where("notification_type = ?", notificationType).
		Where("sent_at >= ?", since).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
