package approvalrequeststore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	historystore "microloan-backend/lib/approval-request/history-store"
	"microloan-backend/lib/apperrors"
	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

type Filter struct {
	Status     models.RequestStatus
	Type       models.RequestType
	Priority   models.RequestPriority
	AssignedTo string
	UserID     string
}

// StatRow is the projection used for workflow statistics
type StatRow struct {
	Status      models.RequestStatus
	RequestType models.RequestType
	Priority    models.RequestPriority
	CreatedAt   time.Time
	ReviewedAt  *time.Time
}

// MutateFunc receives the locked row and returns the column updates and the history entry to append.
// Returning an error rolls the transaction back.
type MutateFunc func(current dbmodels.ApprovalRequest) (updMap map[string]interface{}, history *dbmodels.ApprovalWorkflowHistory, err error)

type Provider interface {
	Create(ctx context.Context, rec dbmodels.ApprovalRequest, history dbmodels.ApprovalWorkflowHistory) (id string, err error)
	GetByID(ctx context.Context, id string) (rec *dbmodels.ApprovalRequest, err error)
	List(ctx context.Context, filter Filter) (list []dbmodels.ApprovalRequest, err error)
	ListExt(ctx context.Context, filter Filter) (list []dbmodels.ApprovalRequestExt, err error)
	MutateLocked(ctx context.Context, id string, mutate MutateFunc) (rec *dbmodels.ApprovalRequest, err error)
	StatRows(ctx context.Context, filter Filter) (rows []StatRow, err error)
	ListStale(ctx context.Context, statuses []models.RequestStatus, createdBefore time.Time) (list []dbmodels.ApprovalRequest, err error)
	ListUnfunded(ctx context.Context, limit int) (list []dbmodels.ApprovalRequest, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(ctx context.Context, rec dbmodels.ApprovalRequest, history dbmodels.ApprovalWorkflowHistory) (id string, err error) {
	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
			return errors.Wrap(err, "insert approval request")
		}
		history.ApprovalRequestID = rec.ID
		_, err := historystore.NewInstance(tx).Create(ctx, history)
		return err
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(ctx context.Context, id string) (*dbmodels.ApprovalRequest, error) {
	rec := dbmodels.ApprovalRequest{}
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

func (i impl) List(ctx context.Context, filter Filter) (list []dbmodels.ApprovalRequest, err error) {
	list = []dbmodels.ApprovalRequest{}
	tx := i.db.WithContext(ctx).Model(&dbmodels.ApprovalRequest{})
	tx = applyFilter(tx, filter, "")
	err = tx.Order("created_at DESC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListExt(ctx context.Context, filter Filter) (list []dbmodels.ApprovalRequestExt, err error) {
	list = []dbmodels.ApprovalRequestExt{}
	tx := i.db.WithContext(ctx).
		Table("approval_requests ar").
		Select("ar.*, p.full_name AS submitter_name, p.email AS submitter_email").
		Joins("LEFT JOIN profiles p ON p.id = ar.user_id")
	tx = applyFilter(tx, filter, "ar.")
	err = tx.Order("ar.created_at DESC").
		Scan(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func applyFilter(tx *gorm.DB, filter Filter, prefix string) *gorm.DB {
	if filter.Status != "" {
		tx = tx.Where(prefix+"status = ?", filter.Status)
	}
	if filter.Type != "" {
		tx = tx.Where(prefix+"request_type = ?", filter.Type)
	}
	if filter.Priority != "" {
		tx = tx.Where(prefix+"priority = ?", filter.Priority)
	}
	if filter.AssignedTo != "" {
		tx = tx.Where(prefix+"assigned_to = ?", filter.AssignedTo)
	}
	if filter.UserID != "" {
		tx = tx.Where(prefix+"user_id = ?", filter.UserID)
	}
	return tx
}

func (i impl) MutateLocked(ctx context.Context, id string, mutate MutateFunc) (*dbmodels.ApprovalRequest, error) {
	rec := dbmodels.ApprovalRequest{}
	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&rec).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		updMap, history, err := mutate(rec)
		if err != nil {
			return err
		}
		if len(updMap) > 0 {
			updMap["updated_at"] = time.Now()
			upd := tx.Model(&dbmodels.ApprovalRequest{}).
				Where("id = ?", id).
				Updates(updMap)
			if upd.Error != nil {
				return errors.Wrap(upd.Error, "update approval request")
			}
			if upd.RowsAffected == 0 {
				return apperrors.ErrNotFound
			}
		}
		if history != nil {
			history.ApprovalRequestID = id
			if _, err = historystore.NewInstance(tx).Create(ctx, *history); err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).First(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (i impl) StatRows(ctx context.Context, filter Filter) (rows []StatRow, err error) {
	rows = []StatRow{}
	tx := i.db.WithContext(ctx).
		Model(&dbmodels.ApprovalRequest{}).
		Select("status, request_type, priority, created_at, reviewed_at")
	tx = applyFilter(tx, filter, "")
	err = tx.Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (i impl) ListStale(ctx context.Context, statuses []models.RequestStatus, createdBefore time.Time) (list []dbmodels.ApprovalRequest, err error) {
	list = []dbmodels.ApprovalRequest{}
	err = i.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Where("created_at < ?", createdBefore).
		Order("created_at ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListUnfunded(ctx context.Context, limit int) (list []dbmodels.ApprovalRequest, err error) {
	list = []dbmodels.ApprovalRequest{}
	err = i.db.WithContext(ctx).
		Where("status = ?", models.RequestStatusApproved).
		Where("request_type = ?", models.RequestTypeLoanApplication).
		Where("reference_id IS NULL").
		Order("reviewed_at ASC").
		Limit(limit).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
