package loanfundingstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"microloan-backend/lib/apperrors"
	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

// BuildFunc creates the loan for a locked request that passed every precondition
type BuildFunc func(req dbmodels.ApprovalRequest) (*dbmodels.Loan, error)

type Provider interface {
	FundLoan(ctx context.Context, requestID string, build BuildFunc) (loanID string, err error)
	GetLoan(ctx context.Context, loanID string) (*dbmodels.Loan, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

// FundLoan locks the request row, checks the preconditions against the locked state,
// inserts the loan and links it back to the request. Any failure rolls everything back.
func (i impl) FundLoan(ctx context.Context, requestID string, build BuildFunc) (loanID string, err error) {
	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req := dbmodels.ApprovalRequest{}
		res := tx.Raw("SELECT * FROM approval_requests WHERE id = ? FOR UPDATE", requestID).Scan(&req)
		if res.Error != nil {
			return errors.Wrap(res.Error, "lock approval request")
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		if req.Status != models.RequestStatusApproved {
			return apperrors.ErrNotApproved
		}
		if req.RequestType != models.RequestTypeLoanApplication {
			return apperrors.ErrWrongType
		}
		if req.ReferenceID != nil && *req.ReferenceID != "" {
			return &apperrors.AlreadyProcessedError{LoanID: *req.ReferenceID}
		}

		loan, err := build(req)
		if err != nil {
			return err
		}
		err = tx.Exec(`INSERT INTO loans (id, user_id, amount, term_months, interest_rate, monthly_payment, total_repayment, purpose, status, approval_request_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			loan.ID, loan.UserID, loan.Amount, loan.TermMonths, loan.InterestRate, loan.MonthlyPayment,
			loan.TotalRepayment, loan.Purpose, string(loan.Status), requestID, loan.CreatedAt).Error
		if err != nil {
			return errors.Wrap(err, "insert loan")
		}

		upd := tx.Exec("UPDATE approval_requests SET reference_id = ?, reference_table = ?, updated_at = ? WHERE id = ? AND reference_id IS NULL",
			loan.ID, models.LoansTable, time.Now(), requestID)
		if upd.Error != nil {
			return errors.Wrap(upd.Error, "link loan to approval request")
		}
		if upd.RowsAffected != 1 {
			return errors.Errorf("approval request %s was not linked to loan %s", requestID, loan.ID)
		}
		loanID = loan.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return loanID, nil
}

func (i impl) GetLoan(ctx context.Context, loanID string) (*dbmodels.Loan, error) {
	rec := dbmodels.Loan{}
	err := i.db.WithContext(ctx).
		Where("id = ?", loanID).
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
