package loanfunding

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"microloan-backend/config"
	"microloan-backend/db"
	"microloan-backend/lib/apperrors"
	loanfundingstore "microloan-backend/lib/loan-funding/store"
	"microloan-backend/lib/metrics"
	"microloan-backend/lib/utils/helpers"
	"microloan-backend/models"
	approvalapimodels "microloan-backend/models/api/approval"
	loanapimodels "microloan-backend/models/api/loan"
	dbmodels "microloan-backend/models/db"
)

type Provider interface {
	Process(ctx context.Context, requestID string) (*approvalapimodels.ProcessResponse, error)
	Schedule(ctx context.Context, actor models.Actor, loanID string) (*loanapimodels.Schedule, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance(loanfundingstore.NewInstance(db.DB), config.Conf.Workflow.DefaultInterestRate, config.Conf.Workflow.StoreTimeout)
}

func NewInstance(store loanfundingstore.Provider, defaultInterestRate float64, storeTimeout time.Duration) Provider {
	return &impl{
		store:               store,
		defaultInterestRate: defaultInterestRate,
		storeTimeout:        storeTimeout,
		newID:               uuid.NewString,
		now:                 time.Now,
	}
}

type impl struct {
	store               loanfundingstore.Provider
	defaultInterestRate float64
	storeTimeout        time.Duration
	newID               func() string
	now                 func() time.Time
}

func (i impl) GetLogger(requestID string) *log.Entry {
	return log.WithField("approval_request_id", requestID)
}

// Process converts an approved loan application into a loan. Repeated calls return the loan
// created by the first one.
func (i impl) Process(ctx context.Context, requestID string) (*approvalapimodels.ProcessResponse, error) {
	logger := i.GetLogger(requestID)
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()

	loanID, err := i.store.FundLoan(storeCtx, requestID, i.buildLoan)
	if err != nil {
		if processed, ok := apperrors.AsAlreadyProcessed(err); ok {
			logger.WithField("loan_id", processed.LoanID).Info("loan application already processed")
			return &approvalapimodels.ProcessResponse{LoanID: processed.LoanID, AlreadyProcessed: true}, nil
		}
		metrics.FundingFailures.WithLabelValues(failureReason(err)).Inc()
		if errors.Is(err, apperrors.ErrNotApproved) || errors.Is(err, apperrors.ErrWrongType) ||
			errors.Is(err, apperrors.ErrNotFound) || apperrors.IsValidation(err) {
			logger.WithError(err).Warn("loan funding precondition failed")
			return nil, err
		}
		logger.WithError(err).Error("loan funding transaction failed")
		return nil, apperrors.FromStore(err)
	}
	metrics.LoansFunded.Inc()
	logger.WithField("loan_id", loanID).Info("loan funded")
	return &approvalapimodels.ProcessResponse{LoanID: loanID}, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNotApproved):
		return "not_approved"
	case errors.Is(err, apperrors.ErrWrongType):
		return "wrong_type"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case apperrors.IsValidation(err):
		return "invalid_payload"
	case apperrors.IsTransient(apperrors.FromStore(err)):
		return "transient"
	}
	return "store_error"
}

func (i impl) buildLoan(req dbmodels.ApprovalRequest) (*dbmodels.Loan, error) {
	amount, ok := req.RequestData.GetFloat("amount")
	if !ok || amount <= 0 {
		return nil, apperrors.NewValidation("loan application %s has no valid amount", req.ID)
	}
	term, ok := req.RequestData.GetFloat("term")
	if !ok || term < 1 || term != float64(int(term)) {
		return nil, apperrors.NewValidation("loan application %s has no valid term", req.ID)
	}
	rate := i.defaultInterestRate
	if payloadRate, ok := req.RequestData.GetFloat("interest_rate"); ok && payloadRate >= 0 {
		rate = payloadRate
	}
	months := int(term)
	monthly := MonthlyPayment(amount, rate, months)
	requestID := req.ID
	return &dbmodels.Loan{
		ID:                i.newID(),
		UserID:            req.UserID,
		Amount:            amount,
		TermMonths:        months,
		InterestRate:      rate,
		MonthlyPayment:    monthly,
		TotalRepayment:    TotalRepayment(monthly, months),
		Purpose:           req.RequestData.GetString("purpose"),
		Status:            models.LoanStatusApproved,
		ApprovalRequestID: &requestID,
		CreatedAt:         i.now(),
	}, nil
}

func (i impl) Schedule(ctx context.Context, actor models.Actor, loanID string) (*loanapimodels.Schedule, error) {
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()
	loan, err := i.store.GetLoan(storeCtx, loanID)
	if err != nil {
		log.WithField("loan_id", loanID).WithError(err).Error("failed to get loan")
		return nil, apperrors.FromStore(err)
	}
	if loan == nil || (loan.UserID != actor.UserID && !actor.IsReviewer()) {
		return nil, apperrors.ErrNotFound
	}
	return &loanapimodels.Schedule{
		LoanID:         loan.ID,
		UserID:         loan.UserID,
		Amount:         loan.Amount,
		TermMonths:     loan.TermMonths,
		InterestRate:   loan.InterestRate,
		MonthlyPayment: loan.MonthlyPayment,
		TotalRepayment: loan.TotalRepayment,
		CreatedAt:      loan.CreatedAt,
		Rows:           AmortizationRows(loan.Amount, loan.InterestRate, loan.TermMonths),
	}, nil
}
