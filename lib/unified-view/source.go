package unifiedview

import (
	"context"

	unifiedviewstore "microloan-backend/lib/unified-view/store"
	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

// Source loads the reconciled loan application rows
type Source interface {
	Name() string
	Load(ctx context.Context) ([]dbmodels.UnifiedApplication, error)
}

type viewSource struct {
	store unifiedviewstore.Provider
}

func (s viewSource) Name() string {
	return "view"
}

func (s viewSource) Load(ctx context.Context) ([]dbmodels.UnifiedApplication, error) {
	return s.store.ListView(ctx)
}

type fallbackSource struct {
	store unifiedviewstore.Provider
}

func (s fallbackSource) Name() string {
	return "fallback"
}

func (s fallbackSource) Load(ctx context.Context) ([]dbmodels.UnifiedApplication, error) {
	requests, err := s.store.ListLoanApplications(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := s.store.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	return Reconcile(requests, loans), nil
}

// Reconcile represents every loan application exactly once: as the loan when it is funded,
// as the request otherwise.
func Reconcile(requests []dbmodels.ApprovalRequest, loans []dbmodels.Loan) []dbmodels.UnifiedApplication {
	loanIDs := make(map[string]bool, len(loans))
	fundedRequests := make(map[string]bool, len(loans))
	for _, loan := range loans {
		loanIDs[loan.ID] = true
		if loan.ApprovalRequestID != nil {
			fundedRequests[*loan.ApprovalRequestID] = true
		}
	}
	result := make([]dbmodels.UnifiedApplication, 0, len(requests)+len(loans))
	for _, req := range requests {
		if fundedRequests[req.ID] {
			continue
		}
		if req.ReferenceID != nil && loanIDs[*req.ReferenceID] {
			continue
		}
		result = append(result, fromRequest(req))
	}
	for _, loan := range loans {
		result = append(result, fromLoan(loan))
	}
	return result
}

func fromRequest(req dbmodels.ApprovalRequest) dbmodels.UnifiedApplication {
	requestID := req.ID
	row := dbmodels.UnifiedApplication{
		Source:    models.SourceApproval,
		ID:        req.ID,
		RequestID: &requestID,
		UserID:    req.UserID,
		Purpose:   req.RequestData.GetString("purpose"),
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
	}
	if amount, ok := req.RequestData.GetFloat("amount"); ok {
		row.Amount = amount
	}
	if term, ok := req.RequestData.GetFloat("term"); ok {
		row.TermMonths = int(term)
	}
	if req.Priority != "" {
		priority := string(req.Priority)
		row.Priority = &priority
	}
	return row
}

func fromLoan(loan dbmodels.Loan) dbmodels.UnifiedApplication {
	loanID := loan.ID
	return dbmodels.UnifiedApplication{
		Source:     models.SourceLoan,
		ID:         loan.ID,
		RequestID:  loan.ApprovalRequestID,
		LoanID:     &loanID,
		UserID:     loan.UserID,
		Amount:     loan.Amount,
		TermMonths: loan.TermMonths,
		Purpose:    loan.Purpose,
		Status:     string(loan.Status),
		CreatedAt:  loan.CreatedAt,
	}
}
