// Package memstore keeps approval requests, history, loans and profiles in memory and serves
// them through the store providers. It backs handler tests that span several services.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	historystore "microloan-backend/lib/approval-request/history-store"
	approvalrequeststore "microloan-backend/lib/approval-request/store"
	"microloan-backend/lib/apperrors"
	loanfundingstore "microloan-backend/lib/loan-funding/store"
	unifiedviewstore "microloan-backend/lib/unified-view/store"
	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

type DB struct {
	mu       sync.Mutex
	seq      int
	start    time.Time
	requests map[string]*dbmodels.ApprovalRequest
	history  []dbmodels.ApprovalWorkflowHistory
	loans    map[string]*dbmodels.Loan
	profiles map[string]dbmodels.Profile

	// FailLoanInsert fails FundLoan after the preconditions passed
	FailLoanInsert error
	// FailExt fails the enriched request listing
	FailExt error
	// FailProfiles fails the applicant lookup
	FailProfiles error
}

func New() *DB {
	return &DB{
		start:    time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		requests: map[string]*dbmodels.ApprovalRequest{},
		loans:    map[string]*dbmodels.Loan{},
		profiles: map[string]dbmodels.Profile{},
	}
}

// tick returns a strictly increasing timestamp; callers hold mu
func (d *DB) tick() time.Time {
	d.seq++
	return d.start.Add(time.Duration(d.seq) * time.Minute)
}

func (d *DB) nextID(prefix string) string {
	d.seq++
	return fmt.Sprintf("%s-%04d", prefix, d.seq)
}

func (d *DB) AddProfile(profile dbmodels.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[profile.ID] = profile
}

func (d *DB) Request(id string) *dbmodels.ApprovalRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.requests[id]
	if !ok {
		return nil
	}
	copied := *rec
	return &copied
}

func (d *DB) Loans() []dbmodels.Loan {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]dbmodels.Loan, 0, len(d.loans))
	for _, loan := range d.loans {
		result = append(result, *loan)
	}
	return result
}

func (d *DB) Requests() approvalrequeststore.Provider {
	return requestStore{d}
}

func (d *DB) History() historystore.Provider {
	return historyStore{d}
}

func (d *DB) Funding() loanfundingstore.Provider {
	return fundingStore{d}
}

func (d *DB) Unified() unifiedviewstore.Provider {
	return unifiedStore{d}
}

type requestStore struct {
	d *DB
}

func (s requestStore) Create(ctx context.Context, rec dbmodels.ApprovalRequest, history dbmodels.ApprovalWorkflowHistory) (string, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	rec.ID = s.d.nextID("req")
	rec.CreatedAt = s.d.tick()
	rec.UpdatedAt = rec.CreatedAt
	s.d.requests[rec.ID] = &rec
	history.ID = s.d.nextID("hist")
	history.ApprovalRequestID = rec.ID
	s.d.history = append(s.d.history, history)
	return rec.ID, nil
}

func (s requestStore) GetByID(ctx context.Context, id string) (*dbmodels.ApprovalRequest, error) {
	return s.d.Request(id), nil
}

func (s requestStore) List(ctx context.Context, filter approvalrequeststore.Filter) ([]dbmodels.ApprovalRequest, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.d.filtered(filter), nil
}

func (s requestStore) ListExt(ctx context.Context, filter approvalrequeststore.Filter) ([]dbmodels.ApprovalRequestExt, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if s.d.FailExt != nil {
		return nil, s.d.FailExt
	}
	list := s.d.filtered(filter)
	result := make([]dbmodels.ApprovalRequestExt, 0, len(list))
	for _, rec := range list {
		profile := s.d.profiles[rec.UserID]
		result = append(result, dbmodels.ApprovalRequestExt{
			ApprovalRequest: rec,
			SubmitterName:   profile.FullName,
			SubmitterEmail:  profile.Email,
		})
	}
	return result, nil
}

func (d *DB) filtered(filter approvalrequeststore.Filter) []dbmodels.ApprovalRequest {
	list := []dbmodels.ApprovalRequest{}
	for _, rec := range d.requests {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Type != "" && rec.RequestType != filter.Type {
			continue
		}
		if filter.Priority != "" && rec.Priority != filter.Priority {
			continue
		}
		if filter.AssignedTo != "" && (rec.AssignedTo == nil || *rec.AssignedTo != filter.AssignedTo) {
			continue
		}
		if filter.UserID != "" && rec.UserID != filter.UserID {
			continue
		}
		list = append(list, *rec)
	}
	sort.Slice(list, func(a, b int) bool {
		return list[a].CreatedAt.After(list[b].CreatedAt)
	})
	return list
}

func (s requestStore) MutateLocked(ctx context.Context, id string, mutate approvalrequeststore.MutateFunc) (*dbmodels.ApprovalRequest, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	rec, ok := s.d.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	updMap, history, err := mutate(*rec)
	if err != nil {
		return nil, err
	}
	updated := *rec
	if len(updMap) > 0 {
		if err = applyUpdates(&updated, updMap); err != nil {
			return nil, err
		}
		updated.UpdatedAt = s.d.tick()
	}
	if history != nil {
		history.ID = s.d.nextID("hist")
		history.ApprovalRequestID = id
		s.d.history = append(s.d.history, *history)
	}
	*rec = updated
	copied := updated
	return &copied, nil
}

func applyUpdates(rec *dbmodels.ApprovalRequest, updMap map[string]interface{}) error {
	for key, value := range updMap {
		switch key {
		case "status":
			rec.Status = value.(models.RequestStatus)
		case "notes":
			rec.Notes = value.(string)
		case "assigned_to":
			if value == nil {
				rec.AssignedTo = nil
			} else {
				assignee := value.(string)
				rec.AssignedTo = &assignee
			}
		case "reviewed_at":
			reviewedAt := value.(time.Time)
			rec.ReviewedAt = &reviewedAt
		case "reviewer_id":
			reviewer := value.(string)
			rec.ReviewerID = &reviewer
		default:
			return errors.Errorf("memstore: unsupported column %s", key)
		}
	}
	return nil
}

func (s requestStore) StatRows(ctx context.Context, filter approvalrequeststore.Filter) ([]approvalrequeststore.StatRow, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	rows := []approvalrequeststore.StatRow{}
	for _, rec := range s.d.filtered(filter) {
		rows = append(rows, approvalrequeststore.StatRow{
			Status:      rec.Status,
			RequestType: rec.RequestType,
			Priority:    rec.Priority,
			CreatedAt:   rec.CreatedAt,
			ReviewedAt:  rec.ReviewedAt,
		})
	}
	return rows, nil
}

func (s requestStore) ListStale(ctx context.Context, statuses []models.RequestStatus, createdBefore time.Time) ([]dbmodels.ApprovalRequest, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	list := []dbmodels.ApprovalRequest{}
	for _, rec := range s.d.filtered(approvalrequeststore.Filter{}) {
		if !rec.CreatedAt.Before(createdBefore) {
			continue
		}
		for _, status := range statuses {
			if rec.Status == status {
				list = append(list, rec)
				break
			}
		}
	}
	return list, nil
}

func (s requestStore) ListUnfunded(ctx context.Context, limit int) ([]dbmodels.ApprovalRequest, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	list := []dbmodels.ApprovalRequest{}
	for _, rec := range s.d.filtered(approvalrequeststore.Filter{
		Status: models.RequestStatusApproved,
		Type:   models.RequestTypeLoanApplication,
	}) {
		if rec.ReferenceID == nil && len(list) < limit {
			list = append(list, rec)
		}
	}
	return list, nil
}

type historyStore struct {
	d *DB
}

func (s historyStore) Create(ctx context.Context, rec dbmodels.ApprovalWorkflowHistory) (string, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	rec.ID = s.d.nextID("hist")
	s.d.history = append(s.d.history, rec)
	return rec.ID, nil
}

func (s historyStore) List(ctx context.Context, requestID string) ([]dbmodels.ApprovalWorkflowHistory, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	list := []dbmodels.ApprovalWorkflowHistory{}
	for _, rec := range s.d.history {
		if rec.ApprovalRequestID == requestID {
			list = append(list, rec)
		}
	}
	return list, nil
}

type fundingStore struct {
	d *DB
}

func (s fundingStore) FundLoan(ctx context.Context, requestID string, build loanfundingstore.BuildFunc) (string, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	req, ok := s.d.requests[requestID]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	if req.Status != models.RequestStatusApproved {
		return "", apperrors.ErrNotApproved
	}
	if req.RequestType != models.RequestTypeLoanApplication {
		return "", apperrors.ErrWrongType
	}
	if req.ReferenceID != nil && *req.ReferenceID != "" {
		return "", &apperrors.AlreadyProcessedError{LoanID: *req.ReferenceID}
	}
	loan, err := build(*req)
	if err != nil {
		return "", err
	}
	if s.d.FailLoanInsert != nil {
		return "", errors.Wrap(s.d.FailLoanInsert, "insert loan")
	}
	stored := *loan
	s.d.loans[loan.ID] = &stored
	loanID := loan.ID
	table := models.LoansTable
	req.ReferenceID = &loanID
	req.ReferenceTable = &table
	return loan.ID, nil
}

func (s fundingStore) GetLoan(ctx context.Context, loanID string) (*dbmodels.Loan, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	loan, ok := s.d.loans[loanID]
	if !ok {
		return nil, nil
	}
	copied := *loan
	return &copied, nil
}

type unifiedStore struct {
	d *DB
}

func (s unifiedStore) ViewAvailable(ctx context.Context) (bool, error) {
	return false, nil
}

func (s unifiedStore) ListView(ctx context.Context) ([]dbmodels.UnifiedApplication, error) {
	return nil, errors.Errorf("relation %q does not exist", unifiedviewstore.ViewName)
}

func (s unifiedStore) ListLoanApplications(ctx context.Context) ([]dbmodels.ApprovalRequest, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.d.filtered(approvalrequeststore.Filter{Type: models.RequestTypeLoanApplication}), nil
}

func (s unifiedStore) ListLoans(ctx context.Context) ([]dbmodels.Loan, error) {
	loans := s.d.Loans()
	sort.Slice(loans, func(a, b int) bool {
		return loans[a].CreatedAt.After(loans[b].CreatedAt)
	})
	return loans, nil
}

func (s unifiedStore) Profiles(ctx context.Context, userIDs []string) (map[string]dbmodels.Profile, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if s.d.FailProfiles != nil {
		return nil, s.d.FailProfiles
	}
	result := map[string]dbmodels.Profile{}
	for _, id := range userIDs {
		if profile, ok := s.d.profiles[id]; ok {
			result[id] = profile
		}
	}
	return result, nil
}
