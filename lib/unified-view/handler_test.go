package unifiedview

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"microloan-backend/lib/apperrors"
	"microloan-backend/models"
	apimodels "microloan-backend/models/api"
	applicationapimodels "microloan-backend/models/api/application"
	dbmodels "microloan-backend/models/db"
)

type fakeStore struct {
	viewAvailable bool
	viewErr       error
	viewRows      []dbmodels.UnifiedApplication
	requests      []dbmodels.ApprovalRequest
	loans         []dbmodels.Loan
	profiles      map[string]dbmodels.Profile
	profilesErr   error
	fallbackLoads int
}

func (f *fakeStore) ViewAvailable(ctx context.Context) (bool, error) {
	return f.viewAvailable, nil
}

func (f *fakeStore) ListView(ctx context.Context) ([]dbmodels.UnifiedApplication, error) {
	return f.viewRows, f.viewErr
}

func (f *fakeStore) ListLoanApplications(ctx context.Context) ([]dbmodels.ApprovalRequest, error) {
	f.fallbackLoads++
	return f.requests, nil
}

func (f *fakeStore) ListLoans(ctx context.Context) ([]dbmodels.Loan, error) {
	return f.loans, nil
}

func (f *fakeStore) Profiles(ctx context.Context, userIDs []string) (map[string]dbmodels.Profile, error) {
	return f.profiles, f.profilesErr
}

type fakeExporter struct {
	rows int
}

func (f *fakeExporter) ExportApplications(list []applicationapimodels.ApplicationView) (*bytes.Buffer, error) {
	f.rows = len(list)
	return bytes.NewBufferString("xlsx"), nil
}

var (
	reviewer = models.Actor{UserID: "officer-1", Roles: []models.UserRole{models.LoanOfficerRole}}
	t0       = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
)

func strPtr(s string) *string {
	return &s
}

// fixture: req-1 funded by loan-1, req-2 approved but unfunded, req-3 pending,
// loan-0 is a legacy loan without request
func fixture() *fakeStore {
	return &fakeStore{
		requests: []dbmodels.ApprovalRequest{
			{BaseModel: dbmodels.BaseModel{ID: "req-1", CreatedAt: t0}, UserID: "user-aaaaaaaa-1", RequestType: models.RequestTypeLoanApplication,
				Status: models.RequestStatusApproved, Priority: models.PriorityHigh, ReferenceID: strPtr("loan-1"),
				RequestData: dbmodels.JSONMap{"amount": 5000.0, "term": 12.0, "purpose": "Bakery oven"}},
			{BaseModel: dbmodels.BaseModel{ID: "req-2", CreatedAt: t0.Add(time.Hour)}, UserID: "user-bbbbbbbb-2", RequestType: models.RequestTypeLoanApplication,
				Status: models.RequestStatusApproved, Priority: models.PriorityNormal,
				RequestData: dbmodels.JSONMap{"amount": 800.0, "term": 6.0, "purpose": "Bike"}},
			{BaseModel: dbmodels.BaseModel{ID: "req-3", CreatedAt: t0.Add(2 * time.Hour)}, UserID: "user-aaaaaaaa-1", RequestType: models.RequestTypeLoanApplication,
				Status: models.RequestStatusPending,
				RequestData: dbmodels.JSONMap{"amount": 1500.0, "term": 3.0, "purpose": "Laptop"}},
		},
		loans: []dbmodels.Loan{
			{ID: "loan-1", UserID: "user-aaaaaaaa-1", Amount: 5000, TermMonths: 12, Purpose: "Bakery oven", Status: models.LoanStatusApproved,
				ApprovalRequestID: strPtr("req-1"), CreatedAt: t0.Add(30 * time.Minute)},
			{ID: "loan-0", UserID: "user-cccccccc-3", Amount: 300, TermMonths: 2, Status: models.LoanStatusRepaid, CreatedAt: t0.Add(-24 * time.Hour)},
		},
		profiles: map[string]dbmodels.Profile{
			"user-aaaaaaaa-1": {ID: "user-aaaaaaaa-1", FullName: "Ann Lee", Email: "ann@example.com"},
		},
	}
}

func ids(list []applicationapimodels.ApplicationView) []string {
	result := make([]string, 0, len(list))
	for _, item := range list {
		result = append(result, item.ID)
	}
	return result
}

func TestReconcile(t *testing.T) {
	t.Run(`funded requests are represented by their loan only`, func(t *testing.T) {
		store := fixture()
		rows := Reconcile(store.requests, store.loans)
		require.Len(t, rows, 4)
		seen := map[string]int{}
		for _, row := range rows {
			if row.RequestID != nil {
				seen[*row.RequestID]++
			}
		}
		for requestID, count := range seen {
			require.Equal(t, 1, count, requestID)
		}
	})
	t.Run(`request linked only through reference id is dropped`, func(t *testing.T) {
		requests := []dbmodels.ApprovalRequest{{BaseModel: dbmodels.BaseModel{ID: "req-9"}, ReferenceID: strPtr("loan-9")}}
		loans := []dbmodels.Loan{{ID: "loan-9"}}
		rows := Reconcile(requests, loans)
		require.Len(t, rows, 1)
		require.Equal(t, models.SourceLoan, rows[0].Source)
	})
	t.Run(`dangling reference keeps the request`, func(t *testing.T) {
		requests := []dbmodels.ApprovalRequest{{BaseModel: dbmodels.BaseModel{ID: "req-9"}, ReferenceID: strPtr("loan-x")}}
		rows := Reconcile(requests, nil)
		require.Len(t, rows, 1)
		require.Equal(t, models.SourceApproval, rows[0].Source)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	t.Run(`fallback listing is reconciled and newest first`, func(t *testing.T) {
		store := fixture()
		handler := NewInstance(store, &fakeExporter{}, true, time.Second)
		list, rowCount, err := handler.List(ctx, reviewer, applicationapimodels.Filter{})
		require.NoError(t, err)
		require.EqualValues(t, 4, rowCount)
		require.Equal(t, []string{"req-3", "req-2", "loan-1", "loan-0"}, ids(list))
		require.Equal(t, "Ann Lee", list[0].ApplicantName)
		require.Equal(t, "User user-bbb", list[1].ApplicantName)
	})
	t.Run(`view is used when available`, func(t *testing.T) {
		store := fixture()
		store.viewAvailable = true
		store.viewRows = []dbmodels.UnifiedApplication{{Source: models.SourceLoan, ID: "loan-1", UserID: "user-aaaaaaaa-1", Amount: 5000, CreatedAt: t0}}
		handler := NewInstance(store, &fakeExporter{}, true, time.Second)
		list, _, err := handler.List(ctx, reviewer, applicationapimodels.Filter{})
		require.NoError(t, err)
		require.Equal(t, []string{"loan-1"}, ids(list))
		require.Zero(t, store.fallbackLoads)
	})
	t.Run(`view read failure falls back for the call`, func(t *testing.T) {
		store := fixture()
		store.viewAvailable = true
		store.viewErr = errors.New("permission denied for view")
		handler := NewInstance(store, &fakeExporter{}, true, time.Second)
		list, _, err := handler.List(ctx, reviewer, applicationapimodels.Filter{})
		require.NoError(t, err)
		require.Len(t, list, 4)
		require.Equal(t, 1, store.fallbackLoads)
	})
	t.Run(`disabled view is never read`, func(t *testing.T) {
		store := fixture()
		store.viewAvailable = true
		store.viewErr = errors.New("must not be called")
		handler := NewInstance(store, &fakeExporter{}, false, time.Second)
		list, _, err := handler.List(ctx, reviewer, applicationapimodels.Filter{})
		require.NoError(t, err)
		require.Len(t, list, 4)
	})
	t.Run(`applicant lookup failure uses placeholders`, func(t *testing.T) {
		store := fixture()
		store.profilesErr = errors.New("timeout")
		handler := NewInstance(store, &fakeExporter{}, false, time.Second)
		list, _, err := handler.List(ctx, reviewer, applicationapimodels.Filter{})
		require.NoError(t, err)
		require.Equal(t, "User user-aaa", list[0].ApplicantName)
	})
	t.Run(`clients are forbidden`, func(t *testing.T) {
		handler := NewInstance(fixture(), &fakeExporter{}, false, time.Second)
		_, _, err := handler.List(ctx, models.Actor{UserID: "c", Roles: []models.UserRole{models.ClientRole}}, applicationapimodels.Filter{})
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})
	t.Run(`invalid filter`, func(t *testing.T) {
		handler := NewInstance(fixture(), &fakeExporter{}, false, time.Second)
		_, _, err := handler.List(ctx, reviewer, applicationapimodels.Filter{Source: "crm"})
		require.True(t, apperrors.IsValidation(err))
	})
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	handler := NewInstance(fixture(), &fakeExporter{}, false, time.Second)
	amount := func(v float64) *float64 { return &v }
	at := func(d time.Duration) *time.Time {
		v := t0.Add(d)
		return &v
	}
	cases := []struct {
		name   string
		filter applicationapimodels.Filter
		want   []string
	}{
		{`search by applicant name`, applicationapimodels.Filter{Search: "ann"}, []string{"req-3", "loan-1"}},
		{`search by email`, applicationapimodels.Filter{Search: "@EXAMPLE.com"}, []string{"req-3", "loan-1"}},
		{`search by purpose`, applicationapimodels.Filter{Search: "bike"}, []string{"req-2"}},
		{`search by id`, applicationapimodels.Filter{Search: "loan-0"}, []string{"loan-0"}},
		{`search by amount`, applicationapimodels.Filter{Search: "1500"}, []string{"req-3"}},
		{`status`, applicationapimodels.Filter{Status: "approved"}, []string{"req-2", "loan-1"}},
		{`source`, applicationapimodels.Filter{Source: models.SourceLoan}, []string{"loan-1", "loan-0"}},
		{`priority excludes rows without priority`, applicationapimodels.Filter{Priority: models.PriorityNormal}, []string{"req-2"}},
		{`inclusive amount range`, applicationapimodels.Filter{AmountMin: amount(800), AmountMax: amount(1500)}, []string{"req-3", "req-2"}},
		{`inclusive date range`, applicationapimodels.Filter{DateFrom: at(30 * time.Minute), DateTo: at(time.Hour)}, []string{"req-2", "loan-1"}},
		{`pagination`, applicationapimodels.Filter{Pagination: apimodels.Pagination{Limit: 2, Page: 2}}, []string{"loan-1", "loan-0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list, _, err := handler.List(ctx, reviewer, tc.filter)
			require.NoError(t, err)
			require.Equal(t, tc.want, ids(list))
		})
	}
}

func TestExport(t *testing.T) {
	t.Run(`exports the whole filtered listing`, func(t *testing.T) {
		exporter := &fakeExporter{}
		handler := NewInstance(fixture(), exporter, false, time.Second)
		buf, err := handler.Export(context.Background(), reviewer, applicationapimodels.Filter{
			Pagination: apimodels.Pagination{Limit: 1},
			Source:     models.SourceApproval,
		})
		require.NoError(t, err)
		require.Equal(t, "xlsx", buf.String())
		require.Equal(t, 2, exporter.rows)
	})
}
