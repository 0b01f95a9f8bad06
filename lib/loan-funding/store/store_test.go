package loanfundingstore

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"microloan-backend/lib/apperrors"
	"microloan-backend/lib/utils/dbmock"
	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

var requestColumns = []string{"id", "user_id", "request_type", "status", "request_data", "reference_id"}

func lockQuery(mock sqlmock.Sqlmock, status, requestType string, referenceID any) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM approval_requests WHERE id = $1 FOR UPDATE")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows(requestColumns).
			AddRow("req-1", "user-1", requestType, status, []byte(`{"amount":5000,"term":12}`), referenceID))
}

func buildLoan(req dbmodels.ApprovalRequest) (*dbmodels.Loan, error) {
	return &dbmodels.Loan{
		ID:             "loan-new",
		UserID:         req.UserID,
		Amount:         5000,
		TermMonths:     12,
		InterestRate:   12,
		MonthlyPayment: 444.24,
		TotalRepayment: 5330.88,
		Status:         models.LoanStatusApproved,
		CreatedAt:      time.Now(),
	}, nil
}

func TestFundLoan(t *testing.T) {
	ctx := context.Background()

	t.Run(`creates the loan and links it`, func(t *testing.T) {
		gormDB, mock := dbmock.NewMockDB(t)
		mock.ExpectBegin()
		lockQuery(mock, "approved", "loan_application", nil)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO loans")).
			WithArgs("loan-new", "user-1", 5000.0, 12, 12.0, 444.24, 5330.88, "", "approved", "req-1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_requests SET reference_id = $1, reference_table = $2")).
			WithArgs("loan-new", "loans", sqlmock.AnyArg(), "req-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		var built dbmodels.ApprovalRequest
		loanID, err := NewInstance(gormDB).FundLoan(ctx, "req-1", func(req dbmodels.ApprovalRequest) (*dbmodels.Loan, error) {
			built = req
			return buildLoan(req)
		})
		require.NoError(t, err)
		require.Equal(t, "loan-new", loanID)
		require.Equal(t, 5000.0, built.RequestData["amount"])
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run(`second call reports the existing loan and inserts nothing`, func(t *testing.T) {
		gormDB, mock := dbmock.NewMockDB(t)
		mock.ExpectBegin()
		lockQuery(mock, "approved", "loan_application", "loan-new")
		mock.ExpectRollback()

		_, err := NewInstance(gormDB).FundLoan(ctx, "req-1", func(req dbmodels.ApprovalRequest) (*dbmodels.Loan, error) {
			t.Fatal("loan must not be built twice")
			return nil, nil
		})
		processed, ok := apperrors.AsAlreadyProcessed(err)
		require.True(t, ok)
		require.Equal(t, "loan-new", processed.LoanID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run(`failed loan insert leaves the request untouched`, func(t *testing.T) {
		gormDB, mock := dbmock.NewMockDB(t)
		mock.ExpectBegin()
		lockQuery(mock, "approved", "loan_application", nil)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO loans")).
			WillReturnError(errors.New("insert failed"))
		mock.ExpectRollback()

		_, err := NewInstance(gormDB).FundLoan(ctx, "req-1", buildLoan)
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run(`unlinked request rolls the loan back`, func(t *testing.T) {
		gormDB, mock := dbmock.NewMockDB(t)
		mock.ExpectBegin()
		lockQuery(mock, "approved", "loan_application", nil)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO loans")).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_requests")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := NewInstance(gormDB).FundLoan(ctx, "req-1", buildLoan)
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run(`preconditions`, func(t *testing.T) {
		cases := []struct {
			status, requestType string
			expected            error
		}{
			{"pending", "loan_application", apperrors.ErrNotApproved},
			{"rejected", "loan_application", apperrors.ErrNotApproved},
			{"approved", "kyc_document", apperrors.ErrWrongType},
		}
		for _, c := range cases {
			gormDB, mock := dbmock.NewMockDB(t)
			mock.ExpectBegin()
			lockQuery(mock, c.status, c.requestType, nil)
			mock.ExpectRollback()
			_, err := NewInstance(gormDB).FundLoan(ctx, "req-1", buildLoan)
			require.True(t, errors.Is(err, c.expected), c.status)
			require.NoError(t, mock.ExpectationsWereMet())
		}
	})
	t.Run(`missing request`, func(t *testing.T) {
		gormDB, mock := dbmock.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM approval_requests")).
			WillReturnRows(sqlmock.NewRows(requestColumns))
		mock.ExpectRollback()
		_, err := NewInstance(gormDB).FundLoan(ctx, "req-1", buildLoan)
		require.True(t, errors.Is(err, apperrors.ErrNotFound))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
