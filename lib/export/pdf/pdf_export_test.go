package pdfexport

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	loanapimodels "microloan-backend/models/api/loan"
)

func TestGenerateSchedule(t *testing.T) {
	t.Run(`renders a pdf document`, func(t *testing.T) {
		schedule := loanapimodels.Schedule{
			LoanID:         "loan-1",
			Amount:         1000,
			TermMonths:     2,
			InterestRate:   12,
			MonthlyPayment: 507.51,
			TotalRepayment: 1015.02,
			CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Rows: []loanapimodels.ScheduleRow{
				{Month: 1, Payment: 507.51, Principal: 497.51, Interest: 10, Balance: 502.49},
				{Month: 2, Payment: 507.51, Principal: 502.49, Interest: 5.02, Balance: 0},
			},
		}
		file, err := GenerateSchedule(schedule)
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(file, []byte("%PDF-")))
	})
	t.Run(`empty schedule still renders`, func(t *testing.T) {
		file, err := GenerateSchedule(loanapimodels.Schedule{LoanID: "loan-2"})
		require.NoError(t, err)
		require.NotEmpty(t, file)
	})
}
