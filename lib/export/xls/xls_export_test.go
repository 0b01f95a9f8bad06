package xlsexport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"microloan-backend/models"
	applicationapimodels "microloan-backend/models/api/application"
)

func TestExportApplications(t *testing.T) {
	t.Run(`writes header and one row per application`, func(t *testing.T) {
		priority := "high"
		list := []applicationapimodels.ApplicationView{
			{Source: models.SourceLoan, ID: "loan-1", ApplicantName: "Ann Lee", Amount: 5000, TermMonths: 12, Status: "approved", CreatedAt: time.Now()},
			{Source: models.SourceApproval, ID: "req-2", ApplicantName: "User 12345678", Amount: 700, TermMonths: 6, Status: "pending", Priority: &priority, CreatedAt: time.Now()},
		}
		buf, err := impl{}.ExportApplications(list)
		require.NoError(t, err)

		f, err := excelize.OpenReader(buf)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(applicationsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		require.Equal(t, applicationHeaders, rows[0])
		require.Equal(t, "loan-1", rows[1][0])
		require.Equal(t, "high", rows[2][8])
	})
	t.Run(`empty list writes only the header`, func(t *testing.T) {
		buf, err := impl{}.ExportApplications(nil)
		require.NoError(t, err)
		f, err := excelize.OpenReader(buf)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(applicationsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})
}
