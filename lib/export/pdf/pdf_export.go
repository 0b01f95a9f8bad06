package pdfexport

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	loanapimodels "microloan-backend/models/api/loan"
)

var scheduleCols = []struct {
	title string
	width float64
}{
	{"Month", 20},
	{"Payment", 40},
	{"Principal", 40},
	{"Interest", 40},
	{"Balance", 50},
}

// GenerateSchedule renders the repayment schedule of a loan
func GenerateSchedule(schedule loanapimodels.Schedule) (pdfFile []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("GenerateSchedule panic recover: %v", r)
		}
	}()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Loan repayment schedule", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Loan repayment schedule", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	summary := []string{
		fmt.Sprintf("Loan: %s", schedule.LoanID),
		fmt.Sprintf("Issued: %s", schedule.CreatedAt.Format("2006-01-02")),
		fmt.Sprintf("Amount: %s", money(schedule.Amount)),
		fmt.Sprintf("Term: %d months at %.2f%% per year", schedule.TermMonths, schedule.InterestRate),
		fmt.Sprintf("Monthly payment: %s", money(schedule.MonthlyPayment)),
		fmt.Sprintf("Total repayment: %s", money(schedule.TotalRepayment)),
	}
	for _, line := range summary {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(221, 235, 247)
	for _, col := range scheduleCols {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range schedule.Rows {
		values := []string{
			fmt.Sprintf("%d", row.Month),
			money(row.Payment),
			money(row.Principal),
			money(row.Interest),
			money(row.Balance),
		}
		for idx, col := range scheduleCols {
			align := "R"
			if idx == 0 {
				align = "C"
			}
			pdf.CellFormat(col.width, 6, values[idx], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if pdf.Error() != nil {
		return nil, pdf.Error()
	}

	buf := new(bytes.Buffer)
	err = pdf.Output(buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
