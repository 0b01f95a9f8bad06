package xlsexport

import (
	"bytes"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"microloan-backend/lib/utils/helpers"
	applicationapimodels "microloan-backend/models/api/application"
)

type Provider interface {
	ExportApplications(list []applicationapimodels.ApplicationView) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

const applicationsSheet = "Applications"

var applicationHeaders = []string{"ID", "Source", "Applicant", "Email", "Amount", "Term (months)", "Purpose", "Status", "Priority", "Created"}

const amountCol = 5

func (i impl) ExportApplications(list []applicationapimodels.ApplicationView) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("failed to close workbook")
		}
	}()
	sheet := "Sheet1"
	row, err := writeHeader(f, sheet, 0, applicationHeaders)
	if err != nil {
		return nil, errors.Wrap(err, "failed to write xlsx header")
	}
	if len(list) != 0 {
		if _, err = writeApplicationData(f, sheet, list, row); err != nil {
			return nil, errors.Wrap(err, "failed to write xlsx rows")
		}
	}
	if err = f.SetSheetName(sheet, applicationsSheet); err != nil {
		return nil, errors.Wrap(err, "failed to rename sheet")
	}
	return f.WriteToBuffer()
}

func writeApplicationData(f *excelize.File, sheet string, list []applicationapimodels.ApplicationView, row int) (int, error) {
	firstRow := row + 1
	lastRow := row + len(list)
	if err := applyDataCellStyle(f, sheet, 1, firstRow, len(applicationHeaders), lastRow); err != nil {
		return row, err
	}
	if err := applyMoneyStyle(f, sheet, amountCol, firstRow, lastRow); err != nil {
		return row, err
	}
	for _, item := range list {
		row++
		values := []interface{}{
			item.ID,
			string(item.Source),
			item.ApplicantName,
			item.ApplicantEmail,
			item.Amount,
			item.TermMonths,
			item.Purpose,
			item.Status,
			helpers.DerefString(item.Priority),
			item.CreatedAt.Format("2006-01-02 15:04"),
		}
		for idx, value := range values {
			if err := writeColumn(f, sheet, idx+1, row, value); err != nil {
				return row, err
			}
		}
	}
	return row, nil
}
