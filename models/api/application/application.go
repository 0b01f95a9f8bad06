package applicationapimodels

import (
	"time"

	"github.com/pkg/errors"
	"microloan-backend/models"
	apimodels "microloan-backend/models/api"
)

type Filter struct {
	apimodels.Pagination
	Search    string                   `json:"search"`     // name, email, purpose, id or amount
	Status    string                   `json:"status"`
	Source    models.ApplicationSource `json:"source"`     // approval or loan
	Priority  models.RequestPriority   `json:"priority"`   // rows without a priority are excluded
	DateFrom  *time.Time               `json:"date_from"`  // inclusive
	DateTo    *time.Time               `json:"date_to"`    // inclusive
	AmountMin *float64                 `json:"amount_min"` // inclusive
	AmountMax *float64                 `json:"amount_max"` // inclusive
}

func (f Filter) Validate() error {
	if f.Source != "" && f.Source != models.SourceApproval && f.Source != models.SourceLoan {
		return errors.Errorf("unknown source %q", f.Source)
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return errors.New("date_from is after date_to")
	}
	if f.AmountMin != nil && f.AmountMax != nil && *f.AmountMin > *f.AmountMax {
		return errors.New("amount_min is greater than amount_max")
	}
	return nil
}

type ApplicationView struct {
	Source         models.ApplicationSource `json:"source"`
	ID             string                   `json:"id"`
	RequestID      *string                  `json:"request_id"`
	LoanID         *string                  `json:"loan_id"`
	UserID         string                   `json:"user_id"`
	ApplicantName  string                   `json:"applicant_name"`
	ApplicantEmail string                   `json:"applicant_email"`
	Amount         float64                  `json:"amount"`
	TermMonths     int                      `json:"term_months"`
	Purpose        string                   `json:"purpose"`
	Status         string                   `json:"status"`
	Priority       *string                  `json:"priority"`
	CreatedAt      time.Time                `json:"created_at"`
}
