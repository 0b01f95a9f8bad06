package loanapimodels

import "time"

type ScheduleRow struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

type Schedule struct {
	LoanID         string        `json:"loan_id"`
	UserID         string        `json:"user_id"`
	Amount         float64       `json:"amount"`
	TermMonths     int           `json:"term_months"`
	InterestRate   float64       `json:"interest_rate"` // annual, percent
	MonthlyPayment float64       `json:"monthly_payment"`
	TotalRepayment float64       `json:"total_repayment"`
	CreatedAt      time.Time     `json:"created_at"`
	Rows           []ScheduleRow `json:"rows"`
}
