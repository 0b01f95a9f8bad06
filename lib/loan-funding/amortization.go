package loanfunding

import (
	"math"

	"microloan-backend/lib/utils/helpers"
	loanapimodels "microloan-backend/models/api/loan"
)

// MonthlyPayment returns the annuity payment for an annual percent rate, rounded to cents
func MonthlyPayment(principal, annualRate float64, months int) float64 {
	if months <= 0 {
		return 0
	}
	r := annualRate / 12 / 100
	if r == 0 {
		return helpers.RoundMoney(principal / float64(months))
	}
	payment := principal * r / (1 - math.Pow(1+r, -float64(months)))
	return helpers.RoundMoney(payment)
}

func TotalRepayment(monthlyPayment float64, months int) float64 {
	return helpers.RoundMoney(monthlyPayment * float64(months))
}

// AmortizationRows splits every payment into interest and principal; the last row absorbs rounding.
func AmortizationRows(principal, annualRate float64, months int) []loanapimodels.ScheduleRow {
	rows := make([]loanapimodels.ScheduleRow, 0, months)
	if months <= 0 {
		return rows
	}
	payment := MonthlyPayment(principal, annualRate, months)
	r := annualRate / 12 / 100
	balance := principal
	for month := 1; month <= months; month++ {
		interest := helpers.RoundMoney(balance * r)
		principalPart := helpers.RoundMoney(payment - interest)
		rowPayment := payment
		if month == months {
			principalPart = helpers.RoundMoney(balance)
			rowPayment = helpers.RoundMoney(principalPart + interest)
		}
		balance = helpers.RoundMoney(balance - principalPart)
		rows = append(rows, loanapimodels.ScheduleRow{
			Month:     month,
			Payment:   rowPayment,
			Principal: principalPart,
			Interest:  interest,
			Balance:   balance,
		})
	}
	return rows
}
