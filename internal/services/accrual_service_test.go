package services

import (
	"testing"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDayDiff_IgnoresTimeOfDay(t *testing.T) {
	from := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	to := time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DayDiff(from, to))

	// Same calendar date, different hours
	assert.Equal(t, 0, DayDiff(
		time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC),
	))

	// Reversed order yields a negative count
	assert.Equal(t, -3, DayDiff(
		time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	))
}

func penaltyLoan() *models.Loan {
	return &models.Loan{
		ID:           1,
		TenantID:     1,
		ClientName:   "Juan Perez",
		Amount:       800,
		InterestType: models.InterestTypeSimple,
		Rate:         25,
		Frequency:    models.FrequencyMonthly,
		Installments: 1,
		DueDate:      time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount:  1000,
		PaidAmount:   0,
		Status:       models.LoanStatusActive,
		Penalty: &models.PenaltyConfig{
			Active:           true,
			GraceDays:        0,
			MoraRate:         10,
			FixedPenalty:     50,
			FixedPenaltyKind: models.FixedPenaltyOneTime,
		},
	}
}

func TestComputeLoanState_NotYetDue(t *testing.T) {
	service := NewAccrualService()
	loan := penaltyLoan()
	loan.PaidAmount = 200

	state := service.ComputeLoanState(loan, time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 0, state.DaysOverdue)
	assert.Equal(t, 0.0, state.FixedPenalty)
	assert.Equal(t, 0.0, state.MoraInterest)
	assert.InDelta(t, 200.0, state.TotalPlannedInterest, 0.001)
	assert.InDelta(t, 800.0, state.CurrentDebt, 0.001)
	// Interest-first attribution: fees remaining caps at planned interest
	assert.InDelta(t, 200.0, state.FeesRemaining, 0.001)
	assert.InDelta(t, 600.0, state.PrincipalRemaining, 0.001)
}

func TestComputeLoanState_TenDaysOverdue(t *testing.T) {
	service := NewAccrualService()
	loan := penaltyLoan()

	asOf := loan.DueDate.AddDate(0, 0, 10)
	state := service.ComputeLoanState(loan, asOf)

	assert.Equal(t, 10, state.DaysOverdue)
	assert.Equal(t, 50.0, state.FixedPenalty)
	// 1000 * (0.10 / 30) * 10 days
	assert.InDelta(t, 33.333, state.MoraInterest, 0.01)
	assert.InDelta(t, 1083.333, state.CurrentDebt, 0.01)
}

func TestComputeLoanState_GraceDayBoundary(t *testing.T) {
	service := NewAccrualService()
	loan := penaltyLoan()
	loan.Penalty.GraceDays = 3

	// Exactly at the grace limit: no charges yet
	state := service.ComputeLoanState(loan, loan.DueDate.AddDate(0, 0, 3))
	assert.Equal(t, 3, state.DaysOverdue)
	assert.Equal(t, 0.0, state.FixedPenalty)
	assert.Equal(t, 0.0, state.MoraInterest)

	// One day past the grace limit: charges accrue for the full overdue span
	state = service.ComputeLoanState(loan, loan.DueDate.AddDate(0, 0, 4))
	assert.Equal(t, 4, state.DaysOverdue)
	assert.Equal(t, 50.0, state.FixedPenalty)
	assert.InDelta(t, 1000*(0.10/30)*4, state.MoraInterest, 0.001)
}

func TestComputeLoanState_PaidLoanAccruesNothing(t *testing.T) {
	service := NewAccrualService()
	loan := penaltyLoan()
	loan.Status = models.LoanStatusPaid
	loan.PaidAmount = loan.TotalAmount

	state := service.ComputeLoanState(loan, loan.DueDate.AddDate(0, 0, 30))
	assert.Equal(t, 0.0, state.FixedPenalty)
	assert.Equal(t, 0.0, state.MoraInterest)
	assert.Equal(t, 0.0, state.CurrentDebt)
}

func TestComputeLoanState_Idempotent(t *testing.T) {
	service := NewAccrualService()
	loan := penaltyLoan()
	asOf := loan.DueDate.AddDate(0, 0, 15)

	first := service.ComputeLoanState(loan, asOf)
	second := service.ComputeLoanState(loan, asOf)
	assert.Equal(t, first, second)
}

func TestComputeLoanState_NextRenewalCost(t *testing.T) {
	service := NewAccrualService()

	// Fixed-schedule loans renew at planned interest per installment
	loan := penaltyLoan()
	loan.Installments = 4
	state := service.ComputeLoanState(loan, loan.DueDate.AddDate(0, 0, -5))
	assert.InDelta(t, 50.0, state.NextRenewalCost, 0.001)

	// Balance-based loans renew at the rate applied to remaining principal
	loan = penaltyLoan()
	loan.InterestType = models.InterestTypeBalance
	loan.PaidAmount = 500
	state = service.ComputeLoanState(loan, loan.DueDate.AddDate(0, 0, -5))
	// Debt 500, fees cap at 200, principal remaining 300 -> 300 * 25%
	assert.InDelta(t, 75.0, state.NextRenewalCost, 0.001)
}
