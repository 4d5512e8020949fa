package services

import (
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"
)

// AccrualService derives a loan's live financial state from its contract
// terms, penalty configuration and payment totals. It is a pure computation:
// calling it twice with the same loan and instant yields identical results.
type AccrualService struct{}

// NewAccrualService creates a new accrual service
func NewAccrualService() *AccrualService {
	return &AccrualService{}
}

// LoanState is the accrued breakdown of a loan at a point in time
type LoanState struct {
	DaysOverdue          int     `json:"days_overdue"`
	FixedPenalty         float64 `json:"fixed_penalty"`
	MoraInterest         float64 `json:"mora_interest"`
	TotalPlannedInterest float64 `json:"total_planned_interest"`
	CurrentDebt          float64 `json:"current_debt"`
	PrincipalRemaining   float64 `json:"principal_remaining"`
	FeesRemaining        float64 `json:"fees_remaining"`
	NextRenewalCost      float64 `json:"next_renewal_cost"`
}

// DayDiff returns the whole-day difference between two instants, truncated to
// UTC calendar dates. Time of day never influences overdue counting.
func DayDiff(from, to time.Time) int {
	fy, fm, fd := from.UTC().Date()
	ty, tm, td := to.UTC().Date()
	fu := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	tu := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(tu.Sub(fu).Hours() / 24)
}

// ComputeLoanState evaluates the loan as of the given instant.
//
// Outstanding debt is attributed to interest first: fees remaining is capped
// by the total planned interest and principal only starts to show as
// remaining once debt exceeds it. This treats principal as recovered before
// interest for display purposes, independent of actual payment order.
func (s *AccrualService) ComputeLoanState(loan *models.Loan, asOf time.Time) LoanState {
	daysOverdue := DayDiff(loan.DueDate, asOf)
	if daysOverdue < 0 {
		daysOverdue = 0
	}

	var fixedPenalty, moraInterest float64
	if loan.Status != models.LoanStatusPaid && loan.PenaltyActive() && daysOverdue > 0 {
		cfg := loan.Penalty
		if daysOverdue > cfg.GraceDays {
			if cfg.FixedPenaltyKind == models.FixedPenaltyPerDay {
				fixedPenalty = cfg.FixedPenalty * float64(daysOverdue)
			} else {
				fixedPenalty = cfg.FixedPenalty
			}

			// Mora accrues daily at a monthly rate spread over 30 days,
			// against the live committed total (renewals included).
			dailyRate := (cfg.MoraRate / 100) / 30
			moraInterest = loan.TotalAmount * dailyRate * float64(daysOverdue)
		}
	}

	plannedInterest := loan.TotalAmount - loan.Amount
	if plannedInterest < 0 {
		plannedInterest = 0
	}

	baseDebt := loan.TotalAmount - loan.PaidAmount
	if baseDebt < 0 {
		baseDebt = 0
	}

	feesRemaining := plannedInterest
	if baseDebt < feesRemaining {
		feesRemaining = baseDebt
	}
	principalRemaining := baseDebt - feesRemaining
	if principalRemaining < 0 {
		principalRemaining = 0
	}

	var renewalCost float64
	if loan.InterestType == models.InterestTypeBalance {
		renewalCost = principalRemaining * (loan.Rate / 100)
	} else if loan.Installments > 0 {
		renewalCost = plannedInterest / float64(loan.Installments)
	}

	return LoanState{
		DaysOverdue:          daysOverdue,
		FixedPenalty:         fixedPenalty,
		MoraInterest:         moraInterest,
		TotalPlannedInterest: plannedInterest,
		CurrentDebt:          baseDebt + fixedPenalty + moraInterest,
		PrincipalRemaining:   principalRemaining,
		FeesRemaining:        feesRemaining,
		NextRenewalCost:      renewalCost,
	}
}
