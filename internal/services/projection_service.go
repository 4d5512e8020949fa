package services

import (
	"math"

	"github.com/rmaciel/gestpay-api/internal/models"
)

// ProjectionService computes pre-commitment payoff totals and late-fee
// simulations. Everything here is pure and runs before any loan exists, so
// the methods take plain terms instead of a persisted record.
type ProjectionService struct{}

// NewProjectionService creates a new projection service
func NewProjectionService() *ProjectionService {
	return &ProjectionService{}
}

// LateFeeSimulation is the outcome of projecting penalties onto a
// hypothetical number of overdue days.
type LateFeeSimulation struct {
	FixedPenalty   float64 `json:"fixed_penalty"`
	MoraInterest   float64 `json:"mora_interest"`
	ProjectedTotal float64 `json:"projected_total"`
	WithinGrace    bool    `json:"within_grace"`
}

// OriginationTotal computes the committed payoff total agreed at origination.
// The interest type only matters here: post-origination accrual is always
// linear regardless of type.
func (s *ProjectionService) OriginationTotal(principal, ratePct float64, interestType string, installments int) float64 {
	if principal <= 0 {
		return 0
	}
	if installments < 1 {
		installments = 1
	}

	switch interestType {
	case models.InterestTypeCompound:
		return principal * math.Pow(1+ratePct/100, float64(installments))
	default:
		// simple, balance-based and daily all project linearly. For
		// balance-based the initial projection assumes no amortization; daily
		// shares the simple formula rather than a distinct schedule.
		return principal * (1 + (ratePct/100)*float64(installments))
	}
}

// SimulateLateFee projects penalty and mora interest for a hypothetical
// overdue period against a committed total. Identical math to the live
// accrual calculator, applied to preview inputs.
func (s *ProjectionService) SimulateLateFee(committedTotal float64, cfg models.PenaltyConfig, overdueDays int) LateFeeSimulation {
	if overdueDays <= cfg.GraceDays {
		return LateFeeSimulation{
			ProjectedTotal: committedTotal,
			WithinGrace:    true,
		}
	}

	fixed := cfg.FixedPenalty
	if cfg.FixedPenaltyKind == models.FixedPenaltyPerDay {
		fixed = cfg.FixedPenalty * float64(overdueDays)
	}

	dailyRate := (cfg.MoraRate / 100) / 30
	mora := committedTotal * dailyRate * float64(overdueDays)

	return LateFeeSimulation{
		FixedPenalty:   fixed,
		MoraInterest:   mora,
		ProjectedTotal: committedTotal + fixed + mora,
	}
}
