package services

import (
	"testing"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestOriginationTotal_Simple(t *testing.T) {
	service := NewProjectionService()

	// 1000 at 20% per installment over 3 installments -> 1000 * (1 + 0.2*3)
	total := service.OriginationTotal(1000, 20, models.InterestTypeSimple, 3)
	assert.InDelta(t, 1600.0, total, 0.001)
}

func TestOriginationTotal_Compound(t *testing.T) {
	service := NewProjectionService()

	// 1000 at 10% compounded over 2 installments -> 1000 * 1.1^2
	total := service.OriginationTotal(1000, 10, models.InterestTypeCompound, 2)
	assert.InDelta(t, 1210.0, total, 0.001)
}

func TestOriginationTotal_BalanceAndDailyProjectLinearly(t *testing.T) {
	service := NewProjectionService()

	simple := service.OriginationTotal(5000, 15, models.InterestTypeSimple, 4)
	balance := service.OriginationTotal(5000, 15, models.InterestTypeBalance, 4)
	daily := service.OriginationTotal(5000, 15, models.InterestTypeDaily, 4)

	assert.Equal(t, simple, balance)
	assert.Equal(t, simple, daily)
}

func TestOriginationTotal_EdgeValues(t *testing.T) {
	service := NewProjectionService()

	assert.Equal(t, 0.0, service.OriginationTotal(0, 20, models.InterestTypeSimple, 3))
	assert.Equal(t, 0.0, service.OriginationTotal(-100, 20, models.InterestTypeSimple, 3))

	// Installment counts below one clamp to a single installment
	total := service.OriginationTotal(1000, 20, models.InterestTypeSimple, 0)
	assert.InDelta(t, 1200.0, total, 0.001)
}

func TestSimulateLateFee_WithinGrace(t *testing.T) {
	service := NewProjectionService()

	cfg := models.PenaltyConfig{
		Active:           true,
		GraceDays:        5,
		MoraRate:         10,
		FixedPenalty:     50,
		FixedPenaltyKind: models.FixedPenaltyOneTime,
	}

	sim := service.SimulateLateFee(1200, cfg, 5)
	assert.True(t, sim.WithinGrace)
	assert.Equal(t, 0.0, sim.FixedPenalty)
	assert.Equal(t, 0.0, sim.MoraInterest)
	assert.Equal(t, 1200.0, sim.ProjectedTotal)
}

func TestSimulateLateFee_BeyondGrace(t *testing.T) {
	service := NewProjectionService()

	cfg := models.PenaltyConfig{
		Active:           true,
		GraceDays:        0,
		MoraRate:         10,
		FixedPenalty:     50,
		FixedPenaltyKind: models.FixedPenaltyOneTime,
	}

	// Mora: 1200 * (0.10 / 30) * 10 days = 40
	sim := service.SimulateLateFee(1200, cfg, 10)
	assert.False(t, sim.WithinGrace)
	assert.Equal(t, 50.0, sim.FixedPenalty)
	assert.InDelta(t, 40.0, sim.MoraInterest, 0.001)
	assert.InDelta(t, 1290.0, sim.ProjectedTotal, 0.001)
}

func TestSimulateLateFee_PerDayPenalty(t *testing.T) {
	service := NewProjectionService()

	cfg := models.PenaltyConfig{
		Active:           true,
		GraceDays:        0,
		MoraRate:         0,
		FixedPenalty:     5,
		FixedPenaltyKind: models.FixedPenaltyPerDay,
	}

	sim := service.SimulateLateFee(1000, cfg, 12)
	assert.Equal(t, 60.0, sim.FixedPenalty)
	assert.Equal(t, 0.0, sim.MoraInterest)
	assert.InDelta(t, 1060.0, sim.ProjectedTotal, 0.001)
}
