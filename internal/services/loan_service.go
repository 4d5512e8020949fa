package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/rmaciel/gestpay-api/pkg/logger"

	"gorm.io/gorm"
)

// NewLoanInput carries the contract terms for loan origination
type NewLoanInput struct {
	ClientID     uint                  `json:"client_id"`
	Amount       float64               `json:"amount"`
	InterestType string                `json:"interest_type"`
	Rate         float64               `json:"rate"`
	Frequency    string                `json:"frequency"`
	Installments int                   `json:"installments"`
	Notes        *string               `json:"notes"`
	Penalty      *models.PenaltyConfig `json:"penalty_config"`
}

// LoanDetail is a loan together with its accrued state as of the read
type LoanDetail struct {
	models.LoanResponse
	Accrued LoanState `json:"accrued"`
}

// DashboardStats summarizes a tenant's portfolio
type DashboardStats struct {
	ActiveLoans     int     `json:"active_loans"`
	OverdueLoans    int     `json:"overdue_loans"`
	TotalReceivable float64 `json:"total_receivable"`
	PaidThisMonth   float64 `json:"paid_this_month"`
}

// LoanService handles loan origination and reads. Status on reads is always
// re-derived against today; the stored column is only a cache for queries.
type LoanService struct {
	loanRepo   repository.LoanRepository
	clientRepo repository.ClientRepository
	projection *ProjectionService
	accrual    *AccrualService
}

// NewLoanService creates a new loan service
func NewLoanService(
	loanRepo repository.LoanRepository,
	clientRepo repository.ClientRepository,
	projection *ProjectionService,
	accrual *AccrualService,
) *LoanService {
	return &LoanService{
		loanRepo:   loanRepo,
		clientRepo: clientRepo,
		projection: projection,
		accrual:    accrual,
	}
}

// Create originates a loan. The committed total comes from the projection
// engine, the duration from the frequency day-count times the installment
// count, and the due date from the origination date plus that duration.
func (s *LoanService) Create(ctx context.Context, actor Actor, input NewLoanInput) (*models.Loan, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.Installments < 1 {
		input.Installments = 1
	}

	client, err := s.clientRepo.FindByID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if actor.Role != models.RoleMaster && client.TenantID != actor.TenantID {
		return nil, ErrNotFound
	}

	now := time.Now()
	loan := &models.Loan{
		TenantID:     actor.TenantID,
		ClientID:     client.ID,
		ClientName:   client.Name,
		Amount:       input.Amount,
		InterestType: input.InterestType,
		Rate:         input.Rate,
		Frequency:    input.Frequency,
		Installments: input.Installments,
		IssuedDate:   now,
		Status:       models.LoanStatusActive,
		Notes:        input.Notes,
		Penalty:      input.Penalty,
	}
	if client.Phone != "" {
		phone := client.Phone
		loan.ClientPhone = &phone
	}

	loan.DurationDays = loan.FrequencyDays() * input.Installments
	loan.DueDate = now.AddDate(0, 0, loan.DurationDays)
	loan.TotalAmount = s.projection.OriginationTotal(input.Amount, input.Rate, input.InterestType, input.Installments)

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}
	return loan, nil
}

// List returns a tenant's loans with their status re-derived against today
func (s *LoanService) List(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.LoanResponse, int64, error) {
	if !actor.Resolved() {
		return nil, 0, ErrUnauthenticated
	}

	loans, total, err := s.loanRepo.FindByTenant(ctx, actor.TenantID, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list loans: %w", err)
	}

	today := time.Now()
	responses := make([]models.LoanResponse, 0, len(loans))
	for i := range loans {
		responses = append(responses, loans[i].ToResponse(today))
	}
	return responses, total, nil
}

// Get returns one loan with its accrual breakdown as of now
func (s *LoanService) Get(ctx context.Context, actor Actor, id uint) (*LoanDetail, error) {
	loan, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	detail := &LoanDetail{
		LoanResponse: loan.ToResponse(now),
		Accrued:      s.accrual.ComputeLoanState(loan, now),
	}
	return detail, nil
}

// Delete removes a loan and its payment log
func (s *LoanService) Delete(ctx context.Context, actor Actor, id uint) error {
	loan, err := s.find(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.loanRepo.Delete(ctx, loan.ID); err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	return nil
}

// ByClient returns a client's loans, status re-derived
func (s *LoanService) ByClient(ctx context.Context, actor Actor, clientID uint) ([]models.LoanResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if actor.Role != models.RoleMaster && client.TenantID != actor.TenantID {
		return nil, ErrNotFound
	}

	loans, err := s.loanRepo.FindByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list client loans: %w", err)
	}

	today := time.Now()
	responses := make([]models.LoanResponse, 0, len(loans))
	for i := range loans {
		responses = append(responses, loans[i].ToResponse(today))
	}
	return responses, nil
}

// Stats aggregates the dashboard figures for a tenant
func (s *LoanService) Stats(ctx context.Context, actor Actor) (*DashboardStats, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}

	loans, err := s.loanRepo.FindAllByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats := &DashboardStats{}
	for i := range loans {
		loan := &loans[i]
		switch loan.EffectiveStatus(now) {
		case models.LoanStatusActive:
			stats.ActiveLoans++
		case models.LoanStatusOverdue:
			stats.OverdueLoans++
		}
		if loan.EffectiveStatus(now) != models.LoanStatusPaid {
			state := s.accrual.ComputeLoanState(loan, now)
			stats.TotalReceivable += state.CurrentDebt
		}
		for _, p := range loan.Payments {
			if !p.PaidAt.Before(monthStart) {
				stats.PaidThisMonth += p.Amount
			}
		}
	}
	return stats, nil
}

// RefreshOverdueStatuses persists the overdue flag for active loans whose due
// date has passed. Reads never trust this cache, the sweep only keeps list
// filters and reports aligned.
func (s *LoanService) RefreshOverdueStatuses(ctx context.Context) error {
	loans, err := s.loanRepo.FindDueBefore(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to find due loans: %w", err)
	}

	for i := range loans {
		if err := s.loanRepo.UpdateStatus(ctx, loans[i].ID, models.LoanStatusOverdue); err != nil {
			logger.Error("Failed to refresh loan status", "loan_id", loans[i].ID, "error", err)
		}
	}
	if len(loans) > 0 {
		logger.Info("Marked loans overdue", "count", len(loans))
	}
	return nil
}

// NotifyOverdueSummaries sends each tenant operator a daily summary of how
// many loans are past due
func (s *LoanService) NotifyOverdueSummaries(ctx context.Context, notifier *NotificationService) error {
	loans, err := s.loanRepo.FindOverdue(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to find overdue loans: %w", err)
	}

	counts := make(map[uint]int)
	for i := range loans {
		counts[loans[i].TenantID]++
	}

	for tenantID, count := range counts {
		msg := fmt.Sprintf("You have %d overdue loan(s) awaiting collection", count)
		if err := notifier.Notify(ctx, tenantID, models.NotificationTypeLoanOverdue, "Overdue loans", msg); err != nil {
			logger.Error("Failed to send overdue summary", "tenant_id", tenantID, "error", err)
		}
	}
	return nil
}

func (s *LoanService) find(ctx context.Context, actor Actor, id uint) (*models.Loan, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	if actor.Role != models.RoleMaster && loan.TenantID != actor.TenantID {
		return nil, ErrNotFound
	}
	return loan, nil
}
