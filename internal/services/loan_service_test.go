package services

import (
	"context"
	"testing"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// Mock ClientRepository
type mockClientRepository struct {
	repository.ClientRepository
	mockFindByID func(ctx context.Context, id uint) (*models.Client, error)
}

func (m *mockClientRepository) FindByID(ctx context.Context, id uint) (*models.Client, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestLoanService(loanRepo repository.LoanRepository, clientRepo repository.ClientRepository) *LoanService {
	return NewLoanService(loanRepo, clientRepo, NewProjectionService(), NewAccrualService())
}

func TestCreateLoan(t *testing.T) {
	clientRepo := &mockClientRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Client, error) {
			return &models.Client{ID: 5, TenantID: 1, Name: "Juan Perez", Phone: "555-0101"}, nil
		},
	}

	var created *models.Loan
	loanRepo := &mockLoanRepository{
		mockCreate: func(ctx context.Context, loan *models.Loan) error {
			loan.ID = 10
			created = loan
			return nil
		},
	}

	service := newTestLoanService(loanRepo, clientRepo)

	before := time.Now()
	loan, err := service.Create(context.Background(), adminActor(), NewLoanInput{
		ClientID:     5,
		Amount:       1000,
		InterestType: models.InterestTypeSimple,
		Rate:         20,
		Frequency:    models.FrequencyWeekly,
		Installments: 4,
	})
	assert.NoError(t, err)
	assert.NotNil(t, created)

	assert.Equal(t, uint(1), loan.TenantID)
	assert.Equal(t, "Juan Perez", loan.ClientName)
	assert.Equal(t, "555-0101", *loan.ClientPhone)
	assert.Equal(t, models.LoanStatusActive, loan.Status)

	// Weekly over 4 installments: 28 days, total 1000 * (1 + 0.2*4)
	assert.Equal(t, 28, loan.DurationDays)
	assert.InDelta(t, 1800.0, loan.TotalAmount, 0.001)

	wantDue := before.AddDate(0, 0, 28)
	assert.WithinDuration(t, wantDue, loan.DueDate, time.Minute)
}

func TestCreateLoan_InstallmentsClampToOne(t *testing.T) {
	clientRepo := &mockClientRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Client, error) {
			return &models.Client{ID: 5, TenantID: 1, Name: "Juan Perez"}, nil
		},
	}

	service := newTestLoanService(&mockLoanRepository{}, clientRepo)

	loan, err := service.Create(context.Background(), adminActor(), NewLoanInput{
		ClientID:     5,
		Amount:       1000,
		InterestType: models.InterestTypeSimple,
		Rate:         20,
		Frequency:    models.FrequencySingle,
		Installments: 0,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, loan.Installments)
	assert.Equal(t, 30, loan.DurationDays)
	assert.InDelta(t, 1200.0, loan.TotalAmount, 0.001)
	assert.Nil(t, loan.ClientPhone)
}

func TestCreateLoan_Validation(t *testing.T) {
	clientRepo := &mockClientRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Client, error) {
			return &models.Client{ID: 5, TenantID: 9, Name: "Foreign"}, nil
		},
	}

	service := newTestLoanService(&mockLoanRepository{}, clientRepo)

	_, err := service.Create(context.Background(), adminActor(), NewLoanInput{ClientID: 5, Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// Client belongs to another tenant
	_, err = service.Create(context.Background(), adminActor(), NewLoanInput{ClientID: 5, Amount: 100})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	now := time.Now()
	loanRepo := &mockLoanRepository{
		mockFindAllByTenant: func(ctx context.Context, tenantID uint) ([]models.Loan, error) {
			return []models.Loan{
				// Active, 500 outstanding, one payment this month
				{
					ID: 1, TenantID: 1, Status: models.LoanStatusActive,
					DueDate: now.AddDate(0, 0, 10), TotalAmount: 1200, PaidAmount: 700,
					Payments: []models.Payment{{Amount: 700, PaidAt: now}},
				},
				// Stored active but past due: counts as overdue
				{
					ID: 2, TenantID: 1, Status: models.LoanStatusActive,
					DueDate: now.AddDate(0, 0, -5), TotalAmount: 1000, PaidAmount: 0,
				},
				// Paid: not receivable
				{
					ID: 3, TenantID: 1, Status: models.LoanStatusPaid,
					DueDate: now.AddDate(0, 0, -30), TotalAmount: 600, PaidAmount: 600,
					Payments: []models.Payment{{Amount: 600, PaidAt: now.AddDate(0, -2, 0)}},
				},
			}, nil
		},
	}

	service := newTestLoanService(loanRepo, &mockClientRepository{})

	stats, err := service.Stats(context.Background(), adminActor())
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveLoans)
	assert.Equal(t, 1, stats.OverdueLoans)
	assert.InDelta(t, 1500.0, stats.TotalReceivable, 0.001)
	assert.InDelta(t, 700.0, stats.PaidThisMonth, 0.001)
}

func TestRefreshOverdueStatuses(t *testing.T) {
	now := time.Now()
	loanRepo := &mockLoanRepository{
		mockFindDueBefore: func(ctx context.Context, asOf time.Time) ([]models.Loan, error) {
			return []models.Loan{
				{ID: 1, TenantID: 1, Status: models.LoanStatusActive, DueDate: now.AddDate(0, 0, -2)},
				{ID: 2, TenantID: 1, Status: models.LoanStatusActive, DueDate: now.AddDate(0, 0, -9)},
			}, nil
		},
	}

	flagged := map[uint]string{}
	loanRepo.mockUpdateStatus = func(ctx context.Context, id uint, status string) error {
		flagged[id] = status
		return nil
	}

	service := newTestLoanService(loanRepo, &mockClientRepository{})

	err := service.RefreshOverdueStatuses(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusOverdue, flagged[1])
	assert.Equal(t, models.LoanStatusOverdue, flagged[2])
}
