package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// Mock SettingsRepository
type mockSettingsRepository struct {
	repository.SettingsRepository
	mockFindByTenant func(ctx context.Context, tenantID uint) (*models.Settings, error)
}

func (m *mockSettingsRepository) FindByTenant(ctx context.Context, tenantID uint) (*models.Settings, error) {
	if m.mockFindByTenant != nil {
		return m.mockFindByTenant(ctx, tenantID)
	}
	return nil, gorm.ErrRecordNotFound
}

func messageLoan(now time.Time) *models.Loan {
	phone := "555-0101"
	return &models.Loan{
		ID:          10,
		TenantID:    1,
		ClientName:  "Juan Perez",
		ClientPhone: &phone,
		Amount:      1000,
		Rate:        20,
		Frequency:   models.FrequencyMonthly,
		DueDate:     time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount: 1200,
		PaidAmount:  400,
		Status:      models.LoanStatusActive,
	}
}

func newMessageService(loan *models.Loan, settings *models.Settings) *MessageService {
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
	}
	settingsRepo := &mockSettingsRepository{
		mockFindByTenant: func(ctx context.Context, tenantID uint) (*models.Settings, error) {
			if settings == nil {
				return nil, gorm.ErrRecordNotFound
			}
			return settings, nil
		},
	}
	return NewMessageService(settingsRepo, loanRepo, NewAccrualService())
}

func TestRenderMessage_BillingDefaults(t *testing.T) {
	now := time.Now()
	loan := messageLoan(now)
	service := newMessageService(loan, nil)

	msg, err := service.Render(context.Background(), adminActor(), 10, MessageKindBilling)
	assert.NoError(t, err)
	assert.Equal(t, MessageKindBilling, msg.Kind)
	assert.Equal(t, "555-0101", msg.Phone)

	// Outstanding balance and due date substituted into the default template
	assert.Contains(t, msg.Text, "Juan Perez")
	assert.Contains(t, msg.Text, "$800.00")
	assert.Contains(t, msg.Text, "15/07/2025")
	assert.False(t, strings.Contains(msg.Text, "{"))
}

func TestRenderMessage_CustomTemplate(t *testing.T) {
	now := time.Now()
	loan := messageLoan(now)
	settings := &models.Settings{
		TenantID:        1,
		TemplateBilling: "Dear {CLIENT}, pay {AMOUNT} by {DATE}.",
	}
	service := newMessageService(loan, settings)

	msg, err := service.Render(context.Background(), adminActor(), 10, MessageKindBilling)
	assert.NoError(t, err)
	assert.Equal(t, "Dear Juan Perez, pay $800.00 by 15/07/2025.", msg.Text)
}

func TestRenderMessage_BlankTemplateFallsBack(t *testing.T) {
	now := time.Now()
	loan := messageLoan(now)
	settings := &models.Settings{TenantID: 1, TemplateReceipt: "   "}
	loan.Payments = []models.Payment{
		{ID: 1, LoanID: 10, Amount: 400, PaidAt: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)},
	}
	service := newMessageService(loan, settings)

	msg, err := service.Render(context.Background(), adminActor(), 10, MessageKindReceipt)
	assert.NoError(t, err)
	assert.Contains(t, msg.Text, "$400.00")
	assert.Contains(t, msg.Text, "confirmed")
}

func TestRenderMessage_LateUsesAccruedDebt(t *testing.T) {
	loan := messageLoan(time.Now())
	loan.DueDate = time.Now().AddDate(0, 0, -10)
	loan.Penalty = &models.PenaltyConfig{
		Active:           true,
		MoraRate:         10,
		FixedPenalty:     50,
		FixedPenaltyKind: models.FixedPenaltyOneTime,
	}
	service := newMessageService(loan, nil)

	msg, err := service.Render(context.Background(), adminActor(), 10, MessageKindLate)
	assert.NoError(t, err)

	// Debt 800 plus fixed 50 plus mora 1200*(0.10/30)*10 = 40
	expected := fmt.Sprintf("$%.2f", 890.0)
	assert.Contains(t, msg.Text, expected)
}

func TestRenderMessage_UnknownKind(t *testing.T) {
	loan := messageLoan(time.Now())
	service := newMessageService(loan, nil)

	_, err := service.Render(context.Background(), adminActor(), 10, "greeting")
	assert.Error(t, err)
}
