package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"

	"gorm.io/gorm"
)

// Message template kinds
const (
	MessageKindBilling = "billing"
	MessageKindLate    = "late"
	MessageKindReceipt = "receipt"
)

// RenderedMessage is a client-ready text message with the destination phone
type RenderedMessage struct {
	Kind  string `json:"kind"`
	Phone string `json:"phone,omitempty"`
	Text  string `json:"text"`
}

// MessageService renders outbound client messages from per-tenant templates.
// Blank template fields fall back to the built-in defaults.
type MessageService struct {
	settingsRepo repository.SettingsRepository
	loanRepo     repository.LoanRepository
	accrual      *AccrualService
}

// NewMessageService creates a new message service
func NewMessageService(settingsRepo repository.SettingsRepository, loanRepo repository.LoanRepository, accrual *AccrualService) *MessageService {
	return &MessageService{
		settingsRepo: settingsRepo,
		loanRepo:     loanRepo,
		accrual:      accrual,
	}
}

// Render builds a message of the given kind for a loan. Billing uses the
// committed total and due date; late uses the accrued debt as of now; receipt
// uses the last registered payment.
func (s *MessageService) Render(ctx context.Context, actor Actor, loanID uint, kind string) (*RenderedMessage, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}

	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	if actor.Role != models.RoleMaster && loan.TenantID != actor.TenantID {
		return nil, ErrNotFound
	}

	template, err := s.template(ctx, loan.TenantID, kind)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	amount := loan.TotalAmount - loan.PaidAmount
	date := loan.DueDate

	switch kind {
	case MessageKindLate:
		state := s.accrual.ComputeLoanState(loan, now)
		amount = state.CurrentDebt
	case MessageKindReceipt:
		if len(loan.Payments) > 0 {
			last := loan.Payments[len(loan.Payments)-1]
			amount = last.Amount
			date = last.PaidAt
		}
	}

	msg := &RenderedMessage{
		Kind: kind,
		Text: renderTemplate(template, loan.ClientName, amount, date),
	}
	if loan.ClientPhone != nil {
		msg.Phone = *loan.ClientPhone
	}
	return msg, nil
}

// template resolves the tenant's template for a kind, falling back to the
// built-in default when the tenant never customized it
func (s *MessageService) template(ctx context.Context, tenantID uint, kind string) (string, error) {
	settings, err := s.settingsRepo.FindByTenant(ctx, tenantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}

	var custom string
	if settings != nil {
		switch kind {
		case MessageKindBilling:
			custom = settings.TemplateBilling
		case MessageKindLate:
			custom = settings.TemplateLate
		case MessageKindReceipt:
			custom = settings.TemplateReceipt
		}
	}
	if strings.TrimSpace(custom) != "" {
		return custom, nil
	}

	switch kind {
	case MessageKindBilling:
		return models.DefaultTemplateBilling, nil
	case MessageKindLate:
		return models.DefaultTemplateLate, nil
	case MessageKindReceipt:
		return models.DefaultTemplateReceipt, nil
	default:
		return "", fmt.Errorf("unknown message kind: %s", kind)
	}
}

// renderTemplate substitutes the {CLIENT}, {AMOUNT} and {DATE} placeholders
func renderTemplate(template, clientName string, amount float64, date time.Time) string {
	replacer := strings.NewReplacer(
		"{CLIENT}", clientName,
		"{AMOUNT}", fmt.Sprintf("$%.2f", amount),
		"{DATE}", date.Format("02/01/2006"),
	)
	return replacer.Replace(template)
}

// SettingsService manages per-tenant company info and message templates
type SettingsService struct {
	settingsRepo repository.SettingsRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingsRepo repository.SettingsRepository) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo}
}

// Get returns the tenant's settings, materializing defaults on first read
func (s *SettingsService) Get(ctx context.Context, actor Actor) (*models.Settings, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	settings, err := s.settingsRepo.FindByTenant(ctx, actor.TenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Settings{TenantID: actor.TenantID}, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// Update replaces the tenant's settings
func (s *SettingsService) Update(ctx context.Context, actor Actor, input models.Settings) (*models.Settings, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	input.TenantID = actor.TenantID
	if err := s.settingsRepo.Upsert(ctx, &input); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return &input, nil
}
