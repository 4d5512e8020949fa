package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// Mock LoanRepository (using embedding to avoid implementing all methods)
type mockLoanRepository struct {
	repository.LoanRepository
	mockFindByID        func(ctx context.Context, id uint) (*models.Loan, error)
	mockCreate          func(ctx context.Context, loan *models.Loan) error
	mockFindAllByTenant func(ctx context.Context, tenantID uint) ([]models.Loan, error)
	mockFindDueBefore   func(ctx context.Context, asOf time.Time) ([]models.Loan, error)
	mockUpdateStatus    func(ctx context.Context, id uint, status string) error
	mockApplyPayment    func(ctx context.Context, loan *models.Loan, payment *models.Payment) error
	mockReplacePayment  func(ctx context.Context, loan *models.Loan, payment *models.Payment) error
	mockRemovePayment   func(ctx context.Context, loan *models.Loan, paymentID uint) error
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, nil
}

func (m *mockLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, loan)
	}
	return nil
}

func (m *mockLoanRepository) FindAllByTenant(ctx context.Context, tenantID uint) ([]models.Loan, error) {
	if m.mockFindAllByTenant != nil {
		return m.mockFindAllByTenant(ctx, tenantID)
	}
	return nil, nil
}

func (m *mockLoanRepository) FindDueBefore(ctx context.Context, asOf time.Time) ([]models.Loan, error) {
	if m.mockFindDueBefore != nil {
		return m.mockFindDueBefore(ctx, asOf)
	}
	return nil, nil
}

func (m *mockLoanRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	if m.mockUpdateStatus != nil {
		return m.mockUpdateStatus(ctx, id, status)
	}
	return nil
}

func (m *mockLoanRepository) ApplyPayment(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
	if m.mockApplyPayment != nil {
		return m.mockApplyPayment(ctx, loan, payment)
	}
	return nil
}

func (m *mockLoanRepository) ReplacePayment(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
	if m.mockReplacePayment != nil {
		return m.mockReplacePayment(ctx, loan, payment)
	}
	return nil
}

func (m *mockLoanRepository) RemovePayment(ctx context.Context, loan *models.Loan, paymentID uint) error {
	if m.mockRemovePayment != nil {
		return m.mockRemovePayment(ctx, loan, paymentID)
	}
	return nil
}

// Mock PaymentRepository
type mockPaymentRepository struct {
	repository.PaymentRepository
	mockFindByTenant func(ctx context.Context, tenantID uint) ([]models.Payment, error)
}

func (m *mockPaymentRepository) FindByTenant(ctx context.Context, tenantID uint) ([]models.Payment, error) {
	if m.mockFindByTenant != nil {
		return m.mockFindByTenant(ctx, tenantID)
	}
	return nil, nil
}

// Mock CollectorRepository
type mockCollectorRepository struct {
	repository.CollectorRepository
	mockFindByID       func(ctx context.Context, id uint) (*models.Collector, error)
	mockFindByUsername func(ctx context.Context, username string) (*models.Collector, error)
}

func (m *mockCollectorRepository) FindByID(ctx context.Context, id uint) (*models.Collector, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, nil
}

func (m *mockCollectorRepository) FindByUsername(ctx context.Context, username string) (*models.Collector, error) {
	if m.mockFindByUsername != nil {
		return m.mockFindByUsername(ctx, username)
	}
	return nil, gorm.ErrRecordNotFound
}

func adminActor() Actor {
	return Actor{UserID: 1, TenantID: 1, Role: models.RoleAdmin, Name: "Admin"}
}

func testLoan(now time.Time) *models.Loan {
	return &models.Loan{
		ID:           10,
		TenantID:     1,
		ClientID:     5,
		ClientName:   "Juan Perez",
		Amount:       1000,
		InterestType: models.InterestTypeSimple,
		Rate:         20,
		Frequency:    models.FrequencyMonthly,
		Installments: 1,
		IssuedDate:   now.AddDate(0, 0, -10),
		DueDate:      now.AddDate(0, 0, 20),
		TotalAmount:  1200,
		Status:       models.LoanStatusActive,
	}
}

func newTestPaymentService(loanRepo repository.LoanRepository, collectorRepo repository.CollectorRepository) *PaymentService {
	return NewPaymentService(loanRepo, collectorRepo, NewAccrualService())
}

func TestRegisterPayment_PartialPayment(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)

	var created *models.Payment
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
		mockApplyPayment: func(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
			created = payment
			return nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	result, err := service.RegisterPayment(context.Background(), adminActor(), 10, 200, false, "week 1")
	assert.NoError(t, err)
	assert.InDelta(t, 200.0, result.PaidAmount, 0.001)
	assert.Equal(t, models.LoanStatusActive, result.Status)

	assert.NotNil(t, created)
	assert.Equal(t, models.PaymentKindRegular, created.Kind)
	assert.Equal(t, "Admin", created.CollectedBy)
	assert.Equal(t, 0.0, created.CommissionAmount)
	assert.NotEmpty(t, created.ReceiptNumber)
	assert.Equal(t, "week 1", *created.Description)
}

func TestRegisterPayment_PayoffWithinTolerance(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)
	loan.PaidAmount = 1000 // 200 outstanding

	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	// 199.50 is within PayoffTolerance of the 200 owed, so it settles
	result, err := service.RegisterPayment(context.Background(), adminActor(), 10, 199.50, false, "")
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusPaid, result.Status)
}

func TestRegisterPayment_ExplicitPayoffBelowTolerance(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)

	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	// An operator may accept a short payoff explicitly
	result, err := service.RegisterPayment(context.Background(), adminActor(), 10, 900, true, "negotiated settlement")
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusPaid, result.Status)
	assert.InDelta(t, 900.0, result.PaidAmount, 0.001)
}

func TestRegisterPayment_CollectorCommissionFrozen(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)

	var created *models.Payment
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
		mockApplyPayment: func(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
			created = payment
			return nil
		},
	}
	collectorRepo := &mockCollectorRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collector, error) {
			return &models.Collector{ID: 7, TenantID: 1, Name: "Maria", CommissionRate: 10, IsActive: true}, nil
		},
	}

	service := newTestPaymentService(loanRepo, collectorRepo)
	actor := Actor{UserID: 1, CollectorID: 7, TenantID: 1, Role: models.RoleCollector, Name: "Maria"}

	_, err := service.RegisterPayment(context.Background(), actor, 10, 300, false, "")
	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.InDelta(t, 30.0, created.CommissionAmount, 0.001)
	assert.Equal(t, "Maria", created.CollectedBy)
}

func TestRegisterPayment_InvalidInput(t *testing.T) {
	service := newTestPaymentService(&mockLoanRepository{}, &mockCollectorRepository{})

	_, err := service.RegisterPayment(context.Background(), adminActor(), 10, 0, false, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = service.RegisterPayment(context.Background(), Actor{}, 10, 100, false, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegisterPayment_TenantMismatch(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)
	loan.TenantID = 99

	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	_, err := service.RegisterPayment(context.Background(), adminActor(), 10, 100, false, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterPayment_StaleRecord(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)

	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
		mockApplyPayment: func(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
			return repository.ErrStaleRecord
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	_, err := service.RegisterPayment(context.Background(), adminActor(), 10, 100, false, "")
	assert.ErrorIs(t, err, ErrStaleRecord)
}

func TestRegisterPayment_FailedWriteRecordsNothing(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)

	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
		mockApplyPayment: func(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
			return errors.New("connection reset")
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	// Loan totals and the ledger record travel in one write; when it fails
	// no payment may surface on the loan
	result, err := service.RegisterPayment(context.Background(), adminActor(), 10, 200, false, "")
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, loan.Payments)
}

func TestRenewInterestOnly_CapitalizesAndExtends(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)
	loan.DueDate = now.AddDate(0, 0, -5) // overdue at renewal time
	loan.Status = models.LoanStatusOverdue
	originalDue := loan.DueDate

	var created *models.Payment
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
		mockApplyPayment: func(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
			created = payment
			return nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	result, err := service.RenewInterestOnly(context.Background(), adminActor(), 10, 200, false, "")
	assert.NoError(t, err)

	// Monthly frequency extends the due date 30 days and capitalizes the amount
	assert.Equal(t, originalDue.AddDate(0, 0, 30), result.DueDate)
	assert.InDelta(t, 1400.0, result.TotalAmount, 0.001)
	assert.InDelta(t, 200.0, result.PaidAmount, 0.001)
	assert.Equal(t, models.LoanStatusActive, result.Status)

	assert.NotNil(t, created)
	assert.Equal(t, models.PaymentKindInterestOnly, created.Kind)
}

func TestRenewInterestOnly_PayoffAmountRoutesToRegular(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)
	loan.PaidAmount = 1000 // 200 outstanding
	originalDue := loan.DueDate
	originalTotal := loan.TotalAmount

	var created *models.Payment
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
		mockApplyPayment: func(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
			created = payment
			return nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	result, err := service.RenewInterestOnly(context.Background(), adminActor(), 10, 200, false, "")
	assert.NoError(t, err)

	// The committed total and due date must not move when the renewal amount
	// actually pays the loan off
	assert.Equal(t, originalDue, result.DueDate)
	assert.InDelta(t, originalTotal, result.TotalAmount, 0.001)
	assert.Equal(t, models.LoanStatusPaid, result.Status)
	assert.Equal(t, models.PaymentKindRegular, created.Kind)
}

func TestRenewInterestOnly_ExplicitPayoffRoutesToRegular(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)
	originalDue := loan.DueDate
	originalTotal := loan.TotalAmount

	var created *models.Payment
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
		mockApplyPayment: func(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
			created = payment
			return nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	// 900 is far from the 1200 owed, but the operator marked it a payoff:
	// the renewal form must honor the flag and settle instead of capitalizing
	result, err := service.RenewInterestOnly(context.Background(), adminActor(), 10, 900, true, "negotiated settlement")
	assert.NoError(t, err)

	assert.Equal(t, originalDue, result.DueDate)
	assert.InDelta(t, originalTotal, result.TotalAmount, 0.001)
	assert.Equal(t, models.LoanStatusPaid, result.Status)
	assert.Equal(t, models.PaymentKindRegular, created.Kind)
}

func TestDeletePayment_ReopensSettledLoan(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)
	loan.Status = models.LoanStatusPaid
	loan.PaidAmount = 1200
	loan.Payments = []models.Payment{
		{ID: 1, LoanID: 10, Amount: 700, PaidAt: now.AddDate(0, 0, -6)},
		{ID: 2, LoanID: 10, Amount: 500, PaidAt: now.AddDate(0, 0, -1)},
	}

	deletedID := uint(0)
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
		mockRemovePayment: func(ctx context.Context, loan *models.Loan, paymentID uint) error {
			deletedID = paymentID
			return nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	result, err := service.DeletePayment(context.Background(), adminActor(), 10, 2)
	assert.NoError(t, err)
	assert.Equal(t, uint(2), deletedID)

	// Paid total is recomputed from the surviving records
	assert.InDelta(t, 700.0, result.PaidAmount, 0.001)
	assert.Len(t, result.Payments, 1)
	assert.Equal(t, models.LoanStatusActive, result.Status)
}

func TestDeletePayment_ReopensToOverdueWhenPastDue(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)
	loan.Status = models.LoanStatusPaid
	loan.DueDate = now.AddDate(0, 0, -3)
	loan.PaidAmount = 1200
	loan.Payments = []models.Payment{
		{ID: 1, LoanID: 10, Amount: 700, PaidAt: now.AddDate(0, 0, -10)},
		{ID: 2, LoanID: 10, Amount: 500, PaidAt: now.AddDate(0, 0, -2)},
	}

	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	// The due date already passed, so losing the settling payment demotes the
	// loan straight to overdue rather than active
	result, err := service.DeletePayment(context.Background(), adminActor(), 10, 2)
	assert.NoError(t, err)
	assert.InDelta(t, 700.0, result.PaidAmount, 0.001)
	assert.Equal(t, models.LoanStatusOverdue, result.Status)
}

func TestDeletePayment_UnknownPayment(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)
	loan.Payments = []models.Payment{{ID: 1, LoanID: 10, Amount: 100}}

	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	_, err := service.DeletePayment(context.Background(), adminActor(), 10, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAmendPayment_SettlesLoan(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)
	loan.PaidAmount = 1100
	loan.Payments = []models.Payment{
		{ID: 1, LoanID: 10, Amount: 600, PaidAt: now.AddDate(0, 0, -6)},
		{ID: 2, LoanID: 10, Amount: 500, PaidAt: now.AddDate(0, 0, -1)},
	}

	var replaced *models.Payment
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
		mockReplacePayment: func(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
			replaced = payment
			return nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	// Raising the second payment to 600 covers the committed 1200
	result, err := service.AmendPayment(context.Background(), adminActor(), 10, models.Payment{
		ID:     2,
		Amount: 600,
		PaidAt: now,
	})
	assert.NoError(t, err)
	assert.InDelta(t, 1200.0, result.PaidAmount, 0.001)
	assert.Equal(t, models.LoanStatusPaid, result.Status)
	assert.NotNil(t, replaced)
	assert.Equal(t, uint(10), replaced.LoanID)
}

func TestAmendPayment_KeepsCollectionRecordIntact(t *testing.T) {
	now := time.Now()
	loan := testLoan(now)
	note := "week 2 route"
	paidAt := now.AddDate(0, 0, -4)
	loan.PaidAmount = 500
	loan.Payments = []models.Payment{
		{
			ID:               2,
			LoanID:           10,
			ReceiptNumber:    "af1c9b2e",
			Amount:           500,
			PaidAt:           paidAt,
			CollectedBy:      "Maria",
			CommissionAmount: 50,
			Kind:             models.PaymentKindInterestOnly,
			Description:      &note,
		},
	}

	var replaced *models.Payment
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			return loan, nil
		},
		mockReplacePayment: func(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
			replaced = payment
			return nil
		},
	}

	service := newTestPaymentService(loanRepo, &mockCollectorRepository{})

	// An amount-only correction must never touch what was recorded at
	// collection time: receipt, commission, kind, collector, date, note
	result, err := service.AmendPayment(context.Background(), adminActor(), 10, models.Payment{
		ID:     2,
		Amount: 450,
	})
	assert.NoError(t, err)
	assert.InDelta(t, 450.0, result.PaidAmount, 0.001)

	assert.NotNil(t, replaced)
	assert.Equal(t, "af1c9b2e", replaced.ReceiptNumber)
	assert.InDelta(t, 50.0, replaced.CommissionAmount, 0.001)
	assert.Equal(t, models.PaymentKindInterestOnly, replaced.Kind)
	assert.Equal(t, "Maria", replaced.CollectedBy)
	assert.Equal(t, paidAt, replaced.PaidAt)
	assert.Equal(t, "week 2 route", *replaced.Description)

	kept := result.Payments[0]
	assert.Equal(t, "af1c9b2e", kept.ReceiptNumber)
	assert.InDelta(t, 50.0, kept.CommissionAmount, 0.001)
	assert.Equal(t, models.PaymentKindInterestOnly, kept.Kind)
	assert.Equal(t, "Maria", kept.CollectedBy)
}
