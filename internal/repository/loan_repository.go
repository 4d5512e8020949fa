package repository

import (
	"context"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"

	"gorm.io/gorm"
)

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Loan, error)
	FindByTenant(ctx context.Context, tenantID uint, query *ListQuery) ([]models.Loan, int64, error)
	FindByClient(ctx context.Context, clientID uint) ([]models.Loan, error)
	FindAllByTenant(ctx context.Context, tenantID uint) ([]models.Loan, error)
	FindDueBefore(ctx context.Context, asOf time.Time) ([]models.Loan, error)
	FindOverdue(ctx context.Context, asOf time.Time) ([]models.Loan, error)
	Create(ctx context.Context, loan *models.Loan) error
	ApplyPayment(ctx context.Context, loan *models.Loan, payment *models.Payment) error
	ReplacePayment(ctx context.Context, loan *models.Loan, payment *models.Payment) error
	RemovePayment(ctx context.Context, loan *models.Loan, paymentID uint) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	UpdateClientName(ctx context.Context, clientID uint, name string) error
	Delete(ctx context.Context, id uint) error
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// FindByID loads a loan with its full payment log in insertion order
func (r *loanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payments.id ASC")
		}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByTenant(ctx context.Context, tenantID uint, query *ListQuery) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Loan{}).Where("tenant_id = ?", tenantID)

	if status := query.Filters["status"]; status != "" {
		db = db.Where("status = ?", status)
	}
	if query.Search != "" {
		db = db.Where("client_name ILIKE ?", "%"+query.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "created_at"
	if query.SortBy != "" {
		sortBy = query.SortBy
	}
	sortDir := "DESC"
	if query.SortDir == "asc" {
		sortDir = "ASC"
	}

	err := db.
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payments.id ASC")
		}).
		Order(sortBy + " " + sortDir).
		Offset(query.offset()).
		Limit(query.PerPage).
		Find(&loans).Error

	return loans, total, err
}

func (r *loanRepository) FindByClient(ctx context.Context, clientID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payments.id ASC")
		}).
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) FindAllByTenant(ctx context.Context, tenantID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payments.id ASC")
		}).
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

// FindDueBefore returns non-paid loans whose due date passed before asOf.
// Used by the overdue status refresh job.
func (r *loanRepository) FindDueBefore(ctx context.Context, asOf time.Time) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", models.LoanStatusActive, asOf).
		Find(&loans).Error
	return loans, err
}

// FindOverdue returns every unsettled loan past its due date, regardless of
// what the cached status column says
func (r *loanRepository) FindOverdue(ctx context.Context, asOf time.Time) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("status <> ? AND due_date < ?", models.LoanStatusPaid, asOf).
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// updateLocked performs the optimistic-concurrency loan write inside tx: the
// row is only updated when its lock_version still matches the one the loan
// was read with. A concurrent writer bumps the version first and this write
// returns ErrStaleRecord instead of silently losing the other update. The
// in-memory version is bumped by the caller, after the transaction commits.
func updateLocked(tx *gorm.DB, loan *models.Loan) error {
	res := tx.Model(&models.Loan{}).
		Where("id = ? AND lock_version = ?", loan.ID, loan.LockVersion).
		Updates(map[string]interface{}{
			"total_amount": loan.TotalAmount,
			"paid_amount":  loan.PaidAmount,
			"due_date":     loan.DueDate,
			"status":       loan.Status,
			"notes":        loan.Notes,
			"lock_version": loan.LockVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleRecord
	}
	return nil
}

// ApplyPayment writes the loan's recomputed totals and appends the payment
// record in one transaction, so a failed insert rolls the loan write back and
// paid_amount never drifts from the ledger sum.
func (r *loanRepository) ApplyPayment(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateLocked(tx, loan); err != nil {
			return err
		}
		return tx.Create(payment).Error
	})
	if err != nil {
		return err
	}
	loan.LockVersion++
	return nil
}

// ReplacePayment writes the loan's recomputed totals and saves the amended
// payment record in one transaction.
func (r *loanRepository) ReplacePayment(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateLocked(tx, loan); err != nil {
			return err
		}
		return tx.Save(payment).Error
	})
	if err != nil {
		return err
	}
	loan.LockVersion++
	return nil
}

// RemovePayment writes the loan's recomputed totals and deletes the payment
// record in one transaction.
func (r *loanRepository) RemovePayment(ctx context.Context, loan *models.Loan, paymentID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateLocked(tx, loan); err != nil {
			return err
		}
		return tx.Delete(&models.Payment{}, paymentID).Error
	})
	if err != nil {
		return err
	}
	loan.LockVersion++
	return nil
}

// UpdateStatus refreshes only the cached status column, without touching the
// version token. Safe because status is derived state.
func (r *loanRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// UpdateClientName resyncs the denormalized client name across the client's
// loans after a rename
func (r *loanRepository) UpdateClientName(ctx context.Context, clientID uint, name string) error {
	return r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("client_id = ?", clientID).
		Update("client_name", name).Error
}

func (r *loanRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).
		Where("loan_id = ?", id).
		Delete(&models.Payment{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Loan{}, id).Error
}

// PaymentRepository defines the interface for payment ledger reads. All
// ledger writes go through the LoanRepository payment methods so the loan
// totals and the records they summarize move in one transaction.
type PaymentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	FindByLoan(ctx context.Context, loanID uint) ([]models.Payment, error)
	FindByTenant(ctx context.Context, tenantID uint) ([]models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&payments).Error
	return payments, err
}

// FindByTenant returns all payments across a tenant's loans, used by the
// commission accountant to scan the full history.
func (r *paymentRepository) FindByTenant(ctx context.Context, tenantID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Joins("JOIN loans ON loans.id = payments.loan_id").
		Where("loans.tenant_id = ?", tenantID).
		Order("payments.id ASC").
		Find(&payments).Error
	return payments, err
}
