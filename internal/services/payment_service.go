package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/rmaciel/gestpay-api/internal/statemachine"

	"gorm.io/gorm"
)

// PaymentService applies payment intents to loans: amortizing payments,
// interest-only renewals, payoffs, and whole-record deletion or amendment of
// ledger entries. Every mutation recomputes the loan's derived totals and
// status before anything is written.
type PaymentService struct {
	loanRepo      repository.LoanRepository
	collectorRepo repository.CollectorRepository
	accrual       *AccrualService
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	loanRepo repository.LoanRepository,
	collectorRepo repository.CollectorRepository,
	accrual *AccrualService,
) *PaymentService {
	return &PaymentService{
		loanRepo:      loanRepo,
		collectorRepo: collectorRepo,
		accrual:       accrual,
	}
}

// RegisterPayment applies a regular payment to a loan. The payment counts as
// a payoff when the caller says so explicitly or when the amount lands within
// PayoffTolerance of the current accrued debt, which absorbs rounding in
// manually entered amounts.
func (s *PaymentService) RegisterPayment(ctx context.Context, actor Actor, loanID uint, amount float64, explicitPayoff bool, description string) (*models.Loan, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	loan, err := s.findLoan(ctx, actor, loanID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	state := s.accrual.ComputeLoanState(loan, now)
	isPayoff := explicitPayoff || math.Abs(amount-state.CurrentDebt) < models.PayoffTolerance

	return s.applyRegular(ctx, actor, loan, amount, isPayoff, description, now)
}

// RenewInterestOnly applies an interest-only renewal: the paid amount is
// capitalized into the committed total and the due date moves one frequency
// period forward. A renewal never reduces principal; it purchases time.
// An amount flagged as a payoff, or close enough to the accrued debt to
// qualify as one, is routed to the regular path instead.
func (s *PaymentService) RenewInterestOnly(ctx context.Context, actor Actor, loanID uint, amount float64, explicitPayoff bool, description string) (*models.Loan, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	loan, err := s.findLoan(ctx, actor, loanID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	state := s.accrual.ComputeLoanState(loan, now)
	if explicitPayoff || math.Abs(amount-state.CurrentDebt) < models.PayoffTolerance {
		return s.applyRegular(ctx, actor, loan, amount, true, description, now)
	}

	commission, err := s.commissionFor(ctx, actor, amount)
	if err != nil {
		return nil, err
	}

	loan.DueDate = loan.DueDate.AddDate(0, 0, loan.FrequencyDays())
	loan.TotalAmount += amount
	loan.PaidAmount += amount

	target := models.LoanStatusActive
	if models.DateBefore(loan.DueDate, now) {
		target = models.LoanStatusOverdue
	}
	if err := s.transition(ctx, loan, target, now); err != nil {
		return nil, err
	}

	payment := s.newPayment(loan.ID, actor, amount, commission, models.PaymentKindInterestOnly, description, now)
	if err := s.applyWrite(s.loanRepo.ApplyPayment(ctx, loan, payment), "record renewal payment"); err != nil {
		return nil, err
	}
	loan.Payments = append(loan.Payments, *payment)

	return loan, nil
}

// DeletePayment removes one ledger record as a whole and recomputes the
// loan's paid total and status. Renewal side effects of the deleted payment
// (due-date extension, committed-total increase) are not reversed.
func (s *PaymentService) DeletePayment(ctx context.Context, actor Actor, loanID, paymentID uint) (*models.Loan, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}

	loan, err := s.findLoan(ctx, actor, loanID)
	if err != nil {
		return nil, err
	}

	var remaining []models.Payment
	found := false
	for _, p := range loan.Payments {
		if p.ID == paymentID {
			found = true
			continue
		}
		remaining = append(remaining, p)
	}
	if !found {
		return nil, ErrNotFound
	}

	wasPaid := loan.Status == models.LoanStatusPaid
	loan.Payments = remaining
	loan.PaidAmount = loan.SumPayments()

	now := time.Now()
	if wasPaid && !loan.IsSettled() {
		f := statemachine.NewLoanFSM(loan)
		if err := f.Reopen(ctx, now); err != nil {
			return nil, err
		}
	}

	if err := s.applyWrite(s.loanRepo.RemovePayment(ctx, loan, paymentID), "delete payment"); err != nil {
		return nil, err
	}

	return loan, nil
}

// AmendPayment rewrites the mutable fields of one ledger record by id: the
// amount, the paid-at date and the description. The frozen fields survive the
// amendment unchanged: receipt number, commission, kind and the collector who
// took the money stay whatever was recorded at collection time. Totals and
// status are recomputed with the full rule, so an amendment can both settle
// and reopen a loan.
func (s *PaymentService) AmendPayment(ctx context.Context, actor Actor, loanID uint, updated models.Payment) (*models.Loan, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	if updated.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	loan, err := s.findLoan(ctx, actor, loanID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range loan.Payments {
		if loan.Payments[i].ID == updated.ID {
			existing := loan.Payments[i]
			updated.LoanID = loan.ID
			updated.ReceiptNumber = existing.ReceiptNumber
			updated.CommissionAmount = existing.CommissionAmount
			updated.Kind = existing.Kind
			updated.CollectedBy = existing.CollectedBy
			updated.CreatedAt = existing.CreatedAt
			if updated.PaidAt.IsZero() {
				updated.PaidAt = existing.PaidAt
			}
			if updated.Description == nil {
				updated.Description = existing.Description
			}
			loan.Payments[i] = updated
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNotFound
	}

	loan.PaidAmount = loan.SumPayments()

	now := time.Now()
	target := models.LoanStatusActive
	if loan.IsSettled() {
		target = models.LoanStatusPaid
	} else if models.DateBefore(loan.DueDate, now) {
		target = models.LoanStatusOverdue
	}
	if err := s.transition(ctx, loan, target, now); err != nil {
		return nil, err
	}

	if err := s.applyWrite(s.loanRepo.ReplacePayment(ctx, loan, &updated), "amend payment"); err != nil {
		return nil, err
	}

	return loan, nil
}

// applyRegular is the shared regular-payment path. The loan status is left
// untouched unless the payment settles it; overdue is recomputed lazily on
// the next read.
func (s *PaymentService) applyRegular(ctx context.Context, actor Actor, loan *models.Loan, amount float64, isPayoff bool, description string, now time.Time) (*models.Loan, error) {
	commission, err := s.commissionFor(ctx, actor, amount)
	if err != nil {
		return nil, err
	}

	loan.PaidAmount += amount
	if (isPayoff || loan.IsSettled()) && loan.Status != models.LoanStatusPaid {
		f := statemachine.NewLoanFSM(loan)
		if err := f.Settle(ctx); err != nil {
			return nil, err
		}
	}

	payment := s.newPayment(loan.ID, actor, amount, commission, models.PaymentKindRegular, description, now)
	if err := s.applyWrite(s.loanRepo.ApplyPayment(ctx, loan, payment), "record payment"); err != nil {
		return nil, err
	}
	loan.Payments = append(loan.Payments, *payment)

	return loan, nil
}

// commissionFor resolves the commission frozen onto a new payment. Only a
// collector with a positive rate earns one; later rate changes never
// recompute it.
func (s *PaymentService) commissionFor(ctx context.Context, actor Actor, amount float64) (float64, error) {
	if !actor.IsCollector() {
		return 0, nil
	}
	collector, err := s.collectorRepo.FindByID(ctx, actor.CollectorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to load collector: %w", err)
	}
	return collector.CommissionFor(amount), nil
}

func (s *PaymentService) newPayment(loanID uint, actor Actor, amount, commission float64, kind, description string, now time.Time) *models.Payment {
	payment := &models.Payment{
		LoanID:           loanID,
		ReceiptNumber:    uuid.NewString(),
		Amount:           amount,
		PaidAt:           now,
		CollectedBy:      actor.Name,
		CommissionAmount: commission,
		Kind:             kind,
	}
	if description != "" {
		payment.Description = &description
	}
	return payment
}

// transition drives the state machine from the loan's current status to the
// target, skipping when nothing changes.
func (s *PaymentService) transition(ctx context.Context, loan *models.Loan, target string, now time.Time) error {
	if loan.Status == target {
		return nil
	}

	f := statemachine.NewLoanFSM(loan)
	switch {
	case target == models.LoanStatusPaid:
		return f.Settle(ctx)
	case loan.Status == models.LoanStatusPaid:
		return f.Reopen(ctx, now)
	case target == models.LoanStatusOverdue:
		return f.FallDue(ctx)
	default:
		return f.Extend(ctx)
	}
}

func (s *PaymentService) findLoan(ctx context.Context, actor Actor, loanID uint) (*models.Loan, error) {
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
	return loan, nil
}

// applyWrite maps the outcome of an atomic loan-and-ledger write. A lost
// lock_version race surfaces as ErrStaleRecord so handlers can ask the caller
// to retry on fresh data.
func (s *PaymentService) applyWrite(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrStaleRecord) {
		return ErrStaleRecord
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
