package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"

	"gorm.io/gorm"
)

// Statement date-range presets
const (
	RangeLast7Days  = "7days"
	RangeLast30Days = "30days"
	RangeMonth      = "month" // Calendar month to date
	RangeAll        = "all"
)

// Statement item kinds
const (
	StatementKindCommission = "commission"
	StatementKindPayout     = "payout"
	StatementKindBonus      = "bonus"
)

// StatementItem is one line of a collector's statement
type StatementItem struct {
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
}

// CollectorStatement is the time-windowed view of a collector's earnings and
// manual ledger movements. The date filter selects which items are listed;
// the totals and balance always cover the full history.
type CollectorStatement struct {
	CollectorID     uint            `json:"collector_id"`
	CollectorName   string          `json:"collector_name"`
	Range           string          `json:"range"`
	Items           []StatementItem `json:"items"`
	TotalCommission float64         `json:"total_commission"`
	TotalPayout     float64         `json:"total_payout"`
	TotalBonus      float64         `json:"total_bonus"`
	Balance         float64         `json:"balance"`
}

// CommissionService derives collector earnings and payable balances from the
// payment history and the manual transaction log. It holds no state of its
// own; the balance is recomputed from scratch on every call.
type CommissionService struct {
	collectorRepo repository.CollectorRepository
	paymentRepo   repository.PaymentRepository
	txRepo        repository.TransactionRepository
}

// NewCommissionService creates a new commission service
func NewCommissionService(
	collectorRepo repository.CollectorRepository,
	paymentRepo repository.PaymentRepository,
	txRepo repository.TransactionRepository,
) *CommissionService {
	return &CommissionService{
		collectorRepo: collectorRepo,
		paymentRepo:   paymentRepo,
		txRepo:        txRepo,
	}
}

// RangeLowerBound maps a range preset to its concrete lower-bound instant,
// computed against now at call time. Unknown keys fall back to all-time.
func RangeLowerBound(rangeKey string, now time.Time) time.Time {
	switch rangeKey {
	case RangeLast7Days:
		return now.AddDate(0, 0, -7)
	case RangeLast30Days:
		return now.AddDate(0, 0, -30)
	case RangeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}

// Statement builds the filtered statement plus all-time totals for one
// collector.
//
// Commission lines are matched by the collector's display name on the
// payment record, so a rename orphans lines collected under the old name.
func (s *CommissionService) Statement(ctx context.Context, actor Actor, collectorID uint, rangeKey string) (*CollectorStatement, error) {
	collector, err := s.findCollector(ctx, actor, collectorID)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.FindByTenant(ctx, collector.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	transactions, err := s.txRepo.FindByCollector(ctx, collector.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	now := time.Now()
	lower := RangeLowerBound(rangeKey, now)

	stmt := &CollectorStatement{
		CollectorID:   collector.ID,
		CollectorName: collector.Name,
		Range:         rangeKey,
	}

	for _, p := range payments {
		if p.CollectedBy != collector.Name || p.CommissionAmount <= 0 {
			continue
		}
		stmt.TotalCommission += p.CommissionAmount
		if p.PaidAt.Before(lower) {
			continue
		}
		desc := "Collection commission"
		if p.Description != nil && *p.Description != "" {
			desc = *p.Description
		}
		stmt.Items = append(stmt.Items, StatementItem{
			Kind:        StatementKindCommission,
			Description: desc,
			Amount:      p.CommissionAmount,
			Date:        p.PaidAt,
		})
	}

	for _, tx := range transactions {
		switch tx.Kind {
		case models.TransactionKindPayout:
			stmt.TotalPayout += tx.Amount
		case models.TransactionKindBonus:
			stmt.TotalBonus += tx.Amount
		default:
			continue
		}
		if tx.EntryDate.Before(lower) {
			continue
		}
		kind := StatementKindPayout
		if tx.Kind == models.TransactionKindBonus {
			kind = StatementKindBonus
		}
		stmt.Items = append(stmt.Items, StatementItem{
			Kind:        kind,
			Description: tx.Description,
			Amount:      tx.Amount,
			Date:        tx.EntryDate,
		})
	}

	// Most recent first; stable so same-instant items keep their order
	sort.SliceStable(stmt.Items, func(i, j int) bool {
		return stmt.Items[i].Date.After(stmt.Items[j].Date)
	})

	stmt.Balance = (stmt.TotalCommission + stmt.TotalBonus) - stmt.TotalPayout
	return stmt, nil
}

// Balance returns a collector's current payable balance over the full history
func (s *CommissionService) Balance(ctx context.Context, actor Actor, collectorID uint) (float64, error) {
	stmt, err := s.Statement(ctx, actor, collectorID, RangeAll)
	if err != nil {
		return 0, err
	}
	return stmt.Balance, nil
}

// RecordTransaction appends a manual payout or bonus against a collector's
// balance. Blank descriptions get a kind-specific default.
func (s *CommissionService) RecordTransaction(ctx context.Context, actor Actor, collectorID uint, kind string, amount float64, description string) (*models.CollectorTransaction, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if kind != models.TransactionKindPayout && kind != models.TransactionKindBonus {
		return nil, fmt.Errorf("unknown transaction kind: %s", kind)
	}

	collector, err := s.findCollector(ctx, actor, collectorID)
	if err != nil {
		return nil, err
	}

	if description == "" {
		if kind == models.TransactionKindPayout {
			description = "Commission payout"
		} else {
			description = "Balance adjustment"
		}
	}

	tx := &models.CollectorTransaction{
		CollectorID: collector.ID,
		TenantID:    collector.TenantID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		EntryDate:   time.Now(),
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	return tx, nil
}

func (s *CommissionService) findCollector(ctx context.Context, actor Actor, collectorID uint) (*models.Collector, error) {
	collector, err := s.collectorRepo.FindByID(ctx, collectorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load collector: %w", err)
	}
	if actor.Role != models.RoleMaster && collector.TenantID != actor.TenantID {
		return nil, ErrNotFound
	}
	return collector, nil
}
