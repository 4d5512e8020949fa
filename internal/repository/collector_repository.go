package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateUsername is returned when a collector username is already taken
var ErrDuplicateUsername = errors.New("a collector with this username already exists")

// CollectorRepository defines the interface for collector data access
type CollectorRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Collector, error)
	FindByUsername(ctx context.Context, username string) (*models.Collector, error)
	FindByTenant(ctx context.Context, tenantID uint) ([]models.Collector, error)
	Create(ctx context.Context, collector *models.Collector) error
	Update(ctx context.Context, collector *models.Collector) error
	Delete(ctx context.Context, id uint) error
}

type collectorRepository struct {
	db *gorm.DB
}

// NewCollectorRepository creates a new collector repository
func NewCollectorRepository(db *gorm.DB) CollectorRepository {
	return &collectorRepository{db: db}
}

func (r *collectorRepository) FindByID(ctx context.Context, id uint) (*models.Collector, error) {
	var collector models.Collector
	err := r.db.WithContext(ctx).First(&collector, id).Error
	if err != nil {
		return nil, err
	}
	return &collector, nil
}

func (r *collectorRepository) FindByUsername(ctx context.Context, username string) (*models.Collector, error) {
	var collector models.Collector
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&collector).Error
	if err != nil {
		return nil, err
	}
	return &collector, nil
}

func (r *collectorRepository) FindByTenant(ctx context.Context, tenantID uint) ([]models.Collector, error) {
	var collectors []models.Collector
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&collectors).Error
	return collectors, err
}

func (r *collectorRepository) Create(ctx context.Context, collector *models.Collector) error {
	if err := r.db.WithContext(ctx).Create(collector).Error; err != nil {
		if isDuplicateKeyError(err, "idx_collectors_username") {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (r *collectorRepository) Update(ctx context.Context, collector *models.Collector) error {
	return r.db.WithContext(ctx).Save(collector).Error
}

func (r *collectorRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Collector{}, id).Error
}

// TransactionRepository defines the interface for collector ledger movements
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.CollectorTransaction) error
	FindByCollector(ctx context.Context, collectorID uint) ([]models.CollectorTransaction, error)
	FindByCollectorSince(ctx context.Context, collectorID uint, since time.Time) ([]models.CollectorTransaction, error)
	FindByTenant(ctx context.Context, tenantID uint) ([]models.CollectorTransaction, error)
	Delete(ctx context.Context, id uint) error
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new collector transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.CollectorTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *transactionRepository) FindByCollector(ctx context.Context, collectorID uint) ([]models.CollectorTransaction, error) {
	var txs []models.CollectorTransaction
	err := r.db.WithContext(ctx).
		Where("collector_id = ?", collectorID).
		Order("entry_date ASC").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) FindByCollectorSince(ctx context.Context, collectorID uint, since time.Time) ([]models.CollectorTransaction, error) {
	var txs []models.CollectorTransaction
	err := r.db.WithContext(ctx).
		Where("collector_id = ? AND entry_date >= ?", collectorID, since).
		Order("entry_date ASC").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) FindByTenant(ctx context.Context, tenantID uint) ([]models.CollectorTransaction, error) {
	var txs []models.CollectorTransaction
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("entry_date ASC").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.CollectorTransaction{}, id).Error
}
