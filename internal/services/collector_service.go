package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewCollectorInput carries the fields for collector registration
type NewCollectorInput struct {
	Name           string  `json:"name"`
	Username       string  `json:"username"`
	Password       string  `json:"password"`
	CommissionRate float64 `json:"commission_rate"`
}

// UpdateCollectorInput carries the mutable collector fields. Nil pointers
// leave the existing value untouched.
type UpdateCollectorInput struct {
	Name           *string  `json:"name"`
	Password       *string  `json:"password"`
	CommissionRate *float64 `json:"commission_rate"`
	IsActive       *bool    `json:"is_active"`
}

// CollectorService manages the tenant's field agents
type CollectorService struct {
	collectorRepo repository.CollectorRepository
}

// NewCollectorService creates a new collector service
func NewCollectorService(collectorRepo repository.CollectorRepository) *CollectorService {
	return &CollectorService{collectorRepo: collectorRepo}
}

// Create registers a collector with a hashed password and a fresh device token
func (s *CollectorService) Create(ctx context.Context, actor Actor, input NewCollectorInput) (*models.Collector, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	if len(input.Password) < 6 {
		return nil, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	collector := &models.Collector{
		TenantID:       actor.TenantID,
		Name:           input.Name,
		Username:       input.Username,
		PasswordHash:   string(hash),
		Token:          uuid.NewString(),
		IsActive:       true,
		CommissionRate: input.CommissionRate,
	}

	if err := s.collectorRepo.Create(ctx, collector); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create collector: %w", err)
	}
	return collector, nil
}

// List returns the tenant's collectors
func (s *CollectorService) List(ctx context.Context, actor Actor) ([]models.CollectorResponse, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}

	collectors, err := s.collectorRepo.FindByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collectors: %w", err)
	}

	responses := make([]models.CollectorResponse, 0, len(collectors))
	for i := range collectors {
		responses = append(responses, collectors[i].ToResponse())
	}
	return responses, nil
}

// Get returns one collector by ID
func (s *CollectorService) Get(ctx context.Context, actor Actor, id uint) (*models.Collector, error) {
	return s.find(ctx, actor, id)
}

// Update modifies a collector. Changing the commission rate only affects
// commissions frozen on future payments.
func (s *CollectorService) Update(ctx context.Context, actor Actor, id uint, input UpdateCollectorInput) (*models.Collector, error) {
	collector, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		collector.Name = *input.Name
	}
	if input.CommissionRate != nil {
		collector.CommissionRate = *input.CommissionRate
	}
	if input.IsActive != nil {
		collector.IsActive = *input.IsActive
	}
	if input.Password != nil {
		if len(*input.Password) < 6 {
			return nil, ErrInvalidPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		collector.PasswordHash = string(hash)
		// Rotating the password also revokes the device token
		collector.Token = uuid.NewString()
	}

	if err := s.collectorRepo.Update(ctx, collector); err != nil {
		return nil, fmt.Errorf("failed to update collector: %w", err)
	}
	return collector, nil
}

// Delete removes a collector. Historical payments keep the collector's name
// and frozen commissions, so statements for past work remain computable.
func (s *CollectorService) Delete(ctx context.Context, actor Actor, id uint) error {
	collector, err := s.find(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.collectorRepo.Delete(ctx, collector.ID); err != nil {
		return fmt.Errorf("failed to delete collector: %w", err)
	}
	return nil
}

func (s *CollectorService) find(ctx context.Context, actor Actor, id uint) (*models.Collector, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	collector, err := s.collectorRepo.FindByID(ctx, id)
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
