package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/rmaciel/gestpay-api/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewUserInput carries the fields for tenant admin registration
type NewUserInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Plan     string `json:"subscription_plan"`
}

// UserService manages tenant accounts and their subscriptions
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register creates a tenant admin account with an active subscription
func (s *UserService) Register(ctx context.Context, input NewUserInput) (*models.User, error) {
	if len(input.Password) < 6 {
		return nil, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	expiry := subscriptionExpiry(input.Plan, time.Now())
	user := &models.User{
		Email:                 input.Email,
		Name:                  input.Name,
		EncryptedPassword:     string(hash),
		Role:                  models.RoleAdmin,
		SubscriptionStatus:    models.SubscriptionActive,
		SubscriptionPlan:      input.Plan,
		SubscriptionExpiresAt: &expiry,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// List returns all tenant accounts, master-only
func (s *UserService) List(ctx context.Context, actor Actor) ([]models.UserResponse, error) {
	if actor.Role != models.RoleMaster {
		return nil, ErrUnauthenticated
	}

	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}
	return responses, nil
}

// Get returns a single account
func (s *UserService) Get(ctx context.Context, actor Actor, id uint) (*models.User, error) {
	if actor.Role != models.RoleMaster && actor.UserID != id {
		return nil, ErrNotFound
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// RenewSubscription extends a tenant's subscription from now by one plan
// period and reactivates a frozen or expired account
func (s *UserService) RenewSubscription(ctx context.Context, actor Actor, id uint) (*models.User, error) {
	if actor.Role != models.RoleMaster {
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	expiry := subscriptionExpiry(user.SubscriptionPlan, time.Now())
	user.SubscriptionStatus = models.SubscriptionActive
	user.SubscriptionExpiresAt = &expiry

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to renew subscription: %w", err)
	}
	return user, nil
}

// FreezeSubscription suspends a tenant without losing its data
func (s *UserService) FreezeSubscription(ctx context.Context, actor Actor, id uint) (*models.User, error) {
	if actor.Role != models.RoleMaster {
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	user.SubscriptionStatus = models.SubscriptionFrozen
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to freeze subscription: %w", err)
	}
	return user, nil
}

// ExpireLapsedSubscriptions marks active subscriptions past their expiry as
// expired. Intended to run on a schedule.
func (s *UserService) ExpireLapsedSubscriptions(ctx context.Context) error {
	users, err := s.userRepo.FindWithExpiredSubscription(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to find lapsed subscriptions: %w", err)
	}

	for i := range users {
		users[i].SubscriptionStatus = models.SubscriptionExpired
		if err := s.userRepo.Update(ctx, &users[i]); err != nil {
			logger.Error("Failed to expire subscription", "user_id", users[i].ID, "error", err)
		}
	}
	if len(users) > 0 {
		logger.Info("Expired lapsed subscriptions", "count", len(users))
	}
	return nil
}

// subscriptionExpiry returns the next expiry instant for a plan
func subscriptionExpiry(plan string, from time.Time) time.Time {
	switch plan {
	case "yearly":
		return from.AddDate(1, 0, 0)
	case "quarterly":
		return from.AddDate(0, 3, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}
