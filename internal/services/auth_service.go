package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rmaciel/gestpay-api/internal/config"
	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles admin and collector authentication
type AuthService struct {
	userRepo      repository.UserRepository
	collectorRepo repository.CollectorRepository
	cfg           *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, collectorRepo repository.CollectorRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		collectorRepo: collectorRepo,
		cfg:           cfg,
	}
}

// LoginResult represents the result of a login attempt
type LoginResult struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// CollectorLoginResult is the result of a collector device login
type CollectorLoginResult struct {
	Token     string                   `json:"token"`
	Collector models.CollectorResponse `json:"collector"`
}

// Login authenticates a tenant admin (or the master account) by email
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte(password)); err != nil {
		return nil, ErrUnauthenticated
	}

	token, err := s.generateJWT(jwt.MapClaims{
		"user_id":   user.ID,
		"tenant_id": user.ID, // admin users own their tenant
		"name":      user.Name,
		"role":      user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResult{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

// CollectorLogin authenticates a collector by username. Deactivated
// collectors are rejected even with valid credentials.
func (s *AuthService) CollectorLogin(ctx context.Context, username, password string) (*CollectorLoginResult, error) {
	collector, err := s.collectorRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load collector: %w", err)
	}

	if !collector.MayAuthenticate() {
		return nil, ErrCollectorInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(collector.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthenticated
	}

	token, err := s.generateJWT(jwt.MapClaims{
		"user_id":      collector.TenantID,
		"tenant_id":    collector.TenantID,
		"collector_id": collector.ID,
		"name":         collector.Name,
		"role":         models.RoleCollector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &CollectorLoginResult{
		Token:     token,
		Collector: collector.ToResponse(),
	}, nil
}

// generateJWT signs a token carrying the given identity claims
func (s *AuthService) generateJWT(claims jwt.MapClaims) (string, error) {
	now := time.Now()
	claims["exp"] = now.Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix()
	claims["iat"] = now.Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
