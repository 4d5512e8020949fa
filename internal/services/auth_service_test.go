package services

import (
	"context"
	"testing"

	"github.com/rmaciel/gestpay-api/internal/config"
	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Mock UserRepository (using embedding to avoid implementing all methods)
type mockUserRepository struct {
	repository.UserRepository
	mockFindByEmail func(ctx context.Context, email string) (*models.User, error)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.mockFindByEmail != nil {
		return m.mockFindByEmail(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 24,
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	assert.NoError(t, err)
	return string(hash)
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	return claims
}

func TestLogin(t *testing.T) {
	userRepo := &mockUserRepository{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			if email != "owner@example.com" {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.User{
				ID:                3,
				Email:             "owner@example.com",
				Name:              "Owner",
				Role:              models.RoleAdmin,
				EncryptedPassword: hashPassword(t, "secret123"),
			}, nil
		},
	}

	service := NewAuthService(userRepo, &mockCollectorRepository{}, testConfig())

	result, err := service.Login(context.Background(), "owner@example.com", "secret123")
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "owner@example.com", result.User.Email)

	// Admin accounts own their tenant: tenant_id mirrors user_id
	claims := parseClaims(t, result.Token)
	assert.Equal(t, float64(3), claims["user_id"])
	assert.Equal(t, float64(3), claims["tenant_id"])
	assert.Equal(t, models.RoleAdmin, claims["role"])
	assert.NotNil(t, claims["exp"])

	_, err = service.Login(context.Background(), "owner@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = service.Login(context.Background(), "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCollectorLogin(t *testing.T) {
	collector := &models.Collector{
		ID:           7,
		TenantID:     3,
		Name:         "Maria",
		Username:     "maria",
		PasswordHash: hashPassword(t, "secret123"),
		IsActive:     true,
	}

	collectorRepo := &mockCollectorRepository{}
	collectorRepo.mockFindByUsername = func(ctx context.Context, username string) (*models.Collector, error) {
		if username != "maria" {
			return nil, gorm.ErrRecordNotFound
		}
		return collector, nil
	}

	service := NewAuthService(&mockUserRepository{}, collectorRepo, testConfig())

	result, err := service.CollectorLogin(context.Background(), "maria", "secret123")
	assert.NoError(t, err)
	assert.Equal(t, "maria", result.Collector.Username)

	claims := parseClaims(t, result.Token)
	assert.Equal(t, float64(7), claims["collector_id"])
	assert.Equal(t, float64(3), claims["tenant_id"])
	assert.Equal(t, models.RoleCollector, claims["role"])

	_, err = service.CollectorLogin(context.Background(), "maria", "wrong")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Deactivated collectors are rejected even with valid credentials
	collector.IsActive = false
	_, err = service.CollectorLogin(context.Background(), "maria", "secret123")
	assert.ErrorIs(t, err, ErrCollectorInactive)
}
