package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a tenant operator account. Each admin user owns one tenant under
// which clients, loans and collectors are scoped; the master account manages
// tenant subscriptions.
type User struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	Email                 string     `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword     string     `gorm:"column:encrypted_password;not null" json:"-"`
	Name                  string     `gorm:"not null" json:"name"`
	Role                  string     `gorm:"default:admin;not null" json:"role"`
	SubscriptionStatus    string     `gorm:"default:active;not null" json:"subscription_status"`
	SubscriptionPlan      string     `gorm:"default:monthly" json:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Role constants
const (
	RoleMaster    = "master"
	RoleAdmin     = "admin"
	RoleCollector = "collector"
)

// Subscription status constants
const (
	SubscriptionActive  = "active"
	SubscriptionFrozen  = "frozen"
	SubscriptionExpired = "expired"
)

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleAdmin
	}
	if u.SubscriptionStatus == "" {
		u.SubscriptionStatus = SubscriptionActive
	}
	return nil
}

// IsMaster returns true if the user is the platform master account
func (u *User) IsMaster() bool {
	return u.Role == RoleMaster
}

// SubscriptionExpiredAt returns true if the subscription lapsed before the
// given instant
func (u *User) SubscriptionExpiredAt(now time.Time) bool {
	if u.SubscriptionExpiresAt == nil {
		return false
	}
	return now.After(*u.SubscriptionExpiresAt)
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID                    uint       `json:"id"`
	Email                 string     `json:"email"`
	Name                  string     `json:"name"`
	Role                  string     `json:"role"`
	SubscriptionStatus    string     `json:"subscription_status"`
	SubscriptionPlan      string     `json:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
	CreatedAt             time.Time  `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:                    u.ID,
		Email:                 u.Email,
		Name:                  u.Name,
		Role:                  u.Role,
		SubscriptionStatus:    u.SubscriptionStatus,
		SubscriptionPlan:      u.SubscriptionPlan,
		SubscriptionExpiresAt: u.SubscriptionExpiresAt,
		CreatedAt:             u.CreatedAt,
	}
}
