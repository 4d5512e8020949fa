package models

import (
	"time"
)

// Collector is a field agent who collects payments for a tenant and earns a
// percentage commission on every payment they register.
type Collector struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TenantID       uint      `gorm:"not null;index" json:"tenant_id"`
	Name           string    `gorm:"not null" json:"name"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	Token          string    `gorm:"uniqueIndex;not null" json:"-"` // Device access token
	IsActive       bool      `gorm:"default:true;not null" json:"is_active"`
	CommissionRate float64   `gorm:"type:decimal(10,2);default:0" json:"commission_rate"` // 0-100
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Associations
	Transactions []CollectorTransaction `gorm:"foreignKey:CollectorID" json:"transactions,omitempty"`
}

// TableName specifies the table name for Collector
func (Collector) TableName() string {
	return "collectors"
}

// MayAuthenticate returns true if the collector can log in. Inactive
// collectors keep their historical commissions but cannot authenticate.
func (c *Collector) MayAuthenticate() bool {
	return c.IsActive
}

// EarnsCommission returns true when payments by this collector accrue commission
func (c *Collector) EarnsCommission() bool {
	return c.CommissionRate > 0
}

// CommissionFor returns the commission earned on a payment amount, using the
// rate in effect right now. The result is frozen onto the payment record and
// never recomputed when the rate later changes.
func (c *Collector) CommissionFor(amount float64) float64 {
	if !c.EarnsCommission() {
		return 0
	}
	return amount * c.CommissionRate / 100
}

// CollectorResponse is the JSON response format for collectors
type CollectorResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	IsActive       bool      `json:"is_active"`
	CommissionRate float64   `json:"commission_rate"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToResponse converts Collector to CollectorResponse
func (c *Collector) ToResponse() CollectorResponse {
	return CollectorResponse{
		ID:             c.ID,
		Name:           c.Name,
		Username:       c.Username,
		IsActive:       c.IsActive,
		CommissionRate: c.CommissionRate,
		CreatedAt:      c.CreatedAt,
	}
}
