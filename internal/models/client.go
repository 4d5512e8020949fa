package models

import (
	"time"
)

// Client represents a borrower scoped to one tenant
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `json:"phone"`
	Document  *string   `json:"document"` // National id or company registry
	Address   string    `json:"address"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Loans []Loan `gorm:"foreignKey:ClientID" json:"loans,omitempty"`
}

// TableName specifies the table name for Client
func (Client) TableName() string {
	return "clients"
}
