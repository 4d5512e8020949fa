package models

import (
	"time"
)

// CollectorTransaction is a manual ledger movement against a collector's
// payable balance, independent of any loan. Payouts decrease the balance,
// bonuses increase it.
type CollectorTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CollectorID uint      `gorm:"not null;index" json:"collector_id"`
	TenantID    uint      `gorm:"not null;index" json:"tenant_id"`
	Kind        string    `gorm:"not null;index" json:"kind"`
	Amount      float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description string    `gorm:"not null" json:"description"`
	EntryDate   time.Time `gorm:"not null;index" json:"entry_date"`
	CreatedAt   time.Time `json:"created_at"`

	// Associations
	Collector *Collector `gorm:"foreignKey:CollectorID" json:"-"`
}

// TableName specifies the table name for CollectorTransaction
func (CollectorTransaction) TableName() string {
	return "collector_transactions"
}

// Transaction kind constants
const (
	TransactionKindPayout = "payout"
	TransactionKindBonus  = "bonus"
)
