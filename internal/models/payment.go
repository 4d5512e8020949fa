package models

import (
	"time"
)

// Payment is an immutable ledger entry for money collected against a loan.
// Records are appended in chronological order and never reordered; amendment
// and deletion replace or remove a whole record, never a single field.
type Payment struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	LoanID           uint      `gorm:"not null;index" json:"loan_id"`
	ReceiptNumber    string    `gorm:"uniqueIndex;not null" json:"receipt_number"`
	Amount           float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaidAt           time.Time `gorm:"not null;index" json:"paid_at"`
	CollectedBy      string    `gorm:"not null" json:"collected_by"` // Collector display name, see commission matching
	CommissionAmount float64   `gorm:"type:decimal(15,2);default:0" json:"commission_amount"`
	Kind             string    `gorm:"default:regular;not null" json:"kind"`
	Description      *string   `json:"description"`
	CreatedAt        time.Time `json:"created_at"`

	// Associations
	Loan *Loan `gorm:"foreignKey:LoanID" json:"-"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payment kind constants
const (
	PaymentKindRegular      = "regular"
	PaymentKindInterestOnly = "interest_only"
)

// IsRenewal returns true for interest-only renewal payments
func (p *Payment) IsRenewal() bool {
	return p.Kind == PaymentKindInterestOnly
}

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID               uint      `json:"id"`
	LoanID           uint      `json:"loan_id"`
	ReceiptNumber    string    `json:"receipt_number"`
	Amount           float64   `json:"amount"`
	PaidAt           time.Time `json:"paid_at"`
	CollectedBy      string    `json:"collected_by"`
	CommissionAmount float64   `json:"commission_amount"`
	Kind             string    `json:"kind"`
	Description      *string   `json:"description"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		LoanID:           p.LoanID,
		ReceiptNumber:    p.ReceiptNumber,
		Amount:           p.Amount,
		PaidAt:           p.PaidAt,
		CollectedBy:      p.CollectedBy,
		CommissionAmount: p.CommissionAmount,
		Kind:             p.Kind,
		Description:      p.Description,
	}
}
