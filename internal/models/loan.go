package models

import (
	"time"
)

// Loan represents a short-term interest-bearing loan contract
type Loan struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	TenantID     uint           `gorm:"not null;index" json:"tenant_id"`
	ClientID     uint           `gorm:"not null;index" json:"client_id"`
	ClientName   string         `gorm:"not null" json:"client_name"` // Denormalized for list views
	ClientPhone  *string        `json:"client_phone"`
	Amount       float64        `gorm:"type:decimal(15,2);not null" json:"amount"` // Principal, fixed at origination
	InterestType string         `gorm:"not null" json:"interest_type"`
	Rate         float64        `gorm:"type:decimal(10,2);not null" json:"rate"` // Percent per installment period
	Frequency    string         `gorm:"not null" json:"frequency"`
	Installments int            `gorm:"not null" json:"installments"`
	DurationDays int            `gorm:"not null" json:"duration_days"`
	IssuedDate   time.Time      `gorm:"type:date;not null" json:"issued_date"`
	DueDate      time.Time      `gorm:"type:date;not null;index" json:"due_date"`
	TotalAmount  float64        `gorm:"type:decimal(15,2);not null" json:"total_amount"` // Committed payoff total, grows on renewals
	PaidAmount   float64        `gorm:"type:decimal(15,2);default:0" json:"paid_amount"`
	Status       string         `gorm:"default:active;not null;index" json:"status"`
	Notes        *string        `gorm:"type:text" json:"notes"`
	Penalty      *PenaltyConfig `gorm:"embedded;embeddedPrefix:penalty_" json:"penalty_config,omitempty"`
	LockVersion  uint           `gorm:"default:0;not null" json:"-"` // Optimistic concurrency token
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	// Associations
	Client   Client    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Payments []Payment `gorm:"foreignKey:LoanID" json:"payments,omitempty"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// PenaltyConfig holds the late-payment penalty terms of a loan
type PenaltyConfig struct {
	Active           bool    `json:"active"`
	GraceDays        int     `json:"grace_days"`
	MoraRate         float64 `gorm:"type:decimal(10,2)" json:"mora_rate"` // Monthly percentage
	FixedPenalty     float64 `gorm:"type:decimal(15,2)" json:"fixed_penalty"`
	FixedPenaltyKind string  `json:"fixed_penalty_kind"`
}

// Loan status constants
const (
	LoanStatusActive  = "active"
	LoanStatusOverdue = "overdue"
	LoanStatusPaid    = "paid"
)

// Interest type constants
const (
	InterestTypeSimple   = "simple"
	InterestTypeCompound = "compound"
	InterestTypeDaily    = "daily"
	InterestTypeBalance  = "balance"
)

// Frequency constants
const (
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
	FrequencySingle   = "single"
)

// Fixed penalty kind constants
const (
	FixedPenaltyOneTime = "one_time"
	FixedPenaltyPerDay  = "per_day"
)

// SettleEpsilon is the rounding tolerance under which a loan counts as fully
// paid. It absorbs float drift, it is not a business discount.
const SettleEpsilon = 0.1

// PayoffTolerance is the looser tolerance used to detect that a manually
// entered payment amount was meant as a payoff.
const PayoffTolerance = 1.0

// FrequencyDays maps the payment frequency to its fixed day count
func (l *Loan) FrequencyDays() int {
	switch l.Frequency {
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 15
	case FrequencyMonthly, FrequencySingle:
		return 30
	default:
		return 30
	}
}

// IsSettled returns true when the paid amount covers the committed total
func (l *Loan) IsSettled() bool {
	return l.PaidAmount >= l.TotalAmount-SettleEpsilon
}

// PenaltyActive returns true when a penalty configuration exists and is enabled
func (l *Loan) PenaltyActive() bool {
	return l.Penalty != nil && l.Penalty.Active
}

// EffectiveStatus resolves the lazily evaluated status against a reference
// date. The stored Status column is a cache; overdue is always re-derived.
func (l *Loan) EffectiveStatus(today time.Time) string {
	if l.Status == LoanStatusPaid {
		return LoanStatusPaid
	}
	if DateBefore(l.DueDate, today) {
		return LoanStatusOverdue
	}
	return LoanStatusActive
}

// SumPayments returns the sum of all attached payment amounts
func (l *Loan) SumPayments() float64 {
	var total float64
	for _, p := range l.Payments {
		total += p.Amount
	}
	return total
}

// DateBefore compares two instants as calendar dates, ignoring time of day
func DateBefore(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

// LoanResponse is the JSON response format for loans
type LoanResponse struct {
	ID            uint              `json:"id"`
	ClientID      uint              `json:"client_id"`
	ClientName    string            `json:"client_name"`
	ClientPhone   *string           `json:"client_phone,omitempty"`
	Amount        float64           `json:"amount"`
	InterestType  string            `json:"interest_type"`
	Rate          float64           `json:"rate"`
	Frequency     string            `json:"frequency"`
	Installments  int               `json:"installments"`
	DurationDays  int               `json:"duration_days"`
	IssuedDate    time.Time         `json:"issued_date"`
	DueDate       time.Time         `json:"due_date"`
	TotalAmount   float64           `json:"total_amount"`
	PaidAmount    float64           `json:"paid_amount"`
	Status        string            `json:"status"`
	Notes         *string           `json:"notes"`
	PenaltyConfig *PenaltyConfig    `json:"penalty_config,omitempty"`
	Payments      []PaymentResponse `json:"payments,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ToResponse converts Loan to LoanResponse with the status resolved against today
func (l *Loan) ToResponse(today time.Time) LoanResponse {
	resp := LoanResponse{
		ID:            l.ID,
		ClientID:      l.ClientID,
		ClientName:    l.ClientName,
		ClientPhone:   l.ClientPhone,
		Amount:        l.Amount,
		InterestType:  l.InterestType,
		Rate:          l.Rate,
		Frequency:     l.Frequency,
		Installments:  l.Installments,
		DurationDays:  l.DurationDays,
		IssuedDate:    l.IssuedDate,
		DueDate:       l.DueDate,
		TotalAmount:   l.TotalAmount,
		PaidAmount:    l.PaidAmount,
		Status:        l.EffectiveStatus(today),
		Notes:         l.Notes,
		PenaltyConfig: l.Penalty,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}

	for _, payment := range l.Payments {
		resp.Payments = append(resp.Payments, payment.ToResponse())
	}

	return resp
}
