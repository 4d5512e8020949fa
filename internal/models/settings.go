package models

import (
	"time"
)

// Settings holds per-tenant company information and outbound message
// templates. Templates support the {CLIENT}, {AMOUNT} and {DATE} placeholders.
type Settings struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TenantID        uint      `gorm:"uniqueIndex;not null" json:"tenant_id"`
	CompanyName     string    `json:"company_name"`
	TradingName     string    `json:"trading_name"`
	Document        string    `json:"document"`
	Phone           string    `json:"phone"`
	Address         string    `json:"address"`
	TemplateBilling string    `gorm:"type:text" json:"template_billing"`
	TemplateLate    string    `gorm:"type:text" json:"template_late"`
	TemplateReceipt string    `gorm:"type:text" json:"template_receipt"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for Settings
func (Settings) TableName() string {
	return "settings"
}

// Default message templates, used when a tenant field is blank
const (
	DefaultTemplateBilling = "Hello *{CLIENT}*.\n\nThis is a reminder about your loan.\nAmount: {AMOUNT}\nDue date: {DATE}"
	DefaultTemplateLate    = "Hello *{CLIENT}*.\n\nYour loan was due on {DATE}.\nAccumulated total: {AMOUNT}.\n\nPlease contact us to settle."
	DefaultTemplateReceipt = "Hello *{CLIENT}*.\n\nPayment of {AMOUNT} confirmed!\nThank you."
)
