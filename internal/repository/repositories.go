package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrStaleRecord is returned when an optimistic-concurrency write finds that
// the record changed since it was read.
var ErrStaleRecord = errors.New("record was modified concurrently")

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Client       ClientRepository
	Loan         LoanRepository
	Payment      PaymentRepository
	Collector    CollectorRepository
	Transaction  TransactionRepository
	Notification NotificationRepository
	Settings     SettingsRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Client:       NewClientRepository(db),
		Loan:         NewLoanRepository(db),
		Payment:      NewPaymentRepository(db),
		Collector:    NewCollectorRepository(db),
		Transaction:  NewTransactionRepository(db),
		Notification: NewNotificationRepository(db),
		Settings:     NewSettingsRepository(db),
	}
}

// ListQuery carries pagination, sorting and filter parameters for list reads
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

func (q *ListQuery) offset() int {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}
	return (q.Page - 1) * q.PerPage
}
