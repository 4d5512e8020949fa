package services

import (
	"github.com/rmaciel/gestpay-api/internal/config"
	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/rmaciel/gestpay-api/internal/storage"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Client       *ClientService
	Loan         *LoanService
	Payment      *PaymentService
	Collector    *CollectorService
	Commission   *CommissionService
	Projection   *ProjectionService
	Accrual      *AccrualService
	Notification *NotificationService
	Message      *MessageService
	Settings     *SettingsService
	Report       *ReportService
	Export       *ExportService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, store *storage.LocalStorage, cfg *config.Config) *Services {
	projectionSvc := NewProjectionService()
	accrualSvc := NewAccrualService()
	loanSvc := NewLoanService(repos.Loan, repos.Client, projectionSvc, accrualSvc)
	commissionSvc := NewCommissionService(repos.Collector, repos.Payment, repos.Transaction)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.Collector, cfg),
		User:         NewUserService(repos.User),
		Client:       NewClientService(repos.Client, repos.Loan),
		Loan:         loanSvc,
		Payment:      NewPaymentService(repos.Loan, repos.Collector, accrualSvc),
		Collector:    NewCollectorService(repos.Collector),
		Commission:   commissionSvc,
		Projection:   projectionSvc,
		Accrual:      accrualSvc,
		Notification: NewNotificationService(repos.Notification),
		Message:      NewMessageService(repos.Settings, repos.Loan, accrualSvc),
		Settings:     NewSettingsService(repos.Settings),
		Report:       NewReportService(repos.Loan, repos.Payment, repos.Settings, accrualSvc, store),
		Export:       NewExportService(commissionSvc, loanSvc),
	}
}
