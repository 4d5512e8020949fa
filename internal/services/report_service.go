package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/rmaciel/gestpay-api/internal/storage"
	"github.com/rmaciel/gestpay-api/pkg/logger"

	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"
)

// ReportService produces PDF documents for loans and payments
type ReportService struct {
	loanRepo     repository.LoanRepository
	paymentRepo  repository.PaymentRepository
	settingsRepo repository.SettingsRepository
	accrual      *AccrualService
	store        *storage.LocalStorage
}

// NewReportService creates a new report service
func NewReportService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	settingsRepo repository.SettingsRepository,
	accrual *AccrualService,
	store *storage.LocalStorage,
) *ReportService {
	return &ReportService{
		loanRepo:     loanRepo,
		paymentRepo:  paymentRepo,
		settingsRepo: settingsRepo,
		accrual:      accrual,
		store:        store,
	}
}

// GenerateLoanStatementPDF builds the full statement of a loan: contract
// terms, accrued state as of now, and the payment log
func (s *ReportService) GenerateLoanStatementPDF(ctx context.Context, actor Actor, loanID uint) ([]byte, string, error) {
	loan, err := s.findLoan(ctx, actor, loanID)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	state := s.accrual.ComputeLoanState(loan, now)
	company := s.companyName(ctx, loan.TenantID)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, company)
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 10, fmt.Sprintf("Loan statement - %s", now.Format("02/01/2006")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Contract")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	s.row(pdf, "Client:", loan.ClientName)
	s.row(pdf, "Principal:", fmt.Sprintf("%.2f", loan.Amount))
	s.row(pdf, "Rate:", fmt.Sprintf("%.2f%% (%s)", loan.Rate, loan.InterestType))
	s.row(pdf, "Frequency:", fmt.Sprintf("%s x %d", loan.Frequency, loan.Installments))
	s.row(pdf, "Issued:", loan.IssuedDate.Format("02/01/2006"))
	s.row(pdf, "Due:", loan.DueDate.Format("02/01/2006"))
	s.row(pdf, "Status:", loan.EffectiveStatus(now))
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Balance")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	s.row(pdf, "Committed total:", fmt.Sprintf("%.2f", loan.TotalAmount))
	s.row(pdf, "Paid:", fmt.Sprintf("%.2f", loan.PaidAmount))
	if state.DaysOverdue > 0 {
		s.row(pdf, "Days overdue:", fmt.Sprintf("%d", state.DaysOverdue))
		s.row(pdf, "Fixed penalty:", fmt.Sprintf("%.2f", state.FixedPenalty))
		s.row(pdf, "Mora interest:", fmt.Sprintf("%.2f", state.MoraInterest))
	}
	s.row(pdf, "Current debt:", fmt.Sprintf("%.2f", state.CurrentDebt))
	pdf.Ln(6)

	if len(loan.Payments) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(40, 10, "Payments")
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 9)
		pdf.Cell(30, 8, "Date")
		pdf.Cell(30, 8, "Amount")
		pdf.Cell(30, 8, "Type")
		pdf.Cell(50, 8, "Collected by")
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 9)
		for _, p := range loan.Payments {
			kind := "Payment"
			if p.IsRenewal() {
				kind = "Renewal"
			}
			pdf.Cell(30, 7, p.PaidAt.Format("02/01/2006"))
			pdf.Cell(30, 7, fmt.Sprintf("%.2f", p.Amount))
			pdf.Cell(30, 7, kind)
			pdf.Cell(50, 7, p.CollectedBy)
			pdf.Ln(7)
		}
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", fmt.Errorf("failed to render pdf: %w", err)
	}

	filename := fmt.Sprintf("loan_%d_statement_%s.pdf", loan.ID, now.Format("2006-01-02"))
	s.archive(buf.Bytes(), filename)
	return buf.Bytes(), filename, nil
}

// GenerateContractPDF builds the loan contract: the agreed terms, the
// committed total, and the planned installment schedule from the issue date
func (s *ReportService) GenerateContractPDF(ctx context.Context, actor Actor, loanID uint) ([]byte, string, error) {
	loan, err := s.findLoan(ctx, actor, loanID)
	if err != nil {
		return nil, "", err
	}
	company := s.companyName(ctx, loan.TenantID)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, company)
	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Loan contract")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	s.row(pdf, "Client:", loan.ClientName)
	s.row(pdf, "Principal:", fmt.Sprintf("%.2f", loan.Amount))
	s.row(pdf, "Rate:", fmt.Sprintf("%.2f%% (%s)", loan.Rate, loan.InterestType))
	s.row(pdf, "Frequency:", fmt.Sprintf("%s x %d", loan.Frequency, loan.Installments))
	s.row(pdf, "Issued:", loan.IssuedDate.Format("02/01/2006"))
	s.row(pdf, "Committed total:", fmt.Sprintf("%.2f", loan.TotalAmount))
	pdf.Ln(6)

	if loan.Installments > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(40, 10, "Installment schedule")
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 9)
		pdf.Cell(20, 8, "#")
		pdf.Cell(40, 8, "Due date")
		pdf.Cell(40, 8, "Amount")
		pdf.Ln(8)

		installment := loan.TotalAmount / float64(loan.Installments)
		pdf.SetFont("Arial", "", 9)
		for i := 1; i <= loan.Installments; i++ {
			due := loan.IssuedDate.AddDate(0, 0, loan.FrequencyDays()*i)
			pdf.Cell(20, 7, fmt.Sprintf("%d", i))
			pdf.Cell(40, 7, due.Format("02/01/2006"))
			pdf.Cell(40, 7, fmt.Sprintf("%.2f", installment))
			pdf.Ln(7)
		}
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(80, 7, "_________________________")
	pdf.Cell(80, 7, "_________________________")
	pdf.Ln(6)
	pdf.Cell(80, 7, loan.ClientName)
	pdf.Cell(80, 7, company)

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", fmt.Errorf("failed to render pdf: %w", err)
	}

	filename := fmt.Sprintf("contract_%s.pdf", sanitizeFilename(loan.ClientName))
	s.archive(buf.Bytes(), filename)
	return buf.Bytes(), filename, nil
}

// GenerateReceiptPDF builds a receipt for one payment
func (s *ReportService) GenerateReceiptPDF(ctx context.Context, actor Actor, paymentID uint) ([]byte, string, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to load payment: %w", err)
	}

	loan, err := s.findLoan(ctx, actor, payment.LoanID)
	if err != nil {
		return nil, "", err
	}
	company := s.companyName(ctx, loan.TenantID)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, company)
	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Payment receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	s.row(pdf, "Receipt:", payment.ReceiptNumber)
	s.row(pdf, "Client:", loan.ClientName)
	s.row(pdf, "Amount:", fmt.Sprintf("%.2f", payment.Amount))
	s.row(pdf, "Date:", payment.PaidAt.Format("02/01/2006"))
	s.row(pdf, "Collected by:", payment.CollectedBy)

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", fmt.Errorf("failed to render pdf: %w", err)
	}

	filename := fmt.Sprintf("receipt_%s.pdf", payment.ReceiptNumber)
	s.archive(buf.Bytes(), filename)
	return buf.Bytes(), filename, nil
}

// sanitizeFilename keeps client names safe to use as part of a file name
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

func (s *ReportService) row(pdf *gofpdf.Fpdf, label, value string) {
	pdf.Cell(50, 7, label)
	pdf.Cell(80, 7, value)
	pdf.Ln(7)
}

// companyName returns the tenant's configured company name, or a generic
// heading when settings were never saved
func (s *ReportService) companyName(ctx context.Context, tenantID uint) string {
	settings, err := s.settingsRepo.FindByTenant(ctx, tenantID)
	if err != nil || settings.CompanyName == "" {
		return "Loan Statement"
	}
	return settings.CompanyName
}

// archive best-effort copies the document into local storage; a failed
// archive never fails the download
func (s *ReportService) archive(data []byte, filename string) {
	if s.store == nil {
		return
	}
	if _, err := s.store.Save(data, filename, "reports"); err != nil {
		logger.Warn("Failed to archive report", "filename", filename, "error", err)
	}
}

func (s *ReportService) findLoan(ctx context.Context, actor Actor, id uint) (*models.Loan, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	if actor.Role != models.RoleMaster && loan.TenantID != actor.TenantID {
		return nil, ErrNotFound
	}
	return loan, nil
}
