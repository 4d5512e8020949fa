package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportService produces spreadsheet exports of collector statements and
// portfolio summaries
type ExportService struct {
	commission *CommissionService
	loans      *LoanService
}

// NewExportService creates a new export service
func NewExportService(commission *CommissionService, loans *LoanService) *ExportService {
	return &ExportService{commission: commission, loans: loans}
}

// ExportStatementXLSX builds a collector statement workbook for a date range
func (s *ExportService) ExportStatementXLSX(ctx context.Context, actor Actor, collectorID uint, rangeKey string) ([]byte, string, error) {
	statement, err := s.commission.Statement(ctx, actor, collectorID, rangeKey)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Statement"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Statement - %s", statement.CollectorName))
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Commission earned")
	_ = f.SetCellValue(sheet, "B3", statement.TotalCommission)
	_ = f.SetCellValue(sheet, "A4", "Bonuses")
	_ = f.SetCellValue(sheet, "B4", statement.TotalBonus)
	_ = f.SetCellValue(sheet, "A5", "Payouts")
	_ = f.SetCellValue(sheet, "B5", statement.TotalPayout)
	_ = f.SetCellValue(sheet, "A6", "Balance")
	_ = f.SetCellValue(sheet, "B6", statement.Balance)

	_ = f.SetCellValue(sheet, "A8", "Date")
	_ = f.SetCellValue(sheet, "B8", "Type")
	_ = f.SetCellValue(sheet, "C8", "Amount")
	_ = f.SetCellValue(sheet, "D8", "Description")

	row := 9
	for _, item := range statement.Items {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.Date.Format("02/01/2006"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Kind)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Amount)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Description)
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("statement_%d_%s.xlsx", collectorID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportLoansCSV dumps the tenant's portfolio, status re-derived as of now
func (s *ExportService) ExportLoansCSV(ctx context.Context, actor Actor) ([]byte, string, error) {
	if !actor.Resolved() {
		return nil, "", ErrUnauthenticated
	}

	loans, err := s.loans.loanRepo.FindAllByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load loans: %w", err)
	}

	now := time.Now()
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	header := []string{"ID", "Client", "Principal", "Total", "Paid", "Due date", "Status", "Current debt"}
	if err := w.Write(header); err != nil {
		return nil, "", err
	}

	for i := range loans {
		loan := &loans[i]
		state := s.loans.accrual.ComputeLoanState(loan, now)
		record := []string{
			fmt.Sprintf("%d", loan.ID),
			loan.ClientName,
			fmt.Sprintf("%.2f", loan.Amount),
			fmt.Sprintf("%.2f", loan.TotalAmount),
			fmt.Sprintf("%.2f", loan.PaidAmount),
			loan.DueDate.Format("2006-01-02"),
			loan.EffectiveStatus(now),
			fmt.Sprintf("%.2f", state.CurrentDebt),
		}
		if err := w.Write(record); err != nil {
			return nil, "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("loans_%s.csv", now.Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
