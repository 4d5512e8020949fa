package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/rmaciel/gestpay-api/internal/services"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService}
}

// LoanStatement downloads a loan statement PDF
func (h *ReportHandler) LoanStatement(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	data, filename, err := h.reportService.GenerateLoanStatementPDF(c.Request.Context(), actorFrom(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// Contract downloads the loan contract PDF with the installment schedule
func (h *ReportHandler) Contract(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	data, filename, err := h.reportService.GenerateContractPDF(c.Request.Context(), actorFrom(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// Receipt downloads a payment receipt PDF
func (h *ReportHandler) Receipt(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)

	data, filename, err := h.reportService.GenerateReceiptPDF(c.Request.Context(), actorFrom(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// LoansCSV downloads the tenant's portfolio as CSV
func (h *ReportHandler) LoansCSV(c *gin.Context) {
	data, filename, err := h.exportService.ExportLoansCSV(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
