package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/rmaciel/gestpay-api/internal/services"

	"github.com/gin-gonic/gin"
)

type LoanHandler struct {
	loanService *services.LoanService
	projection  *services.ProjectionService
}

func NewLoanHandler(loanService *services.LoanService, projection *services.ProjectionService) *LoanHandler {
	return &LoanHandler{loanService: loanService, projection: projection}
}

// Index returns the tenant's loans, paginated and searchable by client name
func (h *LoanHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Search = c.Query("search")

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	loans, total, err := h.loanService.List(c.Request.Context(), actorFrom(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loans": loans,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// Show returns a loan with its accrued breakdown as of now
func (h *LoanHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	detail, err := h.loanService.Get(c.Request.Context(), actorFrom(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": detail})
}

// Create originates a loan
func (h *LoanHandler) Create(c *gin.Context) {
	var input services.NewLoanInput
	if err := BindNestedOrFlat(c, "loan", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	loan, err := h.loanService.Create(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"loan": loan.ToResponse(loan.IssuedDate)})
}

// Delete removes a loan and its payment log
func (h *LoanHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	if err := h.loanService.Delete(c.Request.Context(), actorFrom(c), uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Loan deleted"})
}

// Stats returns the tenant's dashboard figures
func (h *LoanHandler) Stats(c *gin.Context) {
	stats, err := h.loanService.Stats(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PreviewRequest carries the terms for a contract projection
type PreviewRequest struct {
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	Rate         float64 `json:"rate"`
	InterestType string  `json:"interest_type"`
	Installments int     `json:"installments"`
}

// Preview projects the committed total of hypothetical contract terms,
// without persisting anything
func (h *LoanHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount is required"})
		return
	}

	total := h.projection.OriginationTotal(req.Amount, req.Rate, req.InterestType, req.Installments)
	c.JSON(http.StatusOK, gin.H{
		"principal":    req.Amount,
		"total_amount": total,
		"interest":     total - req.Amount,
	})
}

// SimulateRequest carries the inputs for a late-fee simulation
type SimulateRequest struct {
	CommittedTotal float64              `json:"committed_total" binding:"required,gt=0"`
	OverdueDays    int                  `json:"overdue_days"`
	Penalty        models.PenaltyConfig `json:"penalty_config"`
}

// Simulate projects penalties and mora interest onto a hypothetical number of
// overdue days
func (h *LoanHandler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Committed total is required"})
		return
	}

	sim := h.projection.SimulateLateFee(req.CommittedTotal, req.Penalty, req.OverdueDays)
	c.JSON(http.StatusOK, sim)
}
