package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/rmaciel/gestpay-api/internal/services"

	"github.com/gin-gonic/gin"
)

type CollectorHandler struct {
	collectorService  *services.CollectorService
	commissionService *services.CommissionService
	exportService     *services.ExportService
}

func NewCollectorHandler(
	collectorService *services.CollectorService,
	commissionService *services.CommissionService,
	exportService *services.ExportService,
) *CollectorHandler {
	return &CollectorHandler{
		collectorService:  collectorService,
		commissionService: commissionService,
		exportService:     exportService,
	}
}

// Index returns the tenant's collectors
func (h *CollectorHandler) Index(c *gin.Context) {
	collectors, err := h.collectorService.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collectors": collectors})
}

// Show returns one collector
func (h *CollectorHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("collector_id"), 10, 32)
	collector, err := h.collectorService.Get(c.Request.Context(), actorFrom(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collector": collector.ToResponse()})
}

// Create registers a collector
func (h *CollectorHandler) Create(c *gin.Context) {
	var input services.NewCollectorInput
	if err := BindNestedOrFlat(c, "collector", &input); err != nil || input.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	collector, err := h.collectorService.Create(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"collector": collector.ToResponse()})
}

// Update modifies a collector
func (h *CollectorHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("collector_id"), 10, 32)

	var input services.UpdateCollectorInput
	if err := BindNestedOrFlat(c, "collector", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	collector, err := h.collectorService.Update(c.Request.Context(), actorFrom(c), uint(id), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collector": collector.ToResponse()})
}

// Delete removes a collector
func (h *CollectorHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("collector_id"), 10, 32)
	if err := h.collectorService.Delete(c.Request.Context(), actorFrom(c), uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Collector deleted"})
}

// Statement returns the collector's earnings and ledger for a date range.
// Valid ranges: 7days, 30days, month, all (default).
func (h *CollectorHandler) Statement(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("collector_id"), 10, 32)
	rangeKey := c.DefaultQuery("range", services.RangeAll)

	statement, err := h.commissionService.Statement(c.Request.Context(), actorFrom(c), uint(id), rangeKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statement)
}

// ExportStatement downloads the statement as a spreadsheet
func (h *CollectorHandler) ExportStatement(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("collector_id"), 10, 32)
	rangeKey := c.DefaultQuery("range", services.RangeAll)

	data, filename, err := h.exportService.ExportStatementXLSX(c.Request.Context(), actorFrom(c), uint(id), rangeKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// TransactionRequest is the request body for a manual ledger entry
type TransactionRequest struct {
	Kind        string  `json:"kind" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description"`
}

// CreateTransaction records a payout or bonus against a collector's balance
func (h *CollectorHandler) CreateTransaction(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("collector_id"), 10, 32)

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Kind and amount are required"})
		return
	}

	tx, err := h.commissionService.RecordTransaction(c.Request.Context(), actorFrom(c), uint(id), req.Kind, req.Amount, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}
