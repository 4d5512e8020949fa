package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/services"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterPaymentRequest is the request body for registering a payment
type RegisterPaymentRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Payoff      bool    `json:"payoff"`
	Description string  `json:"description"`
}

// Create registers a payment against a loan. A payoff flag, or an amount
// within tolerance of the accrued debt, settles the loan.
func (h *PaymentHandler) Create(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	var req RegisterPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount is required"})
		return
	}

	loan, err := h.paymentService.RegisterPayment(c.Request.Context(), actorFrom(c), uint(loanID), req.Amount, req.Payoff, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"loan": loan.ToResponse(time.Now())})
}

// Renew registers an interest-only renewal: the amount is capitalized into
// the committed total and the due date advances one frequency period
func (h *PaymentHandler) Renew(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	var req RegisterPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount is required"})
		return
	}

	loan, err := h.paymentService.RenewInterestOnly(c.Request.Context(), actorFrom(c), uint(loanID), req.Amount, req.Payoff, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"loan": loan.ToResponse(time.Now())})
}

// Delete removes a payment and recomputes the loan's paid total and status
func (h *PaymentHandler) Delete(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	paymentID, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)

	loan, err := h.paymentService.DeletePayment(c.Request.Context(), actorFrom(c), uint(loanID), uint(paymentID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse(time.Now()), "message": "Payment deleted"})
}

// AmendPaymentRequest is the request body for replacing a payment record
type AmendPaymentRequest struct {
	Amount      float64    `json:"amount" binding:"required,gt=0"`
	PaidAt      *time.Time `json:"paid_at"`
	Description *string    `json:"description"`
}

// Amend replaces a payment's amount and date, then fully recomputes the
// loan's paid total and status from the remaining log
func (h *PaymentHandler) Amend(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	paymentID, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)

	var req AmendPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount is required"})
		return
	}

	updated := models.Payment{
		ID:          uint(paymentID),
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.PaidAt != nil {
		updated.PaidAt = *req.PaidAt
	}

	loan, err := h.paymentService.AmendPayment(c.Request.Context(), actorFrom(c), uint(loanID), updated)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse(time.Now())})
}
