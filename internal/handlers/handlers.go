package handlers

import (
	"errors"
	"net/http"

	"github.com/rmaciel/gestpay-api/internal/middleware"
	"github.com/rmaciel/gestpay-api/internal/services"

	"github.com/gin-gonic/gin"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Client       *ClientHandler
	Loan         *LoanHandler
	Payment      *PaymentHandler
	Collector    *CollectorHandler
	Notification *NotificationHandler
	Settings     *SettingsHandler
	Report       *ReportHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth, svcs.User),
		User:         NewUserHandler(svcs.User),
		Client:       NewClientHandler(svcs.Client, svcs.Loan),
		Loan:         NewLoanHandler(svcs.Loan, svcs.Projection),
		Payment:      NewPaymentHandler(svcs.Payment),
		Collector:    NewCollectorHandler(svcs.Collector, svcs.Commission, svcs.Export),
		Notification: NewNotificationHandler(svcs.Notification),
		Settings:     NewSettingsHandler(svcs.Settings, svcs.Message),
		Report:       NewReportHandler(svcs.Report, svcs.Export),
	}
}

// HealthHandler serves liveness checks
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check returns 200 when the process is serving
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// actorFrom resolves the acting identity from the request's JWT claims
func actorFrom(c *gin.Context) services.Actor {
	return middleware.Actor(c)
}

// respondError maps service errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, services.ErrCollectorInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "Collector account is deactivated"})
	case errors.Is(err, services.ErrInvalidAmount):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid amount"})
	case errors.Is(err, services.ErrInvalidPassword):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Password must be at least 6 characters"})
	case errors.Is(err, services.ErrDuplicateIdentity):
		c.JSON(http.StatusConflict, gin.H{"error": "Identifier already in use"})
	case errors.Is(err, services.ErrStaleRecord):
		c.JSON(http.StatusConflict, gin.H{"error": "Record was modified concurrently, retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
