package handlers

import (
	"net/http"
	"strconv"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/services"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
	messageService  *services.MessageService
}

func NewSettingsHandler(settingsService *services.SettingsService, messageService *services.MessageService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, messageService: messageService}
}

// Show returns the tenant's company info and message templates
func (h *SettingsHandler) Show(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// Update replaces the tenant's settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var input models.Settings
	if err := BindNestedOrFlat(c, "settings", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// RenderMessage builds an outbound message for a loan from the tenant's
// templates. Kind is one of billing, late, receipt.
func (h *SettingsHandler) RenderMessage(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	kind := c.DefaultQuery("kind", services.MessageKindBilling)

	message, err := h.messageService.Render(c.Request.Context(), actorFrom(c), uint(loanID), kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
