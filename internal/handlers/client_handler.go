package handlers

import (
	"net/http"
	"strconv"

	"github.com/rmaciel/gestpay-api/internal/repository"
	"github.com/rmaciel/gestpay-api/internal/services"

	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	clientService *services.ClientService
	loanService   *services.LoanService
}

func NewClientHandler(clientService *services.ClientService, loanService *services.LoanService) *ClientHandler {
	return &ClientHandler{clientService: clientService, loanService: loanService}
}

// Index returns the tenant's clients
func (h *ClientHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search")

	clients, total, err := h.clientService.List(c.Request.Context(), actorFrom(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients": clients,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// Show returns one client
func (h *ClientHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("client_id"), 10, 32)
	client, err := h.clientService.Get(c.Request.Context(), actorFrom(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

// Loans returns a client's loans with status re-derived as of now
func (h *ClientHandler) Loans(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("client_id"), 10, 32)
	loans, err := h.loanService.ByClient(c.Request.Context(), actorFrom(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans})
}

// Create registers a borrower
func (h *ClientHandler) Create(c *gin.Context) {
	var input services.ClientInput
	if err := BindNestedOrFlat(c, "client", &input); err != nil || input.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"client": client})
}

// Update modifies a borrower
func (h *ClientHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("client_id"), 10, 32)

	var input services.ClientInput
	if err := BindNestedOrFlat(c, "client", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), actorFrom(c), uint(id), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

// Delete removes a borrower and their loans
func (h *ClientHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("client_id"), 10, 32)
	if err := h.clientService.Delete(c.Request.Context(), actorFrom(c), uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted"})
}
