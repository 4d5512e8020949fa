package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"

	"gorm.io/gorm"
)

// ClientInput carries the client fields for create and update
type ClientInput struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Document *string `json:"document"`
	Address  string  `json:"address"`
	Notes    string  `json:"notes"`
}

// ClientService manages the tenant's borrowers
type ClientService struct {
	clientRepo repository.ClientRepository
	loanRepo   repository.LoanRepository
}

// NewClientService creates a new client service
func NewClientService(clientRepo repository.ClientRepository, loanRepo repository.LoanRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo, loanRepo: loanRepo}
}

// Create registers a borrower under the actor's tenant
func (s *ClientService) Create(ctx context.Context, actor Actor, input ClientInput) (*models.Client, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}

	client := &models.Client{
		TenantID: actor.TenantID,
		Name:     input.Name,
		Phone:    input.Phone,
		Document: input.Document,
		Address:  input.Address,
		Notes:    input.Notes,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// List returns the tenant's clients with pagination and search
func (s *ClientService) List(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.Client, int64, error) {
	if !actor.Resolved() {
		return nil, 0, ErrUnauthenticated
	}
	clients, total, err := s.clientRepo.FindByTenant(ctx, actor.TenantID, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, total, nil
}

// Get returns one client
func (s *ClientService) Get(ctx context.Context, actor Actor, id uint) (*models.Client, error) {
	return s.find(ctx, actor, id)
}

// Update modifies a client. The denormalized name on loans is kept in sync so
// collector statements and receipts show the current name.
func (s *ClientService) Update(ctx context.Context, actor Actor, id uint, input ClientInput) (*models.Client, error) {
	client, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	renamed := input.Name != "" && input.Name != client.Name
	if input.Name != "" {
		client.Name = input.Name
	}
	client.Phone = input.Phone
	client.Document = input.Document
	client.Address = input.Address
	client.Notes = input.Notes

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	if renamed {
		if err := s.loanRepo.UpdateClientName(ctx, client.ID, client.Name); err != nil {
			return nil, fmt.Errorf("failed to sync loan client name: %w", err)
		}
	}
	return client, nil
}

// Delete removes a client and cascades to their loans
func (s *ClientService) Delete(ctx context.Context, actor Actor, id uint) error {
	client, err := s.find(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.clientRepo.Delete(ctx, client.ID); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

func (s *ClientService) find(ctx context.Context, actor Actor, id uint) (*models.Client, error) {
	if !actor.Resolved() {
		return nil, ErrUnauthenticated
	}
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if actor.Role != models.RoleMaster && client.TenantID != actor.TenantID {
		return nil, ErrNotFound
	}
	return client, nil
}
