package party

import (
	"context"

	appaccess "github.com/billing/backend/internal/application/access"
	"github.com/billing/backend/internal/domain/party"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCustomerRequest contains input for creating a customer
type CreateCustomerRequest struct {
	Subject string
	Name    string
	Email   string
}

// UpdateCustomerRequest contains input for updating a customer
type UpdateCustomerRequest struct {
	Name  string
	Email string
}

// CustomerService orchestrates customer operations
type CustomerService struct {
	customerRepo party.CustomerRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo party.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// Create registers a new customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*party.Customer, error) {
	existing, err := s.customerRepo.FindBySubject(ctx, req.Subject)
	if err != nil && err != shared.ErrNotFound {
		s.logger.Error("failed to check for existing customer", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A customer already exists for this subject")
	}

	customer, err := party.NewCustomer(req.Subject, req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("failed to save customer", zap.Error(err))
		return nil, err
	}

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("subject", customer.Subject))
	return customer, nil
}

// GetByID returns a customer the caller is allowed to see. An existing but
// inaccessible customer yields the same NotFound as a missing one.
func (s *CustomerService) GetByID(ctx context.Context, targets appaccess.ApprovedTargets, id uuid.UUID) (*party.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !targets.Unfiltered && !targets.Subjects.Contains(customer.Subject) {
		return nil, shared.ErrNotFound
	}
	return customer, nil
}

// List returns the customers visible under the authorization decision
func (s *CustomerService) List(ctx context.Context, targets appaccess.ApprovedTargets, filter shared.Filter) ([]*party.Customer, error) {
	return appaccess.FilterList(ctx, targets,
		func(ctx context.Context) ([]*party.Customer, error) {
			return s.customerRepo.FindAll(ctx, filter)
		},
		func(ctx context.Context, subjects []string) ([]*party.Customer, error) {
			return s.customerRepo.FindBySubjects(ctx, subjects, filter)
		},
	)
}

// Update modifies a customer's contact information
func (s *CustomerService) Update(ctx context.Context, targets appaccess.ApprovedTargets, id uuid.UUID, req UpdateCustomerRequest) (*party.Customer, error) {
	customer, err := s.GetByID(ctx, targets, id)
	if err != nil {
		return nil, err
	}
	if err := customer.UpdateContact(req.Name, req.Email); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		s.logger.Error("failed to update customer", zap.Error(err))
		return nil, err
	}
	return customer, nil
}

// Delete removes a customer
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.customerRepo.Delete(ctx, id)
}
