package party

import (
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/shared"
)

// Customer represents a billable account holder. The Subject field carries
// the opaque identity string (an ORCID-style URI or a distinguished name)
// used throughout authorization.
type Customer struct {
	shared.BaseAggregateRoot
	Subject  string
	Name     string
	Email    string
	IsActive bool
}

// NewCustomer creates a new customer for a subject
func NewCustomer(subject, name, email string) (*Customer, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Subject:           subject,
		Name:              name,
		Email:             email,
		IsActive:          true,
	}, nil
}

// UpdateContact updates the customer's contact information
func (c *Customer) UpdateContact(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	c.Name = name
	c.Email = email
	c.UpdatedAt = time.Now()
	return nil
}

// Deactivate deactivates the customer
func (c *Customer) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now()
}

// Activate activates the customer
func (c *Customer) Activate() {
	c.IsActive = true
	c.UpdatedAt = time.Now()
}
