package party

import (
	"context"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository defines the persistence contract for customers
type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error
	Update(ctx context.Context, customer *Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindBySubject(ctx context.Context, subject string) (*Customer, error)
	// FindBySubjects returns customers whose subject is in the given set
	FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*Customer, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Customer, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
