package billing

import (
	"context"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository defines the persistence contract for orders
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	// FindBySubjects returns orders whose subject is in the given set
	FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Order, error)
	CountBySubjects(ctx context.Context, subjects []string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// FulfillmentStore executes the fulfillment transition atomically. The
// implementation reloads the order under a row lock, invokes apply while
// the lock is held, and persists the returned membership and quota records
// together with the advanced order in one transaction. A racing duplicate
// request observes the already-advanced status inside apply and fails the
// whole transaction, so the effect is at most once per order.
type FulfillmentStore interface {
	ExecuteFulfillment(
		ctx context.Context,
		orderID uuid.UUID,
		apply func(order *Order) (*Membership, []*QuotaRecord, error),
	) (*Order, error)
}

// MembershipWithQuotas pairs a membership with its quota records, as
// assembled from a single joined read.
type MembershipWithQuotas struct {
	Membership *Membership
	Quotas     []*QuotaRecord
}

// MembershipRepository defines the persistence contract for memberships.
// The WithQuotas variants read memberships and their quota records in one
// joined query and group the rows by membership.
type MembershipRepository interface {
	Save(ctx context.Context, membership *Membership) error
	Update(ctx context.Context, membership *Membership) error
	FindByID(ctx context.Context, id uuid.UUID) (*Membership, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Membership, error)
	FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*Membership, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Membership, error)
	FindWithQuotasBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*MembershipWithQuotas, error)
	FindAllWithQuotas(ctx context.Context, filter shared.Filter) ([]*MembershipWithQuotas, error)
	CountBySubjects(ctx context.Context, subjects []string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// QuotaRecordRepository defines the persistence contract for quota records
type QuotaRecordRepository interface {
	Save(ctx context.Context, record *QuotaRecord) error
	Update(ctx context.Context, record *QuotaRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*QuotaRecord, error)
	FindByMembership(ctx context.Context, membershipID uuid.UUID) ([]*QuotaRecord, error)
	FindByMembershipAndType(ctx context.Context, membershipID uuid.UUID, quotaType string) (*QuotaRecord, error)
	FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*QuotaRecord, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*QuotaRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UsageRecordRepository defines the persistence contract for usage records
type UsageRecordRepository interface {
	Save(ctx context.Context, record *UsageRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*UsageRecord, error)
	FindByMembership(ctx context.Context, membershipID uuid.UUID, filter shared.Filter) ([]*UsageRecord, error)
	FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*UsageRecord, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*UsageRecord, error)
	SumByMembershipAndType(ctx context.Context, membershipID uuid.UUID, quotaType string) (int64, error)
}
