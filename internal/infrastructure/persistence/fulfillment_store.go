package persistence

import (
	"context"
	"errors"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFulfillmentStore implements FulfillmentStore using GORM. The order
// row is locked FOR UPDATE for the duration of the transaction, so two
// concurrent fulfillment attempts for the same order serialize and the
// second one sees the advanced status.
type GormFulfillmentStore struct {
	db *gorm.DB
}

var _ billing.FulfillmentStore = (*GormFulfillmentStore)(nil)

// NewGormFulfillmentStore creates a new GormFulfillmentStore
func NewGormFulfillmentStore(db *gorm.DB) *GormFulfillmentStore {
	return &GormFulfillmentStore{db: db}
}

// ExecuteFulfillment loads the order under a row lock, runs apply, and
// persists the advanced order together with the membership and quota
// records it produced. Any error rolls back everything.
func (s *GormFulfillmentStore) ExecuteFulfillment(
	ctx context.Context,
	orderID uuid.UUID,
	apply func(order *billing.Order) (*billing.Membership, []*billing.QuotaRecord, error),
) (*billing.Order, error) {
	var order *billing.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orderModel models.OrderModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&orderModel, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		order = orderModel.ToDomain()
		membership, quotas, err := apply(order)
		if err != nil {
			return err
		}

		orderModel.FromDomain(order)
		if err := tx.Save(&orderModel).Error; err != nil {
			return err
		}

		if membership != nil {
			membershipModel := models.MembershipModelFromDomain(membership)
			if err := tx.Create(membershipModel).Error; err != nil {
				return err
			}
		}

		for _, quota := range quotas {
			quotaModel := models.QuotaRecordModelFromDomain(quota)
			if err := tx.Create(quotaModel).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
