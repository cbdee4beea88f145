package billing

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FulfillmentResult is the outcome of a successful fulfillment transition
type FulfillmentResult struct {
	Order      *billing.Order
	Membership *billing.Membership
	Quotas     []*billing.QuotaRecord
}

// FulfillmentServiceConfig contains configuration for FulfillmentService
type FulfillmentServiceConfig struct {
	TrialDuration time.Duration
}

// DefaultFulfillmentServiceConfig returns default configuration
func DefaultFulfillmentServiceConfig() FulfillmentServiceConfig {
	return FulfillmentServiceConfig{
		TrialDuration: 14 * 24 * time.Hour,
	}
}

// FulfillmentService drives the order fulfillment transition: on payment
// or trial confirmation it advances the order out of CREATED, creates the
// membership, and consolidates the product's feature quotas into quota
// records. The whole transition runs in one transaction and takes effect
// at most once per order.
type FulfillmentService struct {
	store         billing.FulfillmentStore
	productRepo   catalog.ProductRepository
	logger        *zap.Logger
	trialDuration time.Duration
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(
	store billing.FulfillmentStore,
	productRepo catalog.ProductRepository,
	logger *zap.Logger,
	config FulfillmentServiceConfig,
) *FulfillmentService {
	return &FulfillmentService{
		store:         store,
		productRepo:   productRepo,
		logger:        logger,
		trialDuration: config.TrialDuration,
	}
}

// ConfirmPayment fulfills an order after payment confirmation
func (s *FulfillmentService) ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*FulfillmentResult, error) {
	return s.fulfill(ctx, orderID, false)
}

// StartTrial fulfills an order as a trial
func (s *FulfillmentService) StartTrial(ctx context.Context, orderID uuid.UUID) (*FulfillmentResult, error) {
	return s.fulfill(ctx, orderID, true)
}

func (s *FulfillmentService) fulfill(ctx context.Context, orderID uuid.UUID, trial bool) (*FulfillmentResult, error) {
	result := &FulfillmentResult{}

	order, err := s.store.ExecuteFulfillment(ctx, orderID,
		func(order *billing.Order) (*billing.Membership, []*billing.QuotaRecord, error) {
			// The state machine guard. A racing duplicate request sees the
			// already-advanced status here, under the row lock, and the
			// whole transaction is rolled back.
			if !order.IsCreated() {
				return nil, nil, shared.NewDomainError("INVALID_STATE",
					"Order has already been processed")
			}

			product, err := s.productRepo.FindByID(ctx, order.ProductID)
			if err != nil {
				return nil, nil, err
			}

			var membership *billing.Membership
			if trial {
				trialEndsAt := time.Now().UTC().Add(s.trialDuration)
				if err := order.StartTrial(trialEndsAt); err != nil {
					return nil, nil, err
				}
				membership, err = billing.NewTrialMembership(order.Subject, product.ID, order.ID, trialEndsAt)
				if err != nil {
					return nil, nil, err
				}
			} else {
				if err := order.MarkPaid(); err != nil {
					return nil, nil, err
				}
				membership, err = billing.NewMembership(order.Subject, product.ID, order.ID)
				if err != nil {
					return nil, nil, err
				}
			}

			// A consolidation failure aborts the whole transition; partial
			// quota sets are never persisted.
			quotas, err := billing.ConsolidateQuotas(membership.ID, order.Subject, product.Features)
			if err != nil {
				return nil, nil, err
			}

			result.Membership = membership
			result.Quotas = quotas
			return membership, quotas, nil
		})
	if err != nil {
		return nil, err
	}

	result.Order = order
	s.logger.Info("order fulfilled",
		zap.String("order_id", order.ID.String()),
		zap.String("status", order.Status.String()),
		zap.String("membership_id", result.Membership.ID.String()),
		zap.Int("quota_records", len(result.Quotas)))
	return result, nil
}
