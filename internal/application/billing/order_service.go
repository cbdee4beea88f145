package billing

import (
	"context"
	"fmt"
	"time"

	appaccess "github.com/billing/backend/internal/application/access"
	"github.com/billing/backend/internal/domain/access"
	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateOrderRequest contains input for creating an order
type CreateOrderRequest struct {
	ProductID uuid.UUID
	Remark    string
}

// OrderService orchestrates order operations
type OrderService struct {
	orderRepo   billing.OrderRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo billing.OrderRepository, productRepo catalog.ProductRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// Create places a new order for the caller's effective subject
func (s *OrderService) Create(ctx context.Context, caller access.Caller, req CreateOrderRequest) (*billing.Order, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Product is not available for sale")
	}

	order, err := billing.NewOrder(
		generateOrderNumber(),
		caller.EffectiveSubject(),
		product.ID,
		product.Price,
	)
	if err != nil {
		return nil, err
	}
	order.Remark = req.Remark

	if err := s.orderRepo.Save(ctx, order); err != nil {
		s.logger.Error("failed to save order", zap.Error(err))
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("subject", order.Subject))
	return order, nil
}

// GetByID returns an order the caller is allowed to see
func (s *OrderService) GetByID(ctx context.Context, targets appaccess.ApprovedTargets, id uuid.UUID) (*billing.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !targets.Unfiltered && !targets.Subjects.Contains(order.Subject) {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

// List returns the orders visible under the authorization decision
func (s *OrderService) List(ctx context.Context, targets appaccess.ApprovedTargets, filter shared.Filter) ([]*billing.Order, error) {
	return appaccess.FilterList(ctx, targets,
		func(ctx context.Context) ([]*billing.Order, error) {
			return s.orderRepo.FindAll(ctx, filter)
		},
		func(ctx context.Context, subjects []string) ([]*billing.Order, error) {
			return s.orderRepo.FindBySubjects(ctx, subjects, filter)
		},
	)
}

// Cancel cancels an order visible to the caller
func (s *OrderService) Cancel(ctx context.Context, targets appaccess.ApprovedTargets, id uuid.UUID, reason string) (*billing.Order, error) {
	order, err := s.GetByID(ctx, targets, id)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		s.logger.Error("failed to cancel order", zap.Error(err))
		return nil, err
	}
	return order, nil
}

// generateOrderNumber builds a unique, human-readable order number
func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%s",
		time.Now().UTC().Format("20060102"),
		uuid.New().String()[:8])
}
