package persistence

import (
	"context"
	"errors"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

var _ billing.OrderRepository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save creates an order
func (r *GormOrderRepository) Save(ctx context.Context, order *billing.Order) error {
	model := models.OrderModelFromDomain(order)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates an order
func (r *GormOrderRepository) Update(ctx context.Context, order *billing.Order) error {
	model := models.OrderModelFromDomain(order)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber finds an order by its order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*billing.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySubjects finds orders whose subject is in the given set
func (r *GormOrderRepository) FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*billing.Order, error) {
	if len(subjects) == 0 {
		return []*billing.Order{}, nil
	}

	var orderModels []models.OrderModel
	query := applyFilter(
		r.db.WithContext(ctx).Model(&models.OrderModel{}).
			Where("subject IN ?", subjects),
		filter,
	)
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(orderModels), nil
}

// FindAll finds all orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.Order, error) {
	var orderModels []models.OrderModel
	query := applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(orderModels), nil
}

// CountBySubjects counts orders whose subject is in the given set
func (r *GormOrderRepository) CountBySubjects(ctx context.Context, subjects []string) (int64, error) {
	if len(subjects) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("subject IN ?", subjects).
		Count(&count).Error
	return count, err
}

// Count returns the number of orders
func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Count(&count).Error
	return count, err
}

func ordersToDomain(orderModels []models.OrderModel) []*billing.Order {
	orders := make([]*billing.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = orderModels[i].ToDomain()
	}
	return orders
}
