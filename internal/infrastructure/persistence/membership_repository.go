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

// GormMembershipRepository implements MembershipRepository using GORM
type GormMembershipRepository struct {
	db *gorm.DB
}

var _ billing.MembershipRepository = (*GormMembershipRepository)(nil)

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Save creates a membership
func (r *GormMembershipRepository) Save(ctx context.Context, membership *billing.Membership) error {
	model := models.MembershipModelFromDomain(membership)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates a membership
func (r *GormMembershipRepository) Update(ctx context.Context, membership *billing.Membership) error {
	model := models.MembershipModelFromDomain(membership)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a membership by its ID
func (r *GormMembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Membership, error) {
	var model models.MembershipModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderID finds the membership created for an order
func (r *GormMembershipRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*billing.Membership, error) {
	var model models.MembershipModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySubjects finds memberships whose subject is in the given set
func (r *GormMembershipRepository) FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*billing.Membership, error) {
	if len(subjects) == 0 {
		return []*billing.Membership{}, nil
	}

	var membershipModels []models.MembershipModel
	query := applyFilter(
		r.db.WithContext(ctx).Model(&models.MembershipModel{}).
			Where("subject IN ?", subjects),
		filter,
	)
	if err := query.Find(&membershipModels).Error; err != nil {
		return nil, err
	}
	return membershipsToDomain(membershipModels), nil
}

// FindAll finds all memberships matching the filter
func (r *GormMembershipRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.Membership, error) {
	var membershipModels []models.MembershipModel
	query := applyFilter(r.db.WithContext(ctx).Model(&models.MembershipModel{}), filter)
	if err := query.Find(&membershipModels).Error; err != nil {
		return nil, err
	}
	return membershipsToDomain(membershipModels), nil
}

// CountBySubjects counts memberships whose subject is in the given set
func (r *GormMembershipRepository) CountBySubjects(ctx context.Context, subjects []string) (int64, error) {
	if len(subjects) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MembershipModel{}).
		Where("subject IN ?", subjects).
		Count(&count).Error
	return count, err
}

// Count returns the number of memberships
func (r *GormMembershipRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MembershipModel{}).Count(&count).Error
	return count, err
}

func membershipsToDomain(membershipModels []models.MembershipModel) []*billing.Membership {
	memberships := make([]*billing.Membership, len(membershipModels))
	for i := range membershipModels {
		memberships[i] = membershipModels[i].ToDomain()
	}
	return memberships
}
