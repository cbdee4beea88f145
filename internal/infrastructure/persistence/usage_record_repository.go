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

// GormUsageRecordRepository implements UsageRecordRepository using GORM
type GormUsageRecordRepository struct {
	db *gorm.DB
}

var _ billing.UsageRecordRepository = (*GormUsageRecordRepository)(nil)

// NewGormUsageRecordRepository creates a new GormUsageRecordRepository
func NewGormUsageRecordRepository(db *gorm.DB) *GormUsageRecordRepository {
	return &GormUsageRecordRepository{db: db}
}

// Save creates a usage record
func (r *GormUsageRecordRepository) Save(ctx context.Context, record *billing.UsageRecord) error {
	model := models.UsageRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a usage record by its ID
func (r *GormUsageRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.UsageRecord, error) {
	var model models.UsageRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMembership finds usage records for a membership
func (r *GormUsageRecordRepository) FindByMembership(ctx context.Context, membershipID uuid.UUID, filter shared.Filter) ([]*billing.UsageRecord, error) {
	var recordModels []models.UsageRecordModel
	query := applyFilter(
		r.db.WithContext(ctx).Model(&models.UsageRecordModel{}).
			Where("membership_id = ?", membershipID),
		filter,
	)
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return usageRecordsToDomain(recordModels), nil
}

// FindBySubjects finds usage records whose subject is in the given set
func (r *GormUsageRecordRepository) FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*billing.UsageRecord, error) {
	if len(subjects) == 0 {
		return []*billing.UsageRecord{}, nil
	}

	var recordModels []models.UsageRecordModel
	query := applyFilter(
		r.db.WithContext(ctx).Model(&models.UsageRecordModel{}).
			Where("subject IN ?", subjects),
		filter,
	)
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return usageRecordsToDomain(recordModels), nil
}

// FindAll finds all usage records matching the filter
func (r *GormUsageRecordRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.UsageRecord, error) {
	var recordModels []models.UsageRecordModel
	query := applyFilter(r.db.WithContext(ctx).Model(&models.UsageRecordModel{}), filter)
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return usageRecordsToDomain(recordModels), nil
}

// SumByMembershipAndType sums recorded usage for a membership and quota type
func (r *GormUsageRecordRepository) SumByMembershipAndType(ctx context.Context, membershipID uuid.UUID, quotaType string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.UsageRecordModel{}).
		Where("membership_id = ? AND quota_type = ?", membershipID, quotaType).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func usageRecordsToDomain(recordModels []models.UsageRecordModel) []*billing.UsageRecord {
	records := make([]*billing.UsageRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records
}
