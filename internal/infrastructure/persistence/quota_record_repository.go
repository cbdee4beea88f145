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

// GormQuotaRecordRepository implements QuotaRecordRepository using GORM
type GormQuotaRecordRepository struct {
	db *gorm.DB
}

var _ billing.QuotaRecordRepository = (*GormQuotaRecordRepository)(nil)

// NewGormQuotaRecordRepository creates a new GormQuotaRecordRepository
func NewGormQuotaRecordRepository(db *gorm.DB) *GormQuotaRecordRepository {
	return &GormQuotaRecordRepository{db: db}
}

// Save creates a quota record
func (r *GormQuotaRecordRepository) Save(ctx context.Context, record *billing.QuotaRecord) error {
	model := models.QuotaRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates a quota record
func (r *GormQuotaRecordRepository) Update(ctx context.Context, record *billing.QuotaRecord) error {
	model := models.QuotaRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a quota record by its ID
func (r *GormQuotaRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.QuotaRecord, error) {
	var model models.QuotaRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMembership finds all quota records for a membership
func (r *GormQuotaRecordRepository) FindByMembership(ctx context.Context, membershipID uuid.UUID) ([]*billing.QuotaRecord, error) {
	var recordModels []models.QuotaRecordModel
	if err := r.db.WithContext(ctx).
		Where("membership_id = ?", membershipID).
		Order("created_at ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return quotaRecordsToDomain(recordModels), nil
}

// FindByMembershipAndType finds the single quota record of a membership
// for a quota type
func (r *GormQuotaRecordRepository) FindByMembershipAndType(ctx context.Context, membershipID uuid.UUID, quotaType string) (*billing.QuotaRecord, error) {
	var model models.QuotaRecordModel
	if err := r.db.WithContext(ctx).
		Where("membership_id = ? AND quota_type = ?", membershipID, quotaType).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySubjects finds quota records whose subject is in the given set
func (r *GormQuotaRecordRepository) FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*billing.QuotaRecord, error) {
	if len(subjects) == 0 {
		return []*billing.QuotaRecord{}, nil
	}

	var recordModels []models.QuotaRecordModel
	query := applyFilter(
		r.db.WithContext(ctx).Model(&models.QuotaRecordModel{}).
			Where("subject IN ?", subjects),
		filter,
	)
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return quotaRecordsToDomain(recordModels), nil
}

// FindAll finds all quota records matching the filter
func (r *GormQuotaRecordRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.QuotaRecord, error) {
	var recordModels []models.QuotaRecordModel
	query := applyFilter(r.db.WithContext(ctx).Model(&models.QuotaRecordModel{}), filter)
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return quotaRecordsToDomain(recordModels), nil
}

// Delete removes a quota record by ID
func (r *GormQuotaRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.QuotaRecordModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func quotaRecordsToDomain(recordModels []models.QuotaRecordModel) []*billing.QuotaRecord {
	records := make([]*billing.QuotaRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records
}
