package persistence

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// membershipQuotaColumns selects one flat row per (membership, quota
// record) pair. Quota columns are aliased so they land next to the
// membership columns they belong to.
const membershipQuotaColumns = `memberships.id AS membership_id, memberships.subject, memberships.product_id,
memberships.order_id, memberships.status, memberships.started_at, memberships.trial_ends_at,
memberships.created_at, memberships.updated_at, memberships.version,
quota_records.id AS quota_id, quota_records.object_type, quota_records.quota_type,
quota_records.soft_limit, quota_records.hard_limit, quota_records.used, quota_records.unit,
quota_records.created_at AS quota_created_at, quota_records.updated_at AS quota_updated_at,
quota_records.version AS quota_version`

// membershipQuotaRow is one row of the memberships-to-quota-records LEFT
// JOIN. The quota columns are pointers because a membership without quota
// records joins against NULLs.
type membershipQuotaRow struct {
	MembershipID uuid.UUID                `gorm:"column:membership_id"`
	Subject      string                   `gorm:"column:subject"`
	ProductID    uuid.UUID                `gorm:"column:product_id"`
	OrderID      uuid.UUID                `gorm:"column:order_id"`
	Status       billing.MembershipStatus `gorm:"column:status"`
	StartedAt    time.Time                `gorm:"column:started_at"`
	TrialEndsAt  *time.Time               `gorm:"column:trial_ends_at"`
	CreatedAt    time.Time                `gorm:"column:created_at"`
	UpdatedAt    time.Time                `gorm:"column:updated_at"`
	Version      int                      `gorm:"column:version"`

	QuotaID        *uuid.UUID `gorm:"column:quota_id"`
	ObjectType     *string    `gorm:"column:object_type"`
	QuotaType      *string    `gorm:"column:quota_type"`
	SoftLimit      *int64     `gorm:"column:soft_limit"`
	HardLimit      *int64     `gorm:"column:hard_limit"`
	Used           *int64     `gorm:"column:used"`
	Unit           *string    `gorm:"column:unit"`
	QuotaCreatedAt *time.Time `gorm:"column:quota_created_at"`
	QuotaUpdatedAt *time.Time `gorm:"column:quota_updated_at"`
	QuotaVersion   *int       `gorm:"column:quota_version"`
}

func (r *membershipQuotaRow) membership() *billing.Membership {
	return &billing.Membership{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        r.MembershipID,
				CreatedAt: r.CreatedAt,
				UpdatedAt: r.UpdatedAt,
			},
			Version: r.Version,
		},
		Subject:     r.Subject,
		ProductID:   r.ProductID,
		OrderID:     r.OrderID,
		Status:      r.Status,
		StartedAt:   r.StartedAt,
		TrialEndsAt: r.TrialEndsAt,
	}
}

func (r *membershipQuotaRow) quota() *billing.QuotaRecord {
	if r.QuotaID == nil {
		return nil
	}
	quota := &billing.QuotaRecord{
		MembershipID: r.MembershipID,
		Subject:      r.Subject,
	}
	quota.ID = *r.QuotaID
	if r.ObjectType != nil {
		quota.ObjectType = *r.ObjectType
	}
	if r.QuotaType != nil {
		quota.QuotaType = *r.QuotaType
	}
	if r.SoftLimit != nil {
		quota.SoftLimit = *r.SoftLimit
	}
	if r.HardLimit != nil {
		quota.HardLimit = *r.HardLimit
	}
	if r.Used != nil {
		quota.Used = *r.Used
	}
	if r.Unit != nil {
		quota.Unit = *r.Unit
	}
	if r.QuotaCreatedAt != nil {
		quota.CreatedAt = *r.QuotaCreatedAt
	}
	if r.QuotaUpdatedAt != nil {
		quota.UpdatedAt = *r.QuotaUpdatedAt
	}
	if r.QuotaVersion != nil {
		quota.Version = *r.QuotaVersion
	}
	return quota
}

// FindWithQuotasBySubjects reads memberships in the subject set together
// with their quota records in one joined query
func (r *GormMembershipRepository) FindWithQuotasBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*billing.MembershipWithQuotas, error) {
	if len(subjects) == 0 {
		return []*billing.MembershipWithQuotas{}, nil
	}
	parents := applyFilter(
		r.db.WithContext(ctx).Model(&models.MembershipModel{}).
			Select("id").
			Where("subject IN ?", subjects),
		filter,
	)
	return r.findWithQuotas(ctx, parents)
}

// FindAllWithQuotas reads all memberships together with their quota
// records in one joined query
func (r *GormMembershipRepository) FindAllWithQuotas(ctx context.Context, filter shared.Filter) ([]*billing.MembershipWithQuotas, error) {
	parents := applyFilter(
		r.db.WithContext(ctx).Model(&models.MembershipModel{}).Select("id"),
		filter,
	)
	return r.findWithQuotas(ctx, parents)
}

// findWithQuotas runs the LEFT JOIN over the paginated parent set and
// folds the ordered rows back into one entry per membership. Pagination
// applies to the parent subquery, never to the joined rows.
func (r *GormMembershipRepository) findWithQuotas(ctx context.Context, parents *gorm.DB) ([]*billing.MembershipWithQuotas, error) {
	var rows []membershipQuotaRow
	err := r.db.WithContext(ctx).
		Table("memberships").
		Select(membershipQuotaColumns).
		Joins("LEFT JOIN quota_records ON quota_records.membership_id = memberships.id").
		Where("memberships.id IN (?)", parents).
		Order("memberships.created_at, memberships.id, quota_records.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return foldMembershipQuotaRows(rows), nil
}

// foldMembershipQuotaRows groups ordered join rows by membership id. Each
// membership appears once, in first-seen row order, with its quota records
// appended in the order they were read. A membership whose quota columns
// are all NULL keeps an empty quota slice.
func foldMembershipQuotaRows(rows []membershipQuotaRow) []*billing.MembershipWithQuotas {
	byMembership := make(map[uuid.UUID]*billing.MembershipWithQuotas, len(rows))
	result := make([]*billing.MembershipWithQuotas, 0, len(rows))

	for i := range rows {
		row := &rows[i]
		entry, ok := byMembership[row.MembershipID]
		if !ok {
			entry = &billing.MembershipWithQuotas{
				Membership: row.membership(),
				Quotas:     []*billing.QuotaRecord{},
			}
			byMembership[row.MembershipID] = entry
			result = append(result, entry)
		}
		if quota := row.quota(); quota != nil {
			entry.Quotas = append(entry.Quotas, quota)
		}
	}
	return result
}
