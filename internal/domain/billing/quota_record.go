package billing

import (
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// QuotaObjectType is the object-type tag stamped on every quota record
const QuotaObjectType = "quota"

// QuotaRecord is a consolidated, persisted quota owned by a membership and
// a subject. For a given (membership, quota type) pair at most one record
// exists; same-type declarations on a product's features are merged before
// persistence, never stored as duplicates.
type QuotaRecord struct {
	shared.BaseAggregateRoot
	ObjectType   string
	QuotaType    string
	SoftLimit    int64
	HardLimit    int64
	Used         int64
	Unit         string
	MembershipID uuid.UUID
	Subject      string
}

// NewQuotaRecord creates a quota record with zero accumulated usage
func NewQuotaRecord(membershipID uuid.UUID, subject, quotaType, unit string, softLimit, hardLimit int64) (*QuotaRecord, error) {
	if membershipID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBERSHIP", "Membership ID cannot be empty")
	}
	if strings.TrimSpace(subject) == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Quota subject cannot be empty")
	}
	if strings.TrimSpace(quotaType) == "" {
		return nil, shared.NewDomainError("INVALID_QUOTA_TYPE", "Quota type cannot be empty")
	}
	if strings.TrimSpace(unit) == "" {
		return nil, shared.NewDomainError("INVALID_QUOTA_UNIT", "Quota unit cannot be empty")
	}
	if softLimit < 0 || hardLimit < 0 {
		return nil, shared.NewDomainError("INVALID_QUOTA_LIMIT", "Quota limits cannot be negative")
	}

	return &QuotaRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ObjectType:        QuotaObjectType,
		QuotaType:         quotaType,
		SoftLimit:         softLimit,
		HardLimit:         hardLimit,
		Used:              0,
		Unit:              unit,
		MembershipID:      membershipID,
		Subject:           subject,
	}, nil
}

// AddUsage accumulates consumed usage onto the record
func (q *QuotaRecord) AddUsage(amount int64) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_USAGE", "Usage amount must be positive")
	}
	q.Used += amount
	q.UpdatedAt = time.Now()
	return nil
}

// SetLimits replaces the record's limits (quota administration)
func (q *QuotaRecord) SetLimits(softLimit, hardLimit int64) error {
	if softLimit < 0 || hardLimit < 0 {
		return shared.NewDomainError("INVALID_QUOTA_LIMIT", "Quota limits cannot be negative")
	}
	if softLimit > hardLimit {
		return shared.NewDomainError("INVALID_QUOTA_LIMIT", "Soft limit cannot exceed hard limit")
	}
	q.SoftLimit = softLimit
	q.HardLimit = hardLimit
	q.UpdatedAt = time.Now()
	return nil
}

// Remaining returns the usage still available under the hard limit
func (q *QuotaRecord) Remaining() int64 {
	remaining := q.HardLimit - q.Used
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsSoftExceeded reports whether accumulated usage reached the soft limit
func (q *QuotaRecord) IsSoftExceeded() bool {
	return q.Used >= q.SoftLimit
}

// IsHardExceeded reports whether accumulated usage reached the hard limit
func (q *QuotaRecord) IsHardExceeded() bool {
	return q.Used >= q.HardLimit
}
