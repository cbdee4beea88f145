package billing

import (
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UsageRecord is a single usage event recorded against a membership's
// quota of a given type
type UsageRecord struct {
	shared.BaseAggregateRoot
	MembershipID uuid.UUID
	Subject      string
	QuotaType    string
	Amount       int64
	Description  string
	RecordedAt   time.Time
}

// NewUsageRecord creates a usage record
func NewUsageRecord(membershipID uuid.UUID, subject, quotaType string, amount int64, description string) (*UsageRecord, error) {
	if membershipID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBERSHIP", "Membership ID cannot be empty")
	}
	if strings.TrimSpace(subject) == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Usage subject cannot be empty")
	}
	if strings.TrimSpace(quotaType) == "" {
		return nil, shared.NewDomainError("INVALID_QUOTA_TYPE", "Quota type cannot be empty")
	}
	if amount <= 0 {
		return nil, shared.NewDomainError("INVALID_USAGE", "Usage amount must be positive")
	}

	return &UsageRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MembershipID:      membershipID,
		Subject:           subject,
		QuotaType:         quotaType,
		Amount:            amount,
		Description:       description,
		RecordedAt:        time.Now(),
	}, nil
}
