package billing

import (
	"context"

	appaccess "github.com/billing/backend/internal/application/access"
	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordUsageRequest contains input for recording usage
type RecordUsageRequest struct {
	MembershipID uuid.UUID
	QuotaType    string
	Amount       int64
	Description  string
}

// UsageService records usage events and accumulates them onto the
// membership's quota records
type UsageService struct {
	usageRepo      billing.UsageRecordRepository
	quotaRepo      billing.QuotaRecordRepository
	membershipRepo billing.MembershipRepository
	logger         *zap.Logger
}

// NewUsageService creates a new UsageService
func NewUsageService(
	usageRepo billing.UsageRecordRepository,
	quotaRepo billing.QuotaRecordRepository,
	membershipRepo billing.MembershipRepository,
	logger *zap.Logger,
) *UsageService {
	return &UsageService{
		usageRepo:      usageRepo,
		quotaRepo:      quotaRepo,
		membershipRepo: membershipRepo,
		logger:         logger,
	}
}

// Record persists a usage event and accumulates it onto the matching
// quota record. Usage beyond the hard limit is rejected.
func (s *UsageService) Record(ctx context.Context, targets appaccess.ApprovedTargets, req RecordUsageRequest) (*billing.UsageRecord, error) {
	membership, err := s.membershipRepo.FindByID(ctx, req.MembershipID)
	if err != nil {
		return nil, err
	}
	if !targets.Unfiltered && !targets.Subjects.Contains(membership.Subject) {
		return nil, shared.ErrNotFound
	}
	if !membership.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Membership is not active")
	}

	quota, err := s.quotaRepo.FindByMembershipAndType(ctx, membership.ID, req.QuotaType)
	if err != nil {
		return nil, err
	}
	if quota.Remaining() < req.Amount {
		return nil, shared.NewDomainError("QUOTA_EXCEEDED", "Usage would exceed the hard limit")
	}

	record, err := billing.NewUsageRecord(membership.ID, membership.Subject, req.QuotaType, req.Amount, req.Description)
	if err != nil {
		return nil, err
	}
	if err := quota.AddUsage(req.Amount); err != nil {
		return nil, err
	}

	// The quota accumulation goes first: a usage row without the matching
	// quota increment would undercount consumption on retry.
	if err := s.quotaRepo.Update(ctx, quota); err != nil {
		s.logger.Error("failed to update quota usage", zap.Error(err))
		return nil, err
	}
	if err := s.usageRepo.Save(ctx, record); err != nil {
		s.logger.Error("failed to save usage record", zap.Error(err))
		return nil, err
	}

	if quota.IsSoftExceeded() {
		s.logger.Warn("soft quota limit reached",
			zap.String("membership_id", membership.ID.String()),
			zap.String("quota_type", quota.QuotaType),
			zap.Int64("used", quota.Used),
			zap.Int64("soft_limit", quota.SoftLimit))
	}
	return record, nil
}

// List returns the usage records visible under the authorization decision
func (s *UsageService) List(ctx context.Context, targets appaccess.ApprovedTargets, filter shared.Filter) ([]*billing.UsageRecord, error) {
	return appaccess.FilterList(ctx, targets,
		func(ctx context.Context) ([]*billing.UsageRecord, error) {
			return s.usageRepo.FindAll(ctx, filter)
		},
		func(ctx context.Context, subjects []string) ([]*billing.UsageRecord, error) {
			return s.usageRepo.FindBySubjects(ctx, subjects, filter)
		},
	)
}
