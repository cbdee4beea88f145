package billing

import (
	"context"

	appaccess "github.com/billing/backend/internal/application/access"
	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MembershipService orchestrates membership queries and lifecycle
type MembershipService struct {
	membershipRepo billing.MembershipRepository
	quotaRepo      billing.QuotaRecordRepository
	logger         *zap.Logger
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(
	membershipRepo billing.MembershipRepository,
	quotaRepo billing.QuotaRecordRepository,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		membershipRepo: membershipRepo,
		quotaRepo:      quotaRepo,
		logger:         logger,
	}
}

// GetByID returns a membership the caller is allowed to see
func (s *MembershipService) GetByID(ctx context.Context, targets appaccess.ApprovedTargets, id uuid.UUID) (*billing.Membership, error) {
	membership, err := s.membershipRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !targets.Unfiltered && !targets.Subjects.Contains(membership.Subject) {
		return nil, shared.ErrNotFound
	}
	return membership, nil
}

// List returns the memberships visible under the authorization decision
func (s *MembershipService) List(ctx context.Context, targets appaccess.ApprovedTargets, filter shared.Filter) ([]*billing.Membership, error) {
	return appaccess.FilterList(ctx, targets,
		func(ctx context.Context) ([]*billing.Membership, error) {
			return s.membershipRepo.FindAll(ctx, filter)
		},
		func(ctx context.Context, subjects []string) ([]*billing.Membership, error) {
			return s.membershipRepo.FindBySubjects(ctx, subjects, filter)
		},
	)
}

// ListWithQuotas returns the visible memberships with their quota records
// attached, assembled from a single joined read per page
func (s *MembershipService) ListWithQuotas(ctx context.Context, targets appaccess.ApprovedTargets, filter shared.Filter) ([]*billing.MembershipWithQuotas, error) {
	return appaccess.FilterList(ctx, targets,
		func(ctx context.Context) ([]*billing.MembershipWithQuotas, error) {
			return s.membershipRepo.FindAllWithQuotas(ctx, filter)
		},
		func(ctx context.Context, subjects []string) ([]*billing.MembershipWithQuotas, error) {
			return s.membershipRepo.FindWithQuotasBySubjects(ctx, subjects, filter)
		},
	)
}

// GetQuotas returns the quota records of a membership visible to the caller
func (s *MembershipService) GetQuotas(ctx context.Context, targets appaccess.ApprovedTargets, id uuid.UUID) ([]*billing.QuotaRecord, error) {
	membership, err := s.GetByID(ctx, targets, id)
	if err != nil {
		return nil, err
	}
	return s.quotaRepo.FindByMembership(ctx, membership.ID)
}

// Cancel cancels a membership visible to the caller
func (s *MembershipService) Cancel(ctx context.Context, targets appaccess.ApprovedTargets, id uuid.UUID) (*billing.Membership, error) {
	membership, err := s.GetByID(ctx, targets, id)
	if err != nil {
		return nil, err
	}
	if err := membership.Cancel(); err != nil {
		return nil, err
	}
	if err := s.membershipRepo.Update(ctx, membership); err != nil {
		s.logger.Error("failed to cancel membership", zap.Error(err))
		return nil, err
	}
	return membership, nil
}
