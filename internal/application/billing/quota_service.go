package billing

import (
	"context"

	appaccess "github.com/billing/backend/internal/application/access"
	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdjustQuotaRequest contains input for adjusting quota limits
type AdjustQuotaRequest struct {
	SoftLimit int64
	HardLimit int64
}

// QuotaService orchestrates quota record queries and administration
type QuotaService struct {
	quotaRepo billing.QuotaRecordRepository
	logger    *zap.Logger
}

// NewQuotaService creates a new QuotaService
func NewQuotaService(quotaRepo billing.QuotaRecordRepository, logger *zap.Logger) *QuotaService {
	return &QuotaService{
		quotaRepo: quotaRepo,
		logger:    logger,
	}
}

// GetByID returns a quota record the caller is allowed to see
func (s *QuotaService) GetByID(ctx context.Context, targets appaccess.ApprovedTargets, id uuid.UUID) (*billing.QuotaRecord, error) {
	record, err := s.quotaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !targets.Unfiltered && !targets.Subjects.Contains(record.Subject) {
		return nil, shared.ErrNotFound
	}
	return record, nil
}

// List returns the quota records visible under the authorization decision
func (s *QuotaService) List(ctx context.Context, targets appaccess.ApprovedTargets, filter shared.Filter) ([]*billing.QuotaRecord, error) {
	return appaccess.FilterList(ctx, targets,
		func(ctx context.Context) ([]*billing.QuotaRecord, error) {
			return s.quotaRepo.FindAll(ctx, filter)
		},
		func(ctx context.Context, subjects []string) ([]*billing.QuotaRecord, error) {
			return s.quotaRepo.FindBySubjects(ctx, subjects, filter)
		},
	)
}

// AdjustLimits replaces a quota record's limits. Admin-only; the handler
// enforces the role before calling.
func (s *QuotaService) AdjustLimits(ctx context.Context, id uuid.UUID, req AdjustQuotaRequest) (*billing.QuotaRecord, error) {
	record, err := s.quotaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := record.SetLimits(req.SoftLimit, req.HardLimit); err != nil {
		return nil, err
	}
	if err := s.quotaRepo.Update(ctx, record); err != nil {
		s.logger.Error("failed to adjust quota limits", zap.Error(err))
		return nil, err
	}
	s.logger.Info("quota limits adjusted",
		zap.String("quota_id", record.ID.String()),
		zap.Int64("soft_limit", record.SoftLimit),
		zap.Int64("hard_limit", record.HardLimit))
	return record, nil
}
