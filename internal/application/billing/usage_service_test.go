package billing

import (
	"context"
	"testing"

	appaccess "github.com/billing/backend/internal/application/access"
	"github.com/billing/backend/internal/domain/access"
	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockMembershipRepository is a mock implementation of billing.MembershipRepository
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Save(ctx context.Context, membership *billing.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) Update(ctx context.Context, membership *billing.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Membership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Membership), args.Error(1)
}

func (m *MockMembershipRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*billing.Membership, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Membership), args.Error(1)
}

func (m *MockMembershipRepository) FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*billing.Membership, error) {
	args := m.Called(ctx, subjects, filter)
	return args.Get(0).([]*billing.Membership), args.Error(1)
}

func (m *MockMembershipRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.Membership, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.Membership), args.Error(1)
}

func (m *MockMembershipRepository) FindWithQuotasBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*billing.MembershipWithQuotas, error) {
	args := m.Called(ctx, subjects, filter)
	return args.Get(0).([]*billing.MembershipWithQuotas), args.Error(1)
}

func (m *MockMembershipRepository) FindAllWithQuotas(ctx context.Context, filter shared.Filter) ([]*billing.MembershipWithQuotas, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.MembershipWithQuotas), args.Error(1)
}

func (m *MockMembershipRepository) CountBySubjects(ctx context.Context, subjects []string) (int64, error) {
	args := m.Called(ctx, subjects)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMembershipRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockQuotaRecordRepository is a mock implementation of billing.QuotaRecordRepository
type MockQuotaRecordRepository struct {
	mock.Mock
}

func (m *MockQuotaRecordRepository) Save(ctx context.Context, record *billing.QuotaRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockQuotaRecordRepository) Update(ctx context.Context, record *billing.QuotaRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockQuotaRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.QuotaRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.QuotaRecord), args.Error(1)
}

func (m *MockQuotaRecordRepository) FindByMembership(ctx context.Context, membershipID uuid.UUID) ([]*billing.QuotaRecord, error) {
	args := m.Called(ctx, membershipID)
	return args.Get(0).([]*billing.QuotaRecord), args.Error(1)
}

func (m *MockQuotaRecordRepository) FindByMembershipAndType(ctx context.Context, membershipID uuid.UUID, quotaType string) (*billing.QuotaRecord, error) {
	args := m.Called(ctx, membershipID, quotaType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.QuotaRecord), args.Error(1)
}

func (m *MockQuotaRecordRepository) FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*billing.QuotaRecord, error) {
	args := m.Called(ctx, subjects, filter)
	return args.Get(0).([]*billing.QuotaRecord), args.Error(1)
}

func (m *MockQuotaRecordRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.QuotaRecord, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.QuotaRecord), args.Error(1)
}

func (m *MockQuotaRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUsageRecordRepository is a mock implementation of billing.UsageRecordRepository
type MockUsageRecordRepository struct {
	mock.Mock
}

func (m *MockUsageRecordRepository) Save(ctx context.Context, record *billing.UsageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockUsageRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.UsageRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.UsageRecord), args.Error(1)
}

func (m *MockUsageRecordRepository) FindByMembership(ctx context.Context, membershipID uuid.UUID, filter shared.Filter) ([]*billing.UsageRecord, error) {
	args := m.Called(ctx, membershipID, filter)
	return args.Get(0).([]*billing.UsageRecord), args.Error(1)
}

func (m *MockUsageRecordRepository) FindBySubjects(ctx context.Context, subjects []string, filter shared.Filter) ([]*billing.UsageRecord, error) {
	args := m.Called(ctx, subjects, filter)
	return args.Get(0).([]*billing.UsageRecord), args.Error(1)
}

func (m *MockUsageRecordRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.UsageRecord, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.UsageRecord), args.Error(1)
}

func (m *MockUsageRecordRepository) SumByMembershipAndType(ctx context.Context, membershipID uuid.UUID, quotaType string) (int64, error) {
	args := m.Called(ctx, membershipID, quotaType)
	return args.Get(0).(int64), args.Error(1)
}

type usageFixture struct {
	service        *UsageService
	usageRepo      *MockUsageRecordRepository
	quotaRepo      *MockQuotaRecordRepository
	membershipRepo *MockMembershipRepository
	membership     *billing.Membership
	quota          *billing.QuotaRecord
}

func newUsageFixture(t *testing.T) *usageFixture {
	t.Helper()

	membership, err := billing.NewMembership("alice", uuid.New(), uuid.New())
	require.NoError(t, err)
	quota, err := billing.NewQuotaRecord(membership.ID, "alice", "storage", "GB", 10, 20)
	require.NoError(t, err)

	usageRepo := new(MockUsageRecordRepository)
	quotaRepo := new(MockQuotaRecordRepository)
	membershipRepo := new(MockMembershipRepository)

	return &usageFixture{
		service:        NewUsageService(usageRepo, quotaRepo, membershipRepo, zap.NewNop()),
		usageRepo:      usageRepo,
		quotaRepo:      quotaRepo,
		membershipRepo: membershipRepo,
		membership:     membership,
		quota:          quota,
	}
}

func ownTargets(subjects ...string) appaccess.ApprovedTargets {
	return appaccess.ApprovedTargets{Subjects: access.NewSubjectSet(subjects...)}
}

func TestUsageService_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("records usage and accumulates onto the quota", func(t *testing.T) {
		f := newUsageFixture(t)
		f.membershipRepo.On("FindByID", mock.Anything, f.membership.ID).Return(f.membership, nil)
		f.quotaRepo.On("FindByMembershipAndType", mock.Anything, f.membership.ID, "storage").Return(f.quota, nil)
		f.usageRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.UsageRecord")).Return(nil)
		f.quotaRepo.On("Update", mock.Anything, f.quota).Return(nil)

		record, err := f.service.Record(ctx, ownTargets("alice"), RecordUsageRequest{
			MembershipID: f.membership.ID,
			QuotaType:    "storage",
			Amount:       7,
			Description:  "report export",
		})
		require.NoError(t, err)

		assert.Equal(t, "alice", record.Subject)
		assert.Equal(t, int64(7), record.Amount)
		assert.Equal(t, int64(7), f.quota.Used)
		f.usageRepo.AssertExpectations(t)
		f.quotaRepo.AssertExpectations(t)
	})

	t.Run("usage beyond the hard limit is rejected before persisting", func(t *testing.T) {
		f := newUsageFixture(t)
		f.membershipRepo.On("FindByID", mock.Anything, f.membership.ID).Return(f.membership, nil)
		f.quotaRepo.On("FindByMembershipAndType", mock.Anything, f.membership.ID, "storage").Return(f.quota, nil)

		_, err := f.service.Record(ctx, ownTargets("alice"), RecordUsageRequest{
			MembershipID: f.membership.ID,
			QuotaType:    "storage",
			Amount:       21,
		})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "QUOTA_EXCEEDED", domainErr.Code)
		assert.Equal(t, int64(0), f.quota.Used)
		f.usageRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("usage row is not written when the quota update fails", func(t *testing.T) {
		f := newUsageFixture(t)
		f.membershipRepo.On("FindByID", mock.Anything, f.membership.ID).Return(f.membership, nil)
		f.quotaRepo.On("FindByMembershipAndType", mock.Anything, f.membership.ID, "storage").Return(f.quota, nil)
		f.quotaRepo.On("Update", mock.Anything, f.quota).Return(shared.NewDomainError("CONCURRENCY_CONFLICT", "stale quota"))

		_, err := f.service.Record(ctx, ownTargets("alice"), RecordUsageRequest{
			MembershipID: f.membership.ID,
			QuotaType:    "storage",
			Amount:       3,
		})
		require.Error(t, err)
		f.usageRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("membership outside the approved subjects reads as not found", func(t *testing.T) {
		f := newUsageFixture(t)
		f.membershipRepo.On("FindByID", mock.Anything, f.membership.ID).Return(f.membership, nil)

		_, err := f.service.Record(ctx, ownTargets("bob"), RecordUsageRequest{
			MembershipID: f.membership.ID,
			QuotaType:    "storage",
			Amount:       1,
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.quotaRepo.AssertNotCalled(t, "FindByMembershipAndType", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unfiltered caller is not subject-checked", func(t *testing.T) {
		f := newUsageFixture(t)
		f.membershipRepo.On("FindByID", mock.Anything, f.membership.ID).Return(f.membership, nil)
		f.quotaRepo.On("FindByMembershipAndType", mock.Anything, f.membership.ID, "storage").Return(f.quota, nil)
		f.usageRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.UsageRecord")).Return(nil)
		f.quotaRepo.On("Update", mock.Anything, f.quota).Return(nil)

		_, err := f.service.Record(ctx, appaccess.ApprovedTargets{Unfiltered: true}, RecordUsageRequest{
			MembershipID: f.membership.ID,
			QuotaType:    "storage",
			Amount:       1,
		})
		assert.NoError(t, err)
	})

	t.Run("canceled membership rejects new usage", func(t *testing.T) {
		f := newUsageFixture(t)
		require.NoError(t, f.membership.Cancel())
		f.membershipRepo.On("FindByID", mock.Anything, f.membership.ID).Return(f.membership, nil)

		_, err := f.service.Record(ctx, ownTargets("alice"), RecordUsageRequest{
			MembershipID: f.membership.ID,
			QuotaType:    "storage",
			Amount:       1,
		})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})

	t.Run("unknown quota type surfaces the repository error", func(t *testing.T) {
		f := newUsageFixture(t)
		f.membershipRepo.On("FindByID", mock.Anything, f.membership.ID).Return(f.membership, nil)
		f.quotaRepo.On("FindByMembershipAndType", mock.Anything, f.membership.ID, "compute").Return(nil, shared.ErrNotFound)

		_, err := f.service.Record(ctx, ownTargets("alice"), RecordUsageRequest{
			MembershipID: f.membership.ID,
			QuotaType:    "compute",
			Amount:       1,
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestUsageService_List(t *testing.T) {
	ctx := context.Background()
	filter := shared.Filter{PageSize: 10}

	t.Run("restricted list queries by approved subjects", func(t *testing.T) {
		f := newUsageFixture(t)
		record, err := billing.NewUsageRecord(f.membership.ID, "alice", "storage", 1, "")
		require.NoError(t, err)
		f.usageRepo.On("FindBySubjects", mock.Anything, []string{"alice"}, filter).
			Return([]*billing.UsageRecord{record}, nil)

		records, err := f.service.List(ctx, ownTargets("alice"), filter)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		f.usageRepo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
	})

	t.Run("unfiltered list queries everything", func(t *testing.T) {
		f := newUsageFixture(t)
		record, err := billing.NewUsageRecord(f.membership.ID, "alice", "storage", 1, "")
		require.NoError(t, err)
		f.usageRepo.On("FindAll", mock.Anything, filter).
			Return([]*billing.UsageRecord{record}, nil)

		records, err := f.service.List(ctx, appaccess.ApprovedTargets{Unfiltered: true}, filter)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})
}
