package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuotaRecord(t *testing.T) *QuotaRecord {
	t.Helper()
	record, err := NewQuotaRecord(uuid.New(), "alice", "storage", "GB", 10, 20)
	require.NoError(t, err)
	return record
}

func TestNewQuotaRecord(t *testing.T) {
	t.Run("creates record with zero usage", func(t *testing.T) {
		record := newTestQuotaRecord(t)

		assert.Equal(t, QuotaObjectType, record.ObjectType)
		assert.Equal(t, int64(0), record.Used)
		assert.Equal(t, int64(20), record.Remaining())
	})

	t.Run("rejects nil membership", func(t *testing.T) {
		_, err := NewQuotaRecord(uuid.Nil, "alice", "storage", "GB", 1, 2)
		assert.Error(t, err)
	})

	t.Run("rejects empty quota type and unit", func(t *testing.T) {
		_, err := NewQuotaRecord(uuid.New(), "alice", "", "GB", 1, 2)
		assert.Error(t, err)

		_, err = NewQuotaRecord(uuid.New(), "alice", "storage", " ", 1, 2)
		assert.Error(t, err)
	})

	t.Run("rejects negative limits", func(t *testing.T) {
		_, err := NewQuotaRecord(uuid.New(), "alice", "storage", "GB", -1, 2)
		assert.Error(t, err)
	})
}

func TestQuotaRecord_AddUsage(t *testing.T) {
	t.Run("accumulates usage", func(t *testing.T) {
		record := newTestQuotaRecord(t)

		require.NoError(t, record.AddUsage(3))
		require.NoError(t, record.AddUsage(4))

		assert.Equal(t, int64(7), record.Used)
		assert.Equal(t, int64(13), record.Remaining())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		record := newTestQuotaRecord(t)

		assert.Error(t, record.AddUsage(0))
		assert.Error(t, record.AddUsage(-5))
	})
}

func TestQuotaRecord_Limits(t *testing.T) {
	t.Run("soft limit reached is reported but not blocking", func(t *testing.T) {
		record := newTestQuotaRecord(t)
		require.NoError(t, record.AddUsage(10))

		assert.True(t, record.IsSoftExceeded())
		assert.False(t, record.IsHardExceeded())
		assert.Equal(t, int64(10), record.Remaining())
	})

	t.Run("remaining never goes negative", func(t *testing.T) {
		record := newTestQuotaRecord(t)
		require.NoError(t, record.AddUsage(20))

		assert.True(t, record.IsHardExceeded())
		assert.Equal(t, int64(0), record.Remaining())
	})
}

func TestQuotaRecord_SetLimits(t *testing.T) {
	t.Run("replaces limits", func(t *testing.T) {
		record := newTestQuotaRecord(t)

		require.NoError(t, record.SetLimits(50, 100))

		assert.Equal(t, int64(50), record.SoftLimit)
		assert.Equal(t, int64(100), record.HardLimit)
	})

	t.Run("rejects soft limit above hard limit", func(t *testing.T) {
		record := newTestQuotaRecord(t)
		assert.Error(t, record.SetLimits(30, 20))
	})

	t.Run("rejects negative limits", func(t *testing.T) {
		record := newTestQuotaRecord(t)
		assert.Error(t, record.SetLimits(-1, 20))
	})
}
