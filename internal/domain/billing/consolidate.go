package billing

import (
	"fmt"

	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ConsolidateQuotas folds the quota declarations of a product's features
// into one quota record per quota type, owned by the given membership and
// subject.
//
// Features are walked in catalog-declared order. The first declaration of
// a type establishes the record; each further declaration of the same type
// replaces it with a new record whose soft and hard limits are the
// accumulated sums. Result order is first-seen order of the quota types.
// A repeated type with a different unit is an input-data error and aborts
// the whole consolidation.
func ConsolidateQuotas(membershipID uuid.UUID, subject string, features []catalog.Feature) ([]*QuotaRecord, error) {
	merged := make(map[string]*QuotaRecord)
	types := make([]string, 0, len(features))

	for _, feature := range features {
		declaration := feature.Quota
		if declaration == nil {
			continue
		}

		existing, ok := merged[declaration.QuotaType]
		if !ok {
			record, err := NewQuotaRecord(
				membershipID,
				subject,
				declaration.QuotaType,
				declaration.Unit,
				declaration.SoftLimit,
				declaration.HardLimit,
			)
			if err != nil {
				return nil, err
			}
			merged[declaration.QuotaType] = record
			types = append(types, declaration.QuotaType)
			continue
		}

		if existing.Unit != declaration.Unit {
			return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf(
				"Conflicting units for quota type %q: %s vs %s",
				declaration.QuotaType, existing.Unit, declaration.Unit))
		}

		record, err := NewQuotaRecord(
			membershipID,
			subject,
			declaration.QuotaType,
			declaration.Unit,
			existing.SoftLimit+declaration.SoftLimit,
			existing.HardLimit+declaration.HardLimit,
		)
		if err != nil {
			return nil, err
		}
		merged[declaration.QuotaType] = record
	}

	records := make([]*QuotaRecord, 0, len(types))
	for _, quotaType := range types {
		records = append(records, merged[quotaType])
	}
	return records, nil
}
