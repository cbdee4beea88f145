package access

import (
	"context"

	"github.com/billing/backend/internal/domain/shared"
)

// FilterList shapes a collection query with an authorization decision.
// The unfiltered sentinel runs the unrestricted list query; a concrete
// target set runs the subject-restricted query.
//
// An empty result from a restricted query is reported as NotFound. The
// caller may simply lack visibility, so the signal is identical whether
// the records are absent or merely inaccessible.
func FilterList[T any](
	ctx context.Context,
	targets ApprovedTargets,
	listAll func(ctx context.Context) ([]T, error),
	findBySubjects func(ctx context.Context, subjects []string) ([]T, error),
) ([]T, error) {
	if targets.Unfiltered {
		return listAll(ctx)
	}

	items, err := findBySubjects(ctx, targets.Subjects.Subjects())
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, shared.ErrNotFound
	}
	return items, nil
}
