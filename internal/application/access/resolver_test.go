package access

import (
	"context"
	"errors"
	"testing"

	"github.com/billing/backend/internal/domain/access"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubDirectory returns a fixed association set per subject and records
// which subjects were looked up
type stubDirectory struct {
	associations map[string][]string
	lookups      []string
}

func (d *stubDirectory) AssociatedSubjects(_ context.Context, identity access.Identity) access.SubjectSet {
	d.lookups = append(d.lookups, identity.Subject)
	if subjects, ok := d.associations[identity.Subject]; ok {
		return access.NewSubjectSet(subjects...)
	}
	// Fail-open contract: unknown subjects resolve to themselves
	return access.NewSubjectSet(identity.Subject)
}

func newTestResolver(directory *stubDirectory, admins ...string) *Resolver {
	return NewResolver(directory, AdminSubjects(admins), zap.NewNop())
}

func identityFor(subject string) access.Identity {
	return access.Identity{Subject: subject, Token: "token-" + subject}
}

func TestAdminSubjects(t *testing.T) {
	isAdmin := AdminSubjects([]string{"root", "ops"})

	assert.True(t, isAdmin("root"))
	assert.True(t, isAdmin("ops"))
	assert.False(t, isAdmin("alice"))
	assert.False(t, isAdmin(""))
}

func TestResolver_CallerFor(t *testing.T) {
	resolver := newTestResolver(&stubDirectory{}, "root")

	assert.True(t, resolver.CallerFor(identityFor("root")).IsAdmin())
	assert.False(t, resolver.CallerFor(identityFor("alice")).IsAdmin())
}

func TestResolver_Authorize_NoRequestedTargets(t *testing.T) {
	ctx := context.Background()

	t.Run("admin sees everything unfiltered", func(t *testing.T) {
		directory := &stubDirectory{}
		resolver := newTestResolver(directory, "root")
		caller := resolver.CallerFor(identityFor("root"))

		targets, err := resolver.Authorize(ctx, identityFor("root"), caller, nil, "")
		require.NoError(t, err)

		assert.True(t, targets.Unfiltered)
		// No directory lookup needed for an unproxied admin
		assert.Empty(t, directory.lookups)
	})

	t.Run("regular caller is scoped to its associated subjects", func(t *testing.T) {
		directory := &stubDirectory{associations: map[string][]string{
			"alice": {"alice", "org:acme"},
		}}
		resolver := newTestResolver(directory)
		caller := resolver.CallerFor(identityFor("alice"))

		targets, err := resolver.Authorize(ctx, identityFor("alice"), caller, nil, "")
		require.NoError(t, err)

		assert.False(t, targets.Unfiltered)
		assert.Equal(t, []string{"alice", "org:acme"}, targets.Subjects.Subjects())
	})
}

func TestResolver_Authorize_RequestedTargets(t *testing.T) {
	ctx := context.Background()

	t.Run("admin passes requested targets through unfiltered", func(t *testing.T) {
		directory := &stubDirectory{}
		resolver := newTestResolver(directory, "root")
		caller := resolver.CallerFor(identityFor("root"))

		targets, err := resolver.Authorize(ctx, identityFor("root"), caller, []string{"alice", "bob"}, "")
		require.NoError(t, err)

		assert.False(t, targets.Unfiltered)
		assert.Equal(t, []string{"alice", "bob"}, targets.Subjects.Subjects())
		assert.Empty(t, directory.lookups)
	})

	t.Run("regular caller gets the intersection with its associations", func(t *testing.T) {
		directory := &stubDirectory{associations: map[string][]string{
			"alice": {"alice", "org:acme"},
		}}
		resolver := newTestResolver(directory)
		caller := resolver.CallerFor(identityFor("alice"))

		targets, err := resolver.Authorize(ctx, identityFor("alice"), caller,
			[]string{"org:acme", "org:other"}, "")
		require.NoError(t, err)

		assert.Equal(t, []string{"org:acme"}, targets.Subjects.Subjects())
	})

	t.Run("empty intersection is forbidden, not an empty result", func(t *testing.T) {
		directory := &stubDirectory{associations: map[string][]string{
			"alice": {"alice"},
		}}
		resolver := newTestResolver(directory)
		caller := resolver.CallerFor(identityFor("alice"))

		_, err := resolver.Authorize(ctx, identityFor("alice"), caller, []string{"bob"}, "")
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "FORBIDDEN", domainErr.Code)
	})
}

func TestResolver_Authorize_RequestorOverride(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin override is forbidden", func(t *testing.T) {
		resolver := newTestResolver(&stubDirectory{})
		caller := resolver.CallerFor(identityFor("alice"))

		_, err := resolver.Authorize(ctx, identityFor("alice"), caller, nil, "bob")
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "FORBIDDEN", domainErr.Code)
	})

	t.Run("proxying admin sees what the impersonated subject sees", func(t *testing.T) {
		directory := &stubDirectory{associations: map[string][]string{
			"alice": {"alice", "org:acme"},
		}}
		resolver := newTestResolver(directory, "root")
		caller := resolver.CallerFor(identityFor("root"))

		targets, err := resolver.Authorize(ctx, identityFor("root"), caller, nil, "alice")
		require.NoError(t, err)

		assert.False(t, targets.Unfiltered)
		assert.Equal(t, []string{"alice", "org:acme"}, targets.Subjects.Subjects())
		// The directory is queried for the impersonated subject
		assert.Equal(t, []string{"alice"}, directory.lookups)
	})

	t.Run("proxying admin with requested targets is intersected like a regular caller", func(t *testing.T) {
		directory := &stubDirectory{associations: map[string][]string{
			"alice": {"alice"},
		}}
		resolver := newTestResolver(directory, "root")
		caller := resolver.CallerFor(identityFor("root"))

		_, err := resolver.Authorize(ctx, identityFor("root"), caller, []string{"bob"}, "alice")
		require.Error(t, err)
	})

	t.Run("the admin caller value is never mutated", func(t *testing.T) {
		directory := &stubDirectory{associations: map[string][]string{
			"alice": {"alice"},
		}}
		resolver := newTestResolver(directory, "root")
		caller := resolver.CallerFor(identityFor("root"))

		_, err := resolver.Authorize(ctx, identityFor("root"), caller, nil, "alice")
		require.NoError(t, err)

		assert.True(t, caller.IsUnproxiedAdmin())
		assert.Equal(t, "root", caller.EffectiveSubject())
	})
}

func TestFilterList(t *testing.T) {
	ctx := context.Background()

	t.Run("unfiltered runs the unrestricted query", func(t *testing.T) {
		items, err := FilterList(ctx, ApprovedTargets{Unfiltered: true},
			func(context.Context) ([]string, error) { return []string{"a", "b"}, nil },
			func(context.Context, []string) ([]string, error) {
				t.Fatal("restricted query must not run")
				return nil, nil
			},
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, items)
	})

	t.Run("restricted query receives the approved subjects", func(t *testing.T) {
		targets := ApprovedTargets{Subjects: access.NewSubjectSet("alice", "org:acme")}

		var got []string
		items, err := FilterList(ctx, targets,
			func(context.Context) ([]string, error) {
				t.Fatal("unrestricted query must not run")
				return nil, nil
			},
			func(_ context.Context, subjects []string) ([]string, error) {
				got = subjects
				return []string{"x"}, nil
			},
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "org:acme"}, got)
		assert.Equal(t, []string{"x"}, items)
	})

	t.Run("empty restricted result is NotFound", func(t *testing.T) {
		targets := ApprovedTargets{Subjects: access.NewSubjectSet("alice")}

		_, err := FilterList(ctx, targets,
			func(context.Context) ([]string, error) { return nil, nil },
			func(context.Context, []string) ([]string, error) { return nil, nil },
		)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("query errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		targets := ApprovedTargets{Subjects: access.NewSubjectSet("alice")}

		_, err := FilterList(ctx, targets,
			func(context.Context) ([]string, error) { return nil, nil },
			func(context.Context, []string) ([]string, error) { return nil, boom },
		)
		assert.ErrorIs(t, err, boom)
	})
}
