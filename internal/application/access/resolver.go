package access

import (
	"context"

	"github.com/billing/backend/internal/domain/access"
	"github.com/billing/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AdminPredicate reports whether a subject holds the admin role
type AdminPredicate func(subject string) bool

// AdminSubjects builds an AdminPredicate from a fixed list of subjects
func AdminSubjects(subjects []string) AdminPredicate {
	admins := make(map[string]struct{}, len(subjects))
	for _, subject := range subjects {
		admins[subject] = struct{}{}
	}
	return func(subject string) bool {
		_, ok := admins[subject]
		return ok
	}
}

// ApprovedTargets is the outcome of an authorization decision. Either the
// query runs unfiltered (admin acting as itself) or it is restricted to
// the approved subject set.
type ApprovedTargets struct {
	Unfiltered bool
	Subjects   access.SubjectSet
}

// Resolver computes which target subjects a caller may see. It is the one
// policy used for customers, orders, memberships, quotas and usages alike.
type Resolver struct {
	directory access.SubjectDirectory
	isAdmin   AdminPredicate
	logger    *zap.Logger
}

// NewResolver creates a resolver backed by the given subject directory
func NewResolver(directory access.SubjectDirectory, isAdmin AdminPredicate, logger *zap.Logger) *Resolver {
	return &Resolver{
		directory: directory,
		isAdmin:   isAdmin,
		logger:    logger,
	}
}

// CallerFor builds the request-scoped caller for a verified identity
func (r *Resolver) CallerFor(identity access.Identity) access.Caller {
	return access.NewCaller(identity.Subject, r.isAdmin(identity.Subject))
}

// Authorize computes the approved target set for a caller.
//
// requestorOverride is the admin-only "act as" mechanism: when present, a
// fresh caller is derived for the override subject and used for the rest
// of the decision, so the admin sees exactly what the impersonated subject
// would see. The admin's own caller value is never modified.
//
// With requested targets, an unproxied admin passes them through
// unfiltered; everyone else is restricted to the intersection with their
// associated subjects, and an empty intersection is Forbidden rather than
// an empty result. Without requested targets, an unproxied admin sees
// everything and everyone else sees their associated subjects.
func (r *Resolver) Authorize(
	ctx context.Context,
	identity access.Identity,
	caller access.Caller,
	requestedTargets []string,
	requestorOverride string,
) (ApprovedTargets, error) {
	effective := caller
	if requestorOverride != "" {
		if !caller.IsAdmin() {
			r.logger.Warn("non-admin attempted to act on behalf of another subject",
				zap.String("subject", caller.Subject()),
				zap.String("requestor_override", requestorOverride))
			return ApprovedTargets{}, shared.NewDomainError("FORBIDDEN",
				"Only administrators may act on behalf of another subject")
		}
		effective = caller.AsSubject(requestorOverride)
	}

	requested := access.NewSubjectSet(requestedTargets...)

	if !requested.IsEmpty() {
		if effective.IsUnproxiedAdmin() {
			return ApprovedTargets{Subjects: requested}, nil
		}

		associated := r.associatedSubjects(ctx, identity, effective)
		approved := requested.Intersect(associated)
		if approved.IsEmpty() {
			r.logger.Debug("caller not associated with any requested subject",
				zap.String("subject", effective.EffectiveSubject()),
				zap.Strings("requested", requested.Subjects()))
			return ApprovedTargets{}, shared.NewDomainError("FORBIDDEN",
				"Not associated with any of the requested subjects")
		}
		return ApprovedTargets{Subjects: approved}, nil
	}

	if effective.IsUnproxiedAdmin() {
		return ApprovedTargets{Unfiltered: true}, nil
	}

	return ApprovedTargets{Subjects: r.associatedSubjects(ctx, identity, effective)}, nil
}

// associatedSubjects resolves the effective caller's association set. The
// set is freshly resolved per request; group membership can change at any
// time, so it is never cached across requests.
func (r *Resolver) associatedSubjects(ctx context.Context, identity access.Identity, effective access.Caller) access.SubjectSet {
	lookup := access.Identity{
		Subject: effective.EffectiveSubject(),
		Token:   identity.Token,
	}
	return r.directory.AssociatedSubjects(ctx, lookup)
}
