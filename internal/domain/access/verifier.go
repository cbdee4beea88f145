package access

import "context"

// Identity is the result of verifying a bearer token
type Identity struct {
	Subject string
	Token   string
}

// TokenVerifier authenticates an opaque bearer token against the trusted
// signing authority. Implementations must fail closed: any inability to
// verify (bad signature, unreachable authority, timeout) is returned as an
// error and the request must be rejected as unauthenticated.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// SubjectDirectory resolves the set of subjects associated with a caller:
// the caller's own subject plus every group subject it belongs to.
//
// Implementations must fail open: if the directory is unreachable or the
// subject is unknown, the returned set contains just the caller's own
// subject and no error is reported. List and get operations keep working,
// scoped to self.
type SubjectDirectory interface {
	AssociatedSubjects(ctx context.Context, identity Identity) SubjectSet
}
