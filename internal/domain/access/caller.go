package access

// Caller is the authenticated actor for a single request. It is an
// immutable value: impersonation never mutates an existing Caller, it
// derives a new one.
type Caller struct {
	subject  string
	admin    bool
	actingAs string
}

// NewCaller creates a caller for a verified subject
func NewCaller(subject string, admin bool) Caller {
	return Caller{subject: subject, admin: admin}
}

// Subject returns the subject claim of the underlying token
func (c Caller) Subject() string {
	return c.subject
}

// IsAdmin reports whether the underlying token belongs to an admin subject
func (c Caller) IsAdmin() bool {
	return c.admin
}

// ActingAs returns the impersonated subject, or "" when not proxying
func (c Caller) ActingAs() string {
	return c.actingAs
}

// IsProxying reports whether the caller is impersonating another subject
func (c Caller) IsProxying() bool {
	return c.actingAs != ""
}

// EffectiveSubject returns the subject all access decisions are made for
func (c Caller) EffectiveSubject() string {
	if c.actingAs != "" {
		return c.actingAs
	}
	return c.subject
}

// AsSubject derives a new caller impersonating the given subject. The
// receiver is left untouched so concurrent requests sharing the admin
// identity are unaffected.
func (c Caller) AsSubject(subject string) Caller {
	return Caller{subject: c.subject, admin: c.admin, actingAs: subject}
}

// IsUnproxiedAdmin reports whether this caller acts with full admin
// visibility. A proxying admin deliberately does not: it must see exactly
// what the impersonated subject would see.
func (c Caller) IsUnproxiedAdmin() bool {
	return c.admin && c.actingAs == ""
}
