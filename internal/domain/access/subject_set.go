package access

// SubjectSet is an ordered set of subject identifiers. Insertion order is
// preserved so that filter results are deterministic.
type SubjectSet struct {
	order   []string
	members map[string]struct{}
}

// NewSubjectSet creates a subject set from the given subjects, dropping
// duplicates and empty strings
func NewSubjectSet(subjects ...string) SubjectSet {
	s := SubjectSet{members: make(map[string]struct{}, len(subjects))}
	for _, subject := range subjects {
		s.add(subject)
	}
	return s
}

func (s *SubjectSet) add(subject string) {
	if subject == "" {
		return
	}
	if _, ok := s.members[subject]; ok {
		return
	}
	s.members[subject] = struct{}{}
	s.order = append(s.order, subject)
}

// Add returns a new set with the subject included
func (s SubjectSet) Add(subject string) SubjectSet {
	result := NewSubjectSet(s.order...)
	result.add(subject)
	return result
}

// Contains reports whether the subject is a member of the set
func (s SubjectSet) Contains(subject string) bool {
	_, ok := s.members[subject]
	return ok
}

// IsEmpty reports whether the set has no members
func (s SubjectSet) IsEmpty() bool {
	return len(s.order) == 0
}

// Len returns the number of members
func (s SubjectSet) Len() int {
	return len(s.order)
}

// Subjects returns the members in insertion order
func (s SubjectSet) Subjects() []string {
	result := make([]string, len(s.order))
	copy(result, s.order)
	return result
}

// Intersect returns the members of s that are also members of other,
// preserving the order of s
func (s SubjectSet) Intersect(other SubjectSet) SubjectSet {
	result := SubjectSet{members: make(map[string]struct{})}
	for _, subject := range s.order {
		if other.Contains(subject) {
			result.add(subject)
		}
	}
	return result
}
