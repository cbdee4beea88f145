package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSubjectSet(t *testing.T) {
	t.Run("drops duplicates and empty strings", func(t *testing.T) {
		set := NewSubjectSet("alice", "", "bob", "alice")

		assert.Equal(t, 2, set.Len())
		assert.Equal(t, []string{"alice", "bob"}, set.Subjects())
	})

	t.Run("empty input yields empty set", func(t *testing.T) {
		set := NewSubjectSet()

		assert.True(t, set.IsEmpty())
		assert.Empty(t, set.Subjects())
	})
}

func TestSubjectSet_Add(t *testing.T) {
	t.Run("returns a new set without mutating the receiver", func(t *testing.T) {
		original := NewSubjectSet("alice")
		grown := original.Add("bob")

		assert.Equal(t, 1, original.Len())
		assert.False(t, original.Contains("bob"))
		assert.Equal(t, []string{"alice", "bob"}, grown.Subjects())
	})

	t.Run("ignores duplicates", func(t *testing.T) {
		set := NewSubjectSet("alice").Add("alice")

		assert.Equal(t, 1, set.Len())
	})
}

func TestSubjectSet_Contains(t *testing.T) {
	set := NewSubjectSet("alice", "org:acme")

	assert.True(t, set.Contains("alice"))
	assert.True(t, set.Contains("org:acme"))
	assert.False(t, set.Contains("bob"))
	assert.False(t, set.Contains(""))
}

func TestSubjectSet_Intersect(t *testing.T) {
	t.Run("preserves receiver order", func(t *testing.T) {
		requested := NewSubjectSet("org:acme", "alice", "org:other")
		associated := NewSubjectSet("alice", "org:acme")

		approved := requested.Intersect(associated)

		assert.Equal(t, []string{"org:acme", "alice"}, approved.Subjects())
	})

	t.Run("disjoint sets yield empty intersection", func(t *testing.T) {
		a := NewSubjectSet("alice")
		b := NewSubjectSet("bob")

		assert.True(t, a.Intersect(b).IsEmpty())
	})

	t.Run("intersection with empty set is empty", func(t *testing.T) {
		a := NewSubjectSet("alice")

		assert.True(t, a.Intersect(NewSubjectSet()).IsEmpty())
		assert.True(t, NewSubjectSet().Intersect(a).IsEmpty())
	})
}

func TestSubjectSet_SubjectsIsACopy(t *testing.T) {
	set := NewSubjectSet("alice", "bob")
	subjects := set.Subjects()
	subjects[0] = "mallory"

	assert.Equal(t, []string{"alice", "bob"}, set.Subjects())
}
