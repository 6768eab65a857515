// Package selection tracks which node ids are selected on the canvas. The
// set holds weak references: ids are never resolved here, and ids of deleted
// nodes may linger until the next replace.
package selection

import "slices"

// Set is an ordered collection of unique node ids.
type Set struct {
	ids []string
}

func New(ids ...string) *Set {
	s := &Set{}
	s.Replace(ids)
	return s
}

// IDs returns a copy of the selected ids in selection order.
func (s *Set) IDs() []string {
	return slices.Clone(s.ids)
}

func (s *Set) Len() int { return len(s.ids) }

func (s *Set) Contains(id string) bool {
	return slices.Contains(s.ids, id)
}

// Only returns the single selected id when exactly one is selected.
func (s *Set) Only() (string, bool) {
	if len(s.ids) != 1 {
		return "", false
	}
	return s.ids[0], true
}

// Select resolves a click on id. Additive toggles id in the current
// selection; otherwise the selection becomes exactly {id}. An empty id
// clears the selection unless additive, in which case nothing changes.
// It reports whether the selection changed.
func (s *Set) Select(id string, additive bool) bool {
	if id == "" {
		if additive || len(s.ids) == 0 {
			return false
		}
		s.ids = nil
		return true
	}
	if additive {
		if i := slices.Index(s.ids, id); i >= 0 {
			s.ids = slices.Delete(s.ids, i, i+1)
		} else {
			s.ids = append(s.ids, id)
		}
		return true
	}
	if len(s.ids) == 1 && s.ids[0] == id {
		return false
	}
	s.ids = []string{id}
	return true
}

// SelectMany replaces the selection with ids, or with additive appends the
// ids not already selected. Duplicates in ids are collapsed.
func (s *Set) SelectMany(ids []string, additive bool) bool {
	before := s.ids
	if !additive {
		s.ids = nil
	} else {
		s.ids = slices.Clone(s.ids)
	}
	for _, id := range ids {
		if id != "" && !slices.Contains(s.ids, id) {
			s.ids = append(s.ids, id)
		}
	}
	return !slices.Equal(before, s.ids)
}

// Replace sets the selection to ids.
func (s *Set) Replace(ids []string) {
	s.SelectMany(ids, false)
}

// Remove drops ids from the selection.
func (s *Set) Remove(ids ...string) bool {
	n := len(s.ids)
	s.ids = slices.DeleteFunc(slices.Clone(s.ids), func(id string) bool {
		return slices.Contains(ids, id)
	})
	return len(s.ids) != n
}

func (s *Set) Clear() {
	s.ids = nil
}
