package domain

import "slices"

// Dimension names one of the secondary indexes.
type Dimension string

const (
	DimTags     Dimension = "tags"
	DimAuthor   Dimension = "author"
	DimCategory Dimension = "category"
)

// Dimensions is the write order of the keyed indexes.
var Dimensions = []Dimension{DimTags, DimAuthor, DimCategory}

// IndexMap maps a value to the ids carrying it, in insertion order.
type IndexMap map[string][]string

// Add appends id under key unless it is already there.
func (m IndexMap) Add(key, id string) {
	if key == "" || slices.Contains(m[key], id) {
		return
	}
	m[key] = append(m[key], id)
}

// RemoveFrom drops id from key and deletes the entry once empty.
func (m IndexMap) RemoveFrom(key, id string) {
	ids, ok := m[key]
	if !ok {
		return
	}
	ids = slices.DeleteFunc(slices.Clone(ids), func(x string) bool { return x == id })
	if len(ids) == 0 {
		delete(m, key)
		return
	}
	m[key] = ids
}

// Remove strips id from every entry.
func (m IndexMap) Remove(id string) {
	for key := range m {
		m.RemoveFrom(key, id)
	}
}

// Move replaces the memberships of id: keys only in from are left, keys only
// in to are joined, shared keys keep their position.
func (m IndexMap) Move(id string, from, to []string) {
	for _, k := range from {
		if !slices.Contains(to, k) {
			m.RemoveFrom(k, id)
		}
	}
	for _, k := range to {
		m.Add(k, id)
	}
}

// KeysFor returns the index values a contributes to dimension d.
func KeysFor(d Dimension, a App) []string {
	switch d {
	case DimTags:
		return a.Tags
	case DimAuthor:
		if name := a.AuthorName(); name != "" {
			return []string{name}
		}
	case DimCategory:
		return []string{string(a.Category)}
	}
	return nil
}

// TopIndex lists the ids of featured apps.
type TopIndex []string

// With returns the index with id present iff top is true.
func (t TopIndex) With(id string, top bool) TopIndex {
	has := slices.Contains(t, id)
	switch {
	case top && !has:
		return append(t, id)
	case !top && has:
		return slices.DeleteFunc(slices.Clone(t), func(x string) bool { return x == id })
	}
	return t
}

// IndexSet bundles the four derived indexes.
type IndexSet struct {
	Tags     IndexMap `json:"tags"`
	Author   IndexMap `json:"author"`
	Category IndexMap `json:"category"`
	Top      TopIndex `json:"top"`
}

// NewIndexSet returns an empty set.
func NewIndexSet() IndexSet {
	return IndexSet{Tags: IndexMap{}, Author: IndexMap{}, Category: IndexMap{}, Top: TopIndex{}}
}

// Map returns the keyed index for d.
func (s IndexSet) Map(d Dimension) IndexMap {
	switch d {
	case DimTags:
		return s.Tags
	case DimAuthor:
		return s.Author
	case DimCategory:
		return s.Category
	}
	return nil
}

// BuildIndexes derives all indexes from the canonical list.
func BuildIndexes(apps []App) IndexSet {
	s := NewIndexSet()
	for _, a := range apps {
		for _, d := range Dimensions {
			m := s.Map(d)
			for _, k := range KeysFor(d, a) {
				m.Add(k, a.ID)
			}
		}
		s.Top = s.Top.With(a.ID, a.IsTop)
	}
	return s
}

// DanglingIDs returns ids referenced by the set but absent from apps.
func (s IndexSet) DanglingIDs(apps []App) []string {
	known := make(map[string]struct{}, len(apps))
	for _, a := range apps {
		known[a.ID] = struct{}{}
	}
	seen := map[string]struct{}{}
	var out []string
	check := func(id string) {
		if _, ok := known[id]; ok {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, d := range Dimensions {
		for _, ids := range s.Map(d) {
			for _, id := range ids {
				check(id)
			}
		}
	}
	for _, id := range s.Top {
		check(id)
	}
	slices.Sort(out)
	return out
}

// Equivalent reports whether both sets hold the same memberships, ignoring
// the order of ids within an entry.
func (s IndexSet) Equivalent(o IndexSet) bool {
	for _, d := range Dimensions {
		if !sameMembers(s.Map(d), o.Map(d)) {
			return false
		}
	}
	return sameIDs(s.Top, o.Top)
}

func sameMembers(a, b IndexMap) bool {
	if len(a) != len(b) {
		return false
	}
	for k, ids := range a {
		if !sameIDs(ids, b[k]) {
			return false
		}
	}
	return true
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
