package upload

import (
	"bytes"
	"encoding/json"
)

// NameMap mirrors the submission's field layout with filenames in place of
// file handles. Its shape is fixed by Normalize; afterwards only leaf values
// change, each at most once, from the original filename to the stored name.
type NameMap struct {
	groups map[string]*nameGroup
	order  []string

	// fields lists every accepted form field in submission order.
	fields []fieldRef
	// leaves indexes each original filename to the positions still holding it.
	leaves    map[string][]leafRef
	conflicts []string
}

type nameGroup struct {
	nested   bool
	flat     []string
	sub      map[string][]string
	subOrder []string
}

type fieldRef struct {
	name   string
	outer  string
	inner  string
	nested bool
	start  int
	end    int
}

type leafRef struct {
	outer string
	inner string
	index int
}

func newNameMap() *NameMap {
	return &NameMap{
		groups: make(map[string]*nameGroup),
		leaves: make(map[string][]leafRef),
	}
}

// Len returns the number of top-level groups.
func (m *NameMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Groups returns top-level group names in submission order.
func (m *NameMap) Groups() []string {
	return append([]string(nil), m.order...)
}

// Flat returns the filenames of a flat group.
func (m *NameMap) Flat(group string) ([]string, bool) {
	g, ok := m.groups[group]
	if !ok || g.nested {
		return nil, false
	}
	return append([]string(nil), g.flat...), true
}

// Nested returns the filenames of one subgroup of a nested group.
func (m *NameMap) Nested(group, subgroup string) ([]string, bool) {
	g, ok := m.groups[group]
	if !ok || !g.nested {
		return nil, false
	}
	names, ok := g.sub[subgroup]
	if !ok {
		return nil, false
	}
	return append([]string(nil), names...), true
}

// IsNested reports whether group holds subgroups.
func (m *NameMap) IsNested(group string) bool {
	g, ok := m.groups[group]
	return ok && g.nested
}

// add places filenames under outer (and inner, for nested fields). It returns
// false when the field contradicts the shape already recorded for outer.
func (m *NameMap) add(field, outer, inner string, nested bool, filenames []string) bool {
	g, ok := m.groups[outer]
	if !ok {
		g = &nameGroup{nested: nested}
		if nested {
			g.sub = make(map[string][]string)
		}
		m.groups[outer] = g
		m.order = append(m.order, outer)
	} else if g.nested != nested {
		m.conflicts = append(m.conflicts, outer)
		return false
	}

	ref := fieldRef{name: field, outer: outer, inner: inner, nested: nested}
	if nested {
		if _, seen := g.sub[inner]; !seen {
			g.subOrder = append(g.subOrder, inner)
		}
		ref.start = len(g.sub[inner])
		g.sub[inner] = append(g.sub[inner], filenames...)
		ref.end = len(g.sub[inner])
	} else {
		ref.start = len(g.flat)
		g.flat = append(g.flat, filenames...)
		ref.end = len(g.flat)
	}

	for i := ref.start; i < ref.end; i++ {
		name := filenames[i-ref.start]
		m.leaves[name] = append(m.leaves[name], leafRef{outer: outer, inner: inner, index: i})
	}
	m.fields = append(m.fields, ref)
	return true
}

// slot returns the filenames written by one field.
func (m *NameMap) slot(f fieldRef) []string {
	g := m.groups[f.outer]
	if f.nested {
		return g.sub[f.inner][f.start:f.end]
	}
	return g.flat[f.start:f.end]
}

// replace rewrites every leaf still holding original to assigned. Each leaf
// is rewritten at most once.
func (m *NameMap) replace(original, assigned string) int {
	refs := m.leaves[original]
	delete(m.leaves, original)

	n := 0
	for _, ref := range refs {
		g := m.groups[ref.outer]
		values := g.flat
		if g.nested {
			values = g.sub[ref.inner]
		}
		if values[ref.index] != original {
			continue
		}
		values[ref.index] = assigned
		n++
	}
	return n
}

// MarshalJSON renders groups in submission order:
// {"images": ["a.jpg"], "docs": {"contracts": ["c.pdf"]}}.
func (m *NameMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, outer := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, outer); err != nil {
			return nil, err
		}
		g := m.groups[outer]
		if !g.nested {
			if err := writeList(&buf, g.flat); err != nil {
				return nil, err
			}
			continue
		}
		buf.WriteByte('{')
		for j, inner := range g.subOrder {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, inner); err != nil {
				return nil, err
			}
			if err := writeList(&buf, g.sub[inner]); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	raw, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(raw)
	buf.WriteByte(':')
	return nil
}

func writeList(buf *bytes.Buffer, values []string) error {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}
