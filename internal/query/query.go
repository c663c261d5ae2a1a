// Package query resolves an (includes, excludes) component-id predicate
// against a storage's inverted index into a candidate set of archetypes,
// and walks that set one entity at a time through a forward-only cursor.
package query

import (
	"slices"

	"github.com/archtable/ruecs/internal/arch"
	"github.com/archtable/ruecs/internal/set"
)

// Query is an (includes, excludes) predicate over component ids.
type Query struct {
	Includes []arch.ComponentId
	Excludes []arch.ComponentId
}

// New builds a Query from unsorted, possibly-overlapping include/exclude
// lists, normalizing each to a sorted, deduplicated form.
func New(includes, excludes []arch.ComponentId) Query {
	return Query{
		Includes: sortedUnique(includes),
		Excludes: sortedUnique(excludes),
	}
}

func sortedUnique(ids []arch.ComponentId) []arch.ComponentId {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// Matches reports whether a itself (regardless of any entity within it)
// satisfies the query's include/exclude predicate.
func (q Query) Matches(a *arch.Archetype) bool {
	if !a.HasAll(q.Includes) {
		return false
	}
	return a.HasNone(q.Excludes)
}

// Resolve computes the candidate archetype set for the query against
// storage's current inverted index with a seed-intersect-diff algorithm:
// seed with the first include's archetypes, intersect with every other
// include, then subtract every exclude.
func Resolve(s *arch.Storage, q Query) []*arch.Archetype {
	if len(q.Includes) == 0 {
		return filterExcluded(s.Archetypes(), s, q.Excludes)
	}

	candidates := set.FromKeys(s.ArchetypesWith(q.Includes[0]))

	for _, id := range q.Includes[1:] {
		if candidates.Len() == 0 {
			break
		}
		set.IntersectKeys(&candidates, s.ArchetypesWith(id))
	}

	for _, id := range q.Excludes {
		if candidates.Len() == 0 {
			break
		}
		set.SubtractKeys(&candidates, s.ArchetypesWith(id))
	}

	out := make([]*arch.Archetype, 0, candidates.Len())
	for a := range candidates.Values() {
		out = append(out, a)
	}
	return out
}

func filterExcluded(all []*arch.Archetype, s *arch.Storage, excludes []arch.ComponentId) []*arch.Archetype {
	_ = s

	if len(excludes) == 0 {
		return slices.Clone(all)
	}

	out := make([]*arch.Archetype, 0, len(all))
	for _, a := range all {
		if a.HasNone(excludes) {
			out = append(out, a)
		}
	}
	return out
}

// EntityRef addresses one entity as yielded by a Cursor: which archetype
// it lives in and at which row. It is a borrow, valid only until the
// next structural mutation of that archetype.
type EntityRef struct {
	Id        arch.EntityId
	Row       arch.Row
	Archetype *arch.Archetype
}

func (e EntityRef) Get(ty *arch.ComponentType) ([]byte, bool) {
	return e.Archetype.Get(e.Row, ty.Id)
}

// Cursor is a single-threaded, forward-only walk over a query's matching
// entities. Start captures (or, if the storage has grown since the last
// resolution, recomputes) the candidate archetype set; Next yields one
// entity at a time, row by row within each archetype in the candidate
// set, and reports false once exhausted.
type Cursor struct {
	storage *arch.Storage
	query   Query

	candidate      []*arch.Archetype
	archetypeCount int

	archetypeIdx int
	row          arch.Row
}

func NewCursor(s *arch.Storage, q Query) *Cursor {
	return &Cursor{storage: s, query: q}
}

// Start (re)resolves the candidate set and resets iteration to its
// beginning. The candidate set is memoised by the archetype count at
// resolution time; calling Start again only re-resolves if the storage
// has created new archetypes since the last Start.
func (c *Cursor) Start() {
	count := len(c.storage.Archetypes())
	if c.candidate == nil || count != c.archetypeCount {
		c.candidate = Resolve(c.storage, c.query)
		c.archetypeCount = count
	}

	c.archetypeIdx = 0
	c.row = 0
}

// Next yields the next matching entity, or reports ok=false once every
// archetype in the candidate set has been exhausted.
func (c *Cursor) Next() (ref EntityRef, ok bool) {
	for c.archetypeIdx < len(c.candidate) {
		a := c.candidate[c.archetypeIdx]

		if int(c.row) >= len(a.Entities) {
			c.archetypeIdx++
			c.row = 0
			continue
		}

		ref = EntityRef{
			Id:        a.Entities[c.row],
			Row:       c.row,
			Archetype: a,
		}
		c.row++

		return ref, true
	}

	return EntityRef{}, false
}
