package ruecs

import (
	"github.com/archtable/ruecs/internal/arch"
	"github.com/archtable/ruecs/internal/query"
)

// Query stores an (includes, excludes) predicate over component ids. It
// resolves to a set of matching archetypes via the World's inverted
// index; call Cursor to walk the matching entities.
type Query struct {
	world    *World
	includes []arch.ComponentId
	excludes []arch.ComponentId
}

func newQuery(w *World) *Query {
	return &Query{world: w}
}

// With narrows the query to entities that carry every one of types.
func (q *Query) With(types ...*ComponentType) *Query {
	for _, ty := range types {
		q.includes = append(q.includes, ty.Id)
	}
	return q
}

// Without narrows the query to entities that lack every one of types.
func (q *Query) Without(types ...*ComponentType) *Query {
	for _, ty := range types {
		q.excludes = append(q.excludes, ty.Id)
	}
	return q
}

func (q *Query) resolved() query.Query {
	return query.New(q.includes, q.excludes)
}

// Matches reports whether a live entity's current component set
// satisfies the query, independent of any cursor.
func (q *Query) Matches(w *World, handle EntityId) bool {
	loc, ok := w.storage.Locate(handle)
	if !ok {
		return false
	}
	return q.resolved().Matches(loc.Archetype)
}

// Cursor creates a fresh, unstarted cursor over this query's matching
// entities.
func (q *Query) Cursor() *Cursor {
	return &Cursor{
		world:  q.world,
		cursor: query.NewCursor(q.world.storage, q.resolved()),
	}
}

// Cursor is a single-threaded, forward-only walk over a query's matching
// entities. It restarts on Start. Edits recorded through a CommandBuffer
// take effect when the buffer is Run, except CreateEntity, which places
// the new entity at once; archetypes created after Start are not visited
// until the cursor is Start-ed again.
type Cursor struct {
	world  *World
	cursor *query.Cursor
}

// Start (re)resolves the candidate archetype set and resets iteration to
// the beginning.
func (c *Cursor) Start() {
	c.cursor.Start()
}

// Next yields the next matching entity, or ok=false once exhausted.
func (c *Cursor) Next() (entity Entity, ok bool) {
	ref, ok := c.cursor.Next()
	if !ok {
		return Entity{}, false
	}
	return Entity{world: c.world, Id: ref.Id}, true
}

// Entity is a handle paired with the World it lives in, returned while
// walking a Cursor. Use GetComponent/HasComponent with its Id, or read
// values directly via EntityGet.
type Entity struct {
	world *World
	Id    EntityId
}

// EntityGet returns a pointer to e's value of T, or ok=false if absent.
// The pointer is a borrow, valid only until the next structural mutation
// of e's archetype.
func EntityGet[T any](e Entity) (*T, bool) {
	return GetComponent[T](e.world, e.Id)
}

// EntityHas reports whether e currently carries a value of T.
func EntityHas[T any](e Entity) bool {
	return HasComponent[T](e.world, e.Id)
}
