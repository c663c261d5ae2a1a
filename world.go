// Package ruecs is an archetype-based entity-component-system store: a
// container that groups entities by their exact component set, laying
// each component type out in contiguous per-archetype arrays, and
// exposing fast structural queries plus deferred structural edits
// batched into a command buffer.
//
// A World owns all storage. Direct (immediate) structural operations —
// CreateEntity, DeleteEntity, AddComponent, RemoveComponent — mutate it
// in place. While iterating a Query's Cursor, structural edits must
// instead be recorded into a CommandBuffer and applied afterwards with
// Run, or discarded; applying them immediately during iteration would
// invalidate the cursor's candidate set and the column it is reading
// from.
package ruecs

import (
	"github.com/archtable/ruecs/internal/arch"
)

// EntityId is an opaque identity for one logical entity. Equal handles
// denote the same entity; handles survive archetype migration.
type EntityId = arch.EntityId

// World is the top-level archetype storage: an archetype table keyed by
// content-addressed archetype id, an entity-location map, and an
// inverted index from component id to the archetypes containing it.
type World struct {
	storage *arch.Storage
}

// NewWorld creates an empty World. Entity handle generation starts at 1
// and is strictly increasing for the lifetime of the World.
func NewWorld() *World {
	return &World{storage: arch.NewStorage()}
}

// CreateEntity mints a new handle and places it in the empty archetype.
func (w *World) CreateEntity() EntityId {
	return w.storage.CreateEntity()
}

// DeleteEntity removes handle, running the destructor on each of its
// component values. Panics if handle is unknown.
func (w *World) DeleteEntity(handle EntityId) {
	w.storage.DeleteEntity(handle)
}

// Destroy tears the World down, running every live component's
// destructor exactly once. The World must not be used afterwards.
func (w *World) Destroy() {
	w.storage.Destroy()
}

// NewQuery starts building a query against this World.
func (w *World) NewQuery() *Query {
	return newQuery(w)
}

// NewCommandBuffer creates a deferred edit log against this World.
func (w *World) NewCommandBuffer() *CommandBuffer {
	return newCommandBuffer(w)
}
