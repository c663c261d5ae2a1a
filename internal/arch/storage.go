package arch

import (
	"fmt"
	"log/slog"
	"slices"
)

// Location is the current home of a live entity: which archetype holds it
// and at which row.
type Location struct {
	Archetype *Archetype
	Row       Row
}

// Storage is the top-level archetype-based container: an archetype table
// keyed by archetype id, an entity-location map, and an inverted index
// from component id to the archetypes containing it. It implements the
// immediate (non-deferred) structural API; CommandBuffer wraps it with a
// deferred log safe to use during iteration.
type Storage struct {
	archetypes   map[ArchetypeId]*Archetype
	archetypeSet []*Archetype

	locations map[EntityId]Location

	// index[c][a] == i  iff  a.Ids[i] == c
	index map[ComponentId]map[*Archetype]int

	idGen idGenerator
	graph Graph
}

func NewStorage() *Storage {
	s := &Storage{
		archetypes: map[ArchetypeId]*Archetype{},
		locations:  map[EntityId]Location{},
		index:      map[ComponentId]map[*Archetype]int{},
	}

	s.empty() // force the empty archetype (id 0) to exist from the start

	return s
}

func (s *Storage) empty() *Archetype {
	return s.archetypeFor(nil)
}

// archetypeFor returns the archetype for exactly this sorted, deduplicated
// set of component types, creating and indexing it if this is the first
// time that set has been needed.
func (s *Storage) archetypeFor(types []*ComponentType) *Archetype {
	ids := make([]ComponentId, len(types))
	for i, ty := range types {
		ids[i] = ty.Id
	}

	id := archetypeIdOf(ids)

	if a, ok := s.archetypes[id]; ok {
		return a
	}

	a := newArchetype(id, types)
	s.archetypes[id] = a
	s.archetypeSet = append(s.archetypeSet, a)
	s.indexArchetype(a)

	return a
}

func (s *Storage) indexArchetype(a *Archetype) {
	for i, id := range a.Ids {
		byArchetype, ok := s.index[id]
		if !ok {
			byArchetype = map[*Archetype]int{}
			s.index[id] = byArchetype
		}
		byArchetype[a] = i
	}
}

// ColumnIndexOf returns the column position of componentId within
// archetype a, resolved through the inverted index.
func (s *Storage) ColumnIndexOf(a *Archetype, componentId ComponentId) (int, bool) {
	byArchetype, ok := s.index[componentId]
	if !ok {
		return 0, false
	}
	i, ok := byArchetype[a]
	return i, ok
}

// ArchetypesWith returns the archetypes indexed under componentId.
func (s *Storage) ArchetypesWith(componentId ComponentId) map[*Archetype]int {
	return s.index[componentId]
}

// Archetypes returns every archetype the storage has ever created,
// including ones that are currently empty of entities.
func (s *Storage) Archetypes() []*Archetype {
	return s.archetypeSet
}

func (s *Storage) Locate(handle EntityId) (Location, bool) {
	loc, ok := s.locations[handle]
	return loc, ok
}

// CreateEntity mints a new handle and places it into the empty archetype.
func (s *Storage) CreateEntity() EntityId {
	handle := s.idGen.Next()
	s.placeInEmpty(handle)
	return handle
}

// placeInEmpty puts an already-minted handle into the empty archetype and
// records its location.
func (s *Storage) placeInEmpty(handle EntityId) {
	archetype := s.empty()
	row := archetype.AddEntity(handle)
	s.locations[handle] = Location{Archetype: archetype, Row: row}
}

// DeleteEntity removes handle and runs every destructor on its component
// values. Panics (fatal assertion) if handle is unknown.
func (s *Storage) DeleteEntity(handle EntityId) {
	loc, ok := s.locations[handle]
	if !ok {
		slog.Error("delete_entity on unknown entity", slog.Any("entity", handle))
		panic(fmt.Sprintf("delete_entity: unknown entity %s", handle))
	}

	s.removeRow(loc.Archetype, loc.Row)
	delete(s.locations, handle)
}

// removeRow deletes the row from the archetype (destructors run) and
// fixes up the location of whichever entity got swapped into that row.
func (s *Storage) removeRow(a *Archetype, row Row) {
	moved, ok := a.DeleteRow(row)
	if ok {
		s.locations[moved] = Location{Archetype: a, Row: row}
	}
}

// takeOutRow removes the row from the archetype without running
// destructors (ownership of the bytes has already moved elsewhere) and
// fixes up the location of whichever entity got swapped into that row.
func (s *Storage) takeOutRow(a *Archetype, row Row) {
	moved, ok := a.TakeOutRow(row)
	if ok {
		s.locations[moved] = Location{Archetype: a, Row: row}
	}
}

// HasComponent reports whether handle currently carries a value of ty.
func (s *Storage) HasComponent(handle EntityId, ty *ComponentType) bool {
	loc, ok := s.locations[handle]
	if !ok {
		slog.Error("has_component on unknown entity", slog.Any("entity", handle))
		panic(fmt.Sprintf("has_component: unknown entity %s", handle))
	}
	return loc.Archetype.Has(ty.Id)
}

// GetComponent returns the byte-span of handle's value of ty, if present.
func (s *Storage) GetComponent(handle EntityId, ty *ComponentType) ([]byte, bool) {
	loc, ok := s.locations[handle]
	if !ok {
		slog.Error("get_component on unknown entity", slog.Any("entity", handle))
		panic(fmt.Sprintf("get_component: unknown entity %s", handle))
	}
	return loc.Archetype.Get(loc.Row, ty.Id)
}

// AddComponent attaches value (the raw bytes of a ty value) to handle. If
// handle's archetype already has ty, this is a no-op and the caller must
// destroy value itself (immediate-API double-add semantics); reports
// whether the value was consumed (true) or rejected as a duplicate
// (false).
func (s *Storage) AddComponent(handle EntityId, ty *ComponentType, value []byte) bool {
	loc, ok := s.locations[handle]
	if !ok {
		slog.Error("add_component on unknown entity", slog.Any("entity", handle), slog.String("component", ty.Name))
		panic(fmt.Sprintf("add_component: unknown entity %s", handle))
	}

	oldArchetype := loc.Archetype

	if oldArchetype.Has(ty.Id) {
		return false
	}

	newArchetype := s.archetypeAfterInsert(oldArchetype, ty)

	newRow := newArchetype.AddEntity(handle)

	for i, newTy := range newArchetype.Types {
		if newTy.Id == ty.Id {
			newArchetype.Columns[i].Set(newRow, value)
			continue
		}

		oldBytes, ok := oldArchetype.Get(loc.Row, newTy.Id)
		if !ok {
			slog.Error("add_component migration missing column", slog.Any("entity", handle), slog.String("component", newTy.Name))
			panic(fmt.Sprintf("add_component: missing %s while migrating", newTy))
		}
		newArchetype.Columns[i].Set(newRow, oldBytes)
	}

	s.takeOutRow(oldArchetype, loc.Row)
	s.locations[handle] = Location{Archetype: newArchetype, Row: newRow}

	return true
}

// RemoveComponent detaches ty from handle, running its destructor. If
// handle's archetype does not have ty, this is a no-op. Reports whether a
// component was actually removed.
func (s *Storage) RemoveComponent(handle EntityId, ty *ComponentType) bool {
	loc, ok := s.locations[handle]
	if !ok {
		slog.Error("remove_component on unknown entity", slog.Any("entity", handle), slog.String("component", ty.Name))
		panic(fmt.Sprintf("remove_component: unknown entity %s", handle))
	}

	oldArchetype := loc.Archetype

	if !oldArchetype.Has(ty.Id) {
		return false
	}

	newArchetype := s.archetypeAfterRemove(oldArchetype, ty)

	newRow := newArchetype.AddEntity(handle)

	for _, oldTy := range oldArchetype.Types {
		if oldTy.Id == ty.Id {
			continue
		}

		oldBytes, _ := oldArchetype.Get(loc.Row, oldTy.Id)
		columnIdx, ok := s.ColumnIndexOf(newArchetype, oldTy.Id)
		if !ok {
			slog.Error("remove_component migration missing column", slog.Any("entity", handle), slog.String("component", oldTy.Name))
			panic(fmt.Sprintf("remove_component: missing %s in target archetype", oldTy))
		}
		newArchetype.Columns[columnIdx].Set(newRow, oldBytes)
	}

	// destroy the component being removed, then drop the old row without
	// running any further destructors (everything else was byte-copied).
	removedBytes, _ := oldArchetype.Get(loc.Row, ty.Id)
	destroyBytes(ty, removedBytes)

	s.takeOutRow(oldArchetype, loc.Row)
	s.locations[handle] = Location{Archetype: newArchetype, Row: newRow}

	return true
}

func (s *Storage) archetypeAfterInsert(from *Archetype, ty *ComponentType) *Archetype {
	if id, ok := s.graph.lookup(from.Id, ty, true); ok {
		if a, ok := s.archetypes[id]; ok {
			return a
		}
	}

	newIds, _ := insertSorted(from.Ids, ty.Id)
	types := typesForIds(from.Types, ty, newIds)

	to := s.archetypeFor(types)
	s.graph.remember(from.Id, ty, true, to.Id)

	return to
}

func (s *Storage) archetypeAfterRemove(from *Archetype, ty *ComponentType) *Archetype {
	if id, ok := s.graph.lookup(from.Id, ty, false); ok {
		if a, ok := s.archetypes[id]; ok {
			return a
		}
	}

	_, index := removeSorted(from.Ids, ty.Id)
	types := slices.Delete(slices.Clone(from.Types), index, index+1)

	to := s.archetypeFor(types)
	s.graph.remember(from.Id, ty, false, to.Id)

	return to
}

// typesForIds rebuilds a *ComponentType list matching newIds (sorted),
// given the old type list plus the one type being inserted.
func typesForIds(oldTypes []*ComponentType, inserted *ComponentType, newIds []ComponentId) []*ComponentType {
	out := make([]*ComponentType, len(newIds))

	oldIdx := 0
	for i, id := range newIds {
		if id == inserted.Id {
			out[i] = inserted
			continue
		}
		out[i] = oldTypes[oldIdx]
		oldIdx++
	}

	return out
}

// Destroy runs every component destructor on every live entity and
// empties the storage. Mirrors dropping an ArchetypeStorage in the
// original implementation.
func (s *Storage) Destroy() {
	for _, a := range s.archetypeSet {
		a.DeleteAllEntities()
	}
	s.locations = map[EntityId]Location{}
}

func destroyBytes(ty *ComponentType, value []byte) {
	if ty.Size == 0 {
		ty.Destructor(nil)
		return
	}
	ty.Destructor(BytesPointer(value))
}
