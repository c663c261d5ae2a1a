package arch

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// ArchetypeId is the content-addressed id of an archetype: a hash of its
// sorted component id list. Id 0 is reserved for the empty archetype,
// which always exists.
type ArchetypeId uint64

const EmptyArchetypeId ArchetypeId = 0

// Archetype is the storage for the unique population of entities whose
// component set is exactly Ids. Ids is strictly ascending; Columns follow
// the same order and stay in lock-step with Entities: every column's
// length equals len(Entities).
type Archetype struct {
	Id    ArchetypeId
	Ids   []ComponentId
	Types []*ComponentType

	Entities []EntityId
	Columns  []*Column

	columnByType map[ComponentId]*Column
}

func newArchetype(id ArchetypeId, types []*ComponentType) *Archetype {
	a := &Archetype{
		Id:           id,
		Types:        types,
		Ids:          make([]ComponentId, len(types)),
		Columns:      make([]*Column, len(types)),
		columnByType: make(map[ComponentId]*Column, len(types)),
	}

	for i, ty := range types {
		a.Ids[i] = ty.Id
		column := NewColumn(ty)
		a.Columns[i] = column
		a.columnByType[ty.Id] = column
	}

	return a
}

func (a *Archetype) String() string {
	var b strings.Builder
	b.WriteString("Archetype(")
	for i, ty := range a.Types {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ty.String())
	}
	b.WriteString(")")
	return b.String()
}

// Has reports whether componentId is part of this archetype's set.
func (a *Archetype) Has(componentId ComponentId) bool {
	_, found := slices.BinarySearch(a.Ids, componentId)
	return found
}

// HasAll reports whether every id in sortedIds (ascending) is present in
// this archetype's (ascending) id list, via a two-pointer merge that
// halts as soon as one side is exhausted or a miss is found.
func (a *Archetype) HasAll(sortedIds []ComponentId) bool {
	i, j := 0, 0
	for i < len(sortedIds) {
		if j >= len(a.Ids) {
			return false
		}

		switch {
		case a.Ids[j] == sortedIds[i]:
			i++
			j++
		case a.Ids[j] < sortedIds[i]:
			j++
		default:
			return false
		}
	}
	return true
}

// HasNone reports whether no id in sortedIds (ascending) is present in
// this archetype's (ascending) id list.
func (a *Archetype) HasNone(sortedIds []ComponentId) bool {
	i, j := 0, 0
	for i < len(sortedIds) && j < len(a.Ids) {
		switch {
		case a.Ids[j] == sortedIds[i]:
			return false
		case a.Ids[j] < sortedIds[i]:
			j++
		default:
			i++
		}
	}
	return true
}

func (a *Archetype) columnOf(componentId ComponentId) *Column {
	return a.columnByType[componentId]
}

// AddEntity appends handle to the entity list and grows every column by
// one uninitialized slot, returning the new row.
func (a *Archetype) AddEntity(handle EntityId) Row {
	row := Row(len(a.Entities))
	a.Entities = append(a.Entities, handle)

	for _, column := range a.Columns {
		column.AppendZero()
	}

	return row
}

// TakeOutRow swap-removes the entity at row without running any column
// destructor (the caller has already moved the row's values elsewhere,
// or is about to delete the archetype outright). It reports the entity
// that was moved into row, if any, so the caller can fix up its location.
func (a *Archetype) TakeOutRow(row Row) (moved EntityId, ok bool) {
	last := Row(len(a.Entities) - 1)

	for _, column := range a.Columns {
		column.TakeOut(row)
	}

	if row != last {
		a.Entities[row] = a.Entities[last]
		moved, ok = a.Entities[row], true
	}

	a.Entities = a.Entities[:last]
	return moved, ok
}

// DeleteRow runs each column's destructor on the value at row, then
// swap-removes it the same way TakeOutRow does.
func (a *Archetype) DeleteRow(row Row) (moved EntityId, ok bool) {
	last := Row(len(a.Entities) - 1)

	for _, column := range a.Columns {
		column.DeleteAt(row)
	}

	if row != last {
		a.Entities[row] = a.Entities[last]
		moved, ok = a.Entities[row], true
	}

	a.Entities = a.Entities[:last]
	return moved, ok
}

// DeleteAllEntities runs every column's destructor on every live element
// and empties the entity list. Used when the owning Storage is destroyed.
func (a *Archetype) DeleteAllEntities() {
	for _, column := range a.Columns {
		column.DeleteAll()
	}
	a.Entities = nil
}

// Get returns the byte-span for entity's value of componentId within this
// archetype, given its row.
func (a *Archetype) Get(row Row, componentId ComponentId) ([]byte, bool) {
	column := a.columnOf(componentId)
	if column == nil {
		return nil, false
	}
	return column.Get(row), true
}

func insertSorted(ids []ComponentId, id ComponentId) (out []ComponentId, index int) {
	index, found := slices.BinarySearch(ids, id)
	if found {
		slog.Error("component already present", slog.Uint64("componentId", uint64(id)))
		panic(fmt.Sprintf("component %d already present", id))
	}

	out = slices.Insert(slices.Clone(ids), index, id)
	return out, index
}

func removeSorted(ids []ComponentId, id ComponentId) (out []ComponentId, index int) {
	index, found := slices.BinarySearch(ids, id)
	if !found {
		slog.Error("component not present", slog.Uint64("componentId", uint64(id)))
		panic(fmt.Sprintf("component %d not present", id))
	}

	out = slices.Delete(slices.Clone(ids), index, index+1)
	return out, index
}
