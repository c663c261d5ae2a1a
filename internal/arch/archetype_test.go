package arch

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// sortedTypes returns types reordered to match ascending component id, the
// invariant Archetype requires of its Types/Ids slices.
func sortedTypes(types ...*ComponentType) []*ComponentType {
	out := slices.Clone(types)
	slices.SortFunc(out, func(a, b *ComponentType) int {
		switch {
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		default:
			return 0
		}
	})
	return out
}

func idsOf(types []*ComponentType) []ComponentId {
	ids := make([]ComponentId, len(types))
	for i, ty := range types {
		ids[i] = ty.Id
	}
	return ids
}

func TestArchetype_HasAllHasNone(t *testing.T) {
	posTy := ComponentTypeOf[vec2]()
	velTy := ComponentTypeOf[named]()

	types := sortedTypes(posTy, velTy)
	a := newArchetype(archetypeIdOf(idsOf(types)), types)

	require.True(t, a.HasAll(nil))
	require.True(t, a.HasAll([]ComponentId{posTy.Id}))
	require.True(t, a.HasAll(idsOf(types)))

	type other struct{ Z int }
	otherTy := ComponentTypeOf[other]()
	require.False(t, a.HasAll([]ComponentId{otherTy.Id}))

	require.True(t, a.HasNone(nil))
	require.True(t, a.HasNone([]ComponentId{otherTy.Id}))
	require.False(t, a.HasNone([]ComponentId{posTy.Id}))
}

func TestArchetype_AddEntityKeepsColumnsInLockStep(t *testing.T) {
	ty := ComponentTypeOf[vec2]()
	a := newArchetype(archetypeIdOf([]ComponentId{ty.Id}), []*ComponentType{ty})

	row := a.AddEntity(EntityId(1))
	require.Equal(t, Row(0), row)
	require.Len(t, a.Entities, 1)
	require.Equal(t, 1, a.Columns[0].Len())
}

func TestArchetype_TakeOutRowReportsDisplacedEntity(t *testing.T) {
	ty := ComponentTypeOf[vec2]()
	a := newArchetype(archetypeIdOf([]ComponentId{ty.Id}), []*ComponentType{ty})

	a.AddEntity(EntityId(1))
	a.AddEntity(EntityId(2))

	moved, ok := a.TakeOutRow(0)
	require.True(t, ok)
	require.Equal(t, EntityId(2), moved)
	require.Equal(t, EntityId(2), a.Entities[0])
}

func TestArchetype_DeleteRowRunsDestructors(t *testing.T) {
	var n int
	ty := ComponentTypeOf[destroyCounter]()
	a := newArchetype(archetypeIdOf([]ComponentId{ty.Id}), []*ComponentType{ty})

	row := a.AddEntity(EntityId(1))
	v := destroyCounter{n: &n}
	a.Columns[0].Set(row, BytesOf(ty, &v))

	a.DeleteRow(row)
	require.Equal(t, 1, n)
}

func TestInsertSortedPanicsOnDuplicate(t *testing.T) {
	ids := []ComponentId{1, 3, 5}

	out, idx := insertSorted(ids, 4)
	require.Equal(t, []ComponentId{1, 3, 4, 5}, out)
	require.Equal(t, 2, idx)

	require.Panics(t, func() { insertSorted(ids, 3) })
}

func TestRemoveSortedPanicsOnMissing(t *testing.T) {
	ids := []ComponentId{1, 3, 5}

	out, idx := removeSorted(ids, 3)
	require.Equal(t, []ComponentId{1, 5}, out)
	require.Equal(t, 1, idx)

	require.Panics(t, func() { removeSorted(ids, 4) })
}
