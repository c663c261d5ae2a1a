package arch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArchetypeIdOf_EmptyIsReservedId(t *testing.T) {
	require.Equal(t, EmptyArchetypeId, archetypeIdOf(nil))
}

func TestArchetypeIdOf_DeterministicForEqualSortedLists(t *testing.T) {
	ids := []ComponentId{1, 2, 3}
	require.Equal(t, archetypeIdOf(ids), archetypeIdOf([]ComponentId{1, 2, 3}))
}

func TestArchetypeIdOf_OrderSensitive(t *testing.T) {
	// archetypeIdOf trusts its input is already sorted; it is not itself
	// responsible for canonicalizing order, so a differently-ordered (and
	// thus not equally-sorted) id list is not guaranteed to collide.
	a := archetypeIdOf([]ComponentId{1, 2})
	b := archetypeIdOf([]ComponentId{2, 1})
	require.NotEqual(t, a, b)
}

func TestArchetypeIdOf_NeverCollidesWithEmpty(t *testing.T) {
	for seed := ComponentId(0); seed < 1000; seed++ {
		require.NotEqual(t, EmptyArchetypeId, archetypeIdOf([]ComponentId{seed}))
	}
}

func TestArchetypeIdOf_DifferentSetsUsuallyDiffer(t *testing.T) {
	a := archetypeIdOf([]ComponentId{10, 20})
	b := archetypeIdOf([]ComponentId{10, 21})
	require.NotEqual(t, a, b)
}
