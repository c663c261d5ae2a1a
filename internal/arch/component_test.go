package arch

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

type destroyCounter struct {
	n *int
}

func (d destroyCounter) Destroy() {
	*d.n++
}

type plainValue struct {
	X, Y float64
}

func TestComponentTypeOf_StableAcrossCalls(t *testing.T) {
	a := ComponentTypeOf[plainValue]()
	b := ComponentTypeOf[plainValue]()

	require.Same(t, a, b)
	require.Equal(t, int(unsafe.Sizeof(plainValue{})), int(a.Size))
}

func TestComponentTypeOf_DistinctTypesGetDistinctIds(t *testing.T) {
	type other struct{ Z int }

	a := ComponentTypeOf[plainValue]()
	b := ComponentTypeOf[other]()

	require.NotEqual(t, a.Id, b.Id)
}

func TestComponentTypeOf_DestroyerIsWired(t *testing.T) {
	var n int
	ty := ComponentTypeOf[destroyCounter]()

	value := destroyCounter{n: &n}
	ty.Destructor(PointerOf(ty, &value))

	require.Equal(t, 1, n)
}

func TestComponentTypeOf_NonDestroyerGetsNoOpDestructor(t *testing.T) {
	ty := ComponentTypeOf[plainValue]()
	require.NotPanics(t, func() {
		ty.Destructor(PointerOf(ty, &plainValue{}))
	})
}

func TestComponentTypeOf_ZeroSized(t *testing.T) {
	type marker struct{}

	ty := ComponentTypeOf[marker]()
	require.True(t, ty.IsZeroSized())
	require.NotPanics(t, func() { ty.Destructor(nil) })
}

func TestComponentTypeOf_RejectsPointerType(t *testing.T) {
	require.Panics(t, func() {
		ComponentTypeOf[*plainValue]()
	})
}

func TestPointerToComponentType_RoundTrips(t *testing.T) {
	ty := ComponentTypeOf[plainValue]()
	p := PointerToComponentType(ty)
	require.Same(t, ty, ComponentTypeFromPointer(p))
}
