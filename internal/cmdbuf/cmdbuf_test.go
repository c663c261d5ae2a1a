package cmdbuf

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archtable/ruecs/internal/arch"
)

type pos struct{ X, Y float64 }
type vel struct{ X, Y float64 }

type tagMarker struct{}

type tracked struct{ n *int }

func (t tracked) Destroy() { *t.n++ }

func TestBuffer_CreateEntityIsUsableImmediately(t *testing.T) {
	s := arch.NewStorage()
	b := New(s)
	defer b.Close()

	e := b.CreateEntity()

	_, ok := s.Locate(e)
	require.True(t, ok, "CreateEntity must place the handle eagerly, not defer it to Run")
}

func TestBuffer_RunAppliesAddComponentInOrder(t *testing.T) {
	s := arch.NewStorage()
	posTy := arch.ComponentTypeOf[pos]()
	velTy := arch.ComponentTypeOf[vel]()

	b := New(s)
	defer b.Close()

	e := b.CreateEntity()
	b.AddComponent(e, posTy, arch.BytesOf(posTy, &pos{X: 3, Y: 4}))
	b.AddComponent(e, velTy, arch.BytesOf(velTy, &vel{X: 1, Y: 1}))

	b.Run()

	posBytes, ok := s.GetComponent(e, posTy)
	require.True(t, ok)
	require.Equal(t, pos{3, 4}, *(*pos)(arch.BytesPointer(posBytes)))

	velBytes, ok := s.GetComponent(e, velTy)
	require.True(t, ok)
	require.Equal(t, vel{1, 1}, *(*vel)(arch.BytesPointer(velBytes)))
}

func TestBuffer_RunMixedPayloadSizesStayAligned(t *testing.T) {
	s := arch.NewStorage()
	tagTy := arch.ComponentTypeOf[tagMarker]()
	posTy := arch.ComponentTypeOf[pos]()

	b := New(s)
	defer b.Close()

	e1 := b.CreateEntity()
	b.AddComponent(e1, tagTy, arch.BytesOf(tagTy, &tagMarker{}))

	e2 := b.CreateEntity()
	b.AddComponent(e2, posTy, arch.BytesOf(posTy, &pos{X: 5, Y: 6}))

	b.DeleteEntity(e1)

	b.Run()

	_, ok := s.Locate(e1)
	require.False(t, ok)

	posBytes, ok := s.GetComponent(e2, posTy)
	require.True(t, ok)
	require.Equal(t, pos{5, 6}, *(*pos)(arch.BytesPointer(posBytes)))
}

func TestBuffer_RunRemoveComponent(t *testing.T) {
	s := arch.NewStorage()
	posTy := arch.ComponentTypeOf[pos]()
	velTy := arch.ComponentTypeOf[vel]()

	e := s.CreateEntity()
	s.AddComponent(e, posTy, arch.BytesOf(posTy, &pos{X: 1, Y: 1}))
	s.AddComponent(e, velTy, arch.BytesOf(velTy, &vel{X: 2, Y: 2}))

	b := New(s)
	defer b.Close()

	b.RemoveComponent(e, velTy)
	b.Run()

	_, ok := s.GetComponent(e, velTy)
	require.False(t, ok)

	posBytes, _ := s.GetComponent(e, posTy)
	require.Equal(t, pos{1, 1}, *(*pos)(arch.BytesPointer(posBytes)))
}

func TestBuffer_RepeatedDeleteEntityIsNoOpOnSecondApplication(t *testing.T) {
	s := arch.NewStorage()
	e := s.CreateEntity()

	b := New(s)
	defer b.Close()

	b.DeleteEntity(e)
	b.DeleteEntity(e)

	require.NotPanics(t, b.Run)
}

// Command-buffer atomicity of payloads: every AddComponent's destructor
// runs exactly once, whether applied or discarded.
func TestBuffer_RunDestroysRejectedDoubleAddPayload(t *testing.T) {
	s := arch.NewStorage()
	ty := arch.ComponentTypeOf[tracked]()

	var n1, n2 int
	e := s.CreateEntity()
	s.AddComponent(e, ty, arch.BytesOf(ty, &tracked{n: &n1}))

	b := New(s)
	defer b.Close()

	b.AddComponent(e, ty, arch.BytesOf(ty, &tracked{n: &n2}))
	b.Run()

	require.Equal(t, 0, n1, "the value already owned by the entity is untouched")
	require.Equal(t, 1, n2, "the rejected duplicate is destroyed exactly once")
}

func TestBuffer_DiscardDestroysUnappliedAddComponentPayloadExactlyOnce(t *testing.T) {
	s := arch.NewStorage()
	ty := arch.ComponentTypeOf[tracked]()

	var n int
	e := s.CreateEntity()

	b := New(s)
	b.AddComponent(e, ty, arch.BytesOf(ty, &tracked{n: &n}))
	b.Discard()

	require.Equal(t, 1, n)

	_, ok := s.GetComponent(e, ty)
	require.False(t, ok)
}

func TestBuffer_CloseImplicitlyDiscardsUnrunCommands(t *testing.T) {
	s := arch.NewStorage()
	ty := arch.ComponentTypeOf[tracked]()

	var n int
	e := s.CreateEntity()

	b := New(s)
	b.AddComponent(e, ty, arch.BytesOf(ty, &tracked{n: &n}))
	b.Close()

	require.Equal(t, 1, n)
}

func TestBuffer_RunTwiceIsRejected(t *testing.T) {
	s := arch.NewStorage()
	b := New(s)
	defer b.Close()

	b.CreateEntity()
	b.Run()

	require.Panics(t, b.Run)
}

func TestBuffer_CloseAfterRunIsNoOp(t *testing.T) {
	s := arch.NewStorage()
	ty := arch.ComponentTypeOf[tracked]()

	var n int
	e := s.CreateEntity()

	b := New(s)
	b.AddComponent(e, ty, arch.BytesOf(ty, &tracked{n: &n}))
	b.Run()
	require.Equal(t, 0, n)

	b.Close()
	require.Equal(t, 0, n, "Close after Run must not double-destroy an already-applied payload")
}
