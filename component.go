package ruecs

import (
	"github.com/archtable/ruecs/internal/arch"
)

// ComponentType is the descriptor for one user component type: its
// stable id, size, alignment, and destructor. Obtained implicitly on
// first use of the Go type via TypeOf.
type ComponentType = arch.ComponentType

// Destroyer is implemented by components that own a resource that must
// be released when a value is dropped. Components that don't implement
// it get a no-op destructor.
type Destroyer = arch.Destroyer

// TypeOf returns the ComponentType descriptor for T, registering it the
// first time T is seen anywhere in the process.
func TypeOf[T any]() *ComponentType {
	return arch.ComponentTypeOf[T]()
}

// HasComponent reports whether handle currently carries a value of T.
func HasComponent[T any](w *World, handle EntityId) bool {
	return w.storage.HasComponent(handle, TypeOf[T]())
}

// GetComponent returns a pointer to handle's value of T, or ok=false if
// it lacks one. The pointer aliases the archetype's backing column and
// is invalidated by the next structural mutation of that archetype.
func GetComponent[T any](w *World, handle EntityId) (value *T, ok bool) {
	bytes, ok := w.storage.GetComponent(handle, TypeOf[T]())
	if !ok {
		return nil, false
	}
	return bytesToValue[T](bytes), true
}

// AddComponent attaches value to handle. If handle already carries a T,
// this is a no-op and value is destroyed in place (the immediate API's
// double-add semantics): the original v₁ survives, v₂ does not.
func AddComponent[T any](w *World, handle EntityId, value T) {
	ty := TypeOf[T]()
	bytes := arch.BytesOf(ty, &value)

	if !w.storage.AddComponent(handle, ty, bytes) {
		runDestructor(ty, &value)
	}
}

// RemoveComponent detaches T from handle, running its destructor. No-op
// if handle lacks a T.
func RemoveComponent[T any](w *World, handle EntityId) {
	w.storage.RemoveComponent(handle, TypeOf[T]())
}

func bytesToValue[T any](bytes []byte) *T {
	var zero T
	if len(bytes) == 0 {
		return &zero
	}
	return (*T)(arch.BytesPointer(bytes))
}

func runDestructor[T any](ty *ComponentType, value *T) {
	if ty.Size == 0 {
		ty.Destructor(nil)
		return
	}
	ty.Destructor(arch.PointerOf(ty, value))
}
