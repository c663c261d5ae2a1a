package arch

import (
	"fmt"
	"hash/maphash"
	"log/slog"
	"reflect"
	"sync"
	"unsafe"

	"github.com/archtable/ruecs/internal/assert"
)

// ComponentId is the stable, process-local identity of a component type.
// It is derived from the type's fully-qualified name, so it is constant
// across the process run but is never persisted across processes.
type ComponentId uint64

// Destroyer is implemented by components that own a resource that must be
// released when the value is dropped (its entity deleted, the component
// removed, the value rejected by a double-add, discarded from a command
// buffer, or the storage destroyed). Moving a value between archetypes
// does not drop it. Components that do not implement it get a no-op
// destructor.
type Destroyer interface {
	Destroy()
}

// ComponentType is the descriptor for one user component type: its stable
// id, its ABI (size and alignment), and the destructor to run on a value
// of this type. A ComponentType is obtained once per Go type and reused
// for the lifetime of the process.
type ComponentType struct {
	Id    ComponentId
	Name  string
	Type  reflect.Type
	Size  uintptr
	Align uintptr

	// Destructor runs the type's Destroy method (if any) on the value
	// living at ptr. It is safe to call on a zero-sized type.
	Destructor func(ptr unsafe.Pointer)
}

func (c *ComponentType) String() string {
	return c.Name
}

func (c *ComponentType) IsZeroSized() bool {
	return c.Size == 0
}

var (
	componentTypesMu sync.Mutex
	componentTypes   = map[reflect.Type]*ComponentType{}
	hashSeed         = maphash.MakeSeed()
)

// ComponentTypeOf returns the ComponentType descriptor for C, registering
// it the first time C is seen. Registration is implicit: nothing needs to
// be declared by the user up front.
func ComponentTypeOf[C any]() *ComponentType {
	rt := reflect.TypeFor[C]()

	componentTypesMu.Lock()
	defer componentTypesMu.Unlock()

	if ty, ok := componentTypes[rt]; ok {
		return ty
	}

	ty := makeComponentType[C](rt)
	componentTypes[rt] = ty

	slog.Debug("registered component type",
		slog.String("name", ty.Name),
		slog.Uint64("id", uint64(ty.Id)),
		slog.Int("size", int(ty.Size)),
	)

	return ty
}

func makeComponentType[C any](rt reflect.Type) *ComponentType {
	// a component's own top-level type must be a plain value type: a
	// *Foo component would make add/remove-component's byte-copy
	// migration alias the same pointee across archetypes instead of
	// moving an independent value.
	assert.IsNonPointerType(rt)

	ty := &ComponentType{
		Id:    hashTypeName(rt),
		Name:  rt.String(),
		Type:  rt,
		Size:  rt.Size(),
		Align: uintptr(rt.Align()),
	}

	if _, ok := reflect.New(rt).Interface().(Destroyer); ok {
		ty.Destructor = func(ptr unsafe.Pointer) {
			reflect.NewAt(rt, ptr).Interface().(Destroyer).Destroy()
		}
	} else {
		ty.Destructor = func(unsafe.Pointer) {}
	}

	return ty
}

// hashTypeName derives a stable, process-local 64-bit component id from a
// type's fully-qualified name.
func hashTypeName(rt reflect.Type) ComponentId {
	name := rt.PkgPath() + "." + rt.Name()
	if name == "." {
		name = rt.String()
	}

	var h maphash.Hash
	h.SetSeed(hashSeed)
	_, _ = h.WriteString(name)
	return ComponentId(h.Sum64())
}

// describeMismatch is used in panics when a caller's value does not match
// a column's declared component type.
func describeMismatch(expected *ComponentType, got reflect.Type) string {
	return fmt.Sprintf("component type mismatch: column holds %s, got %s", expected, got)
}

// PointerToComponentType encodes ty as a bit pattern suitable for storing
// in a command buffer's byte log, standing in for a destructor function
// pointer. This is safe only because every ComponentType is registered
// once and kept alive forever by the process-global registry above, so
// the value never needs the byte log itself to keep it reachable.
func PointerToComponentType(ty *ComponentType) uintptr {
	return uintptr(unsafe.Pointer(ty))
}

// ComponentTypeFromPointer reverses PointerToComponentType.
func ComponentTypeFromPointer(p uintptr) *ComponentType {
	return (*ComponentType)(unsafe.Pointer(p))
}
