package arch

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/archtable/ruecs/internal/assert"
)

// Column is a type-erased, tightly packed array of one component type's
// values inside a single archetype. The backing array is a reflect slice
// of the column's concrete component type (so the garbage collector still
// sees and scans any pointers a component value holds, e.g. a string or
// slice field); callers reach in and out via unsafe byte-spans computed
// over that same memory. Zero-sized component types (marker/tag
// components) store no bytes but still track a count.
type Column struct {
	Type *ComponentType

	slice  reflect.Value // addressable slice of Type.Type
	memory unsafe.Pointer
	count  int
	cap    int
}

func NewColumn(ty *ComponentType) *Column {
	c := &Column{Type: ty}

	if ty.Size > 0 {
		c.slice = reflect.New(reflect.SliceOf(ty.Type)).Elem()
	}

	return c
}

func (c *Column) Len() int {
	return c.count
}

func (c *Column) itemSize() int {
	return int(c.Type.Size)
}

func (c *Column) ptrTo(row Row) unsafe.Pointer {
	return unsafe.Add(c.memory, uintptr(row)*c.Type.Size)
}

// Get returns the byte-span for the value at row. The returned slice
// aliases the column's backing array and is invalidated by the next
// structural mutation of the column.
func (c *Column) Get(row Row) []byte {
	if int(row) >= c.count {
		panic(fmt.Sprintf("%s: row %d out of bounds (len %d)", c.Type, row, c.count))
	}

	size := c.itemSize()
	if size == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(c.ptrTo(row)), size)
}

// Set overwrites the element at row with the raw bytes of an equally
// sized value. Used internally by migration to move component values
// between archetypes without constructing or destroying anything.
func (c *Column) Set(row Row, value []byte) {
	if int(row) >= c.count {
		panic(fmt.Sprintf("%s: row %d out of bounds (len %d)", c.Type, row, c.count))
	}

	size := c.itemSize()
	if size == 0 {
		return
	}

	if len(value) != size {
		panic(fmt.Sprintf("%s: expected %d bytes, got %d", c.Type, size, len(value)))
	}

	copy(unsafe.Slice((*byte)(c.ptrTo(row)), size), value)
}

// ensureSpace grows the backing slice's capacity if the next Append would
// overflow it, refreshing the cached memory pointer afterwards.
func (c *Column) ensureSpace() {
	if c.Type.Size == 0 {
		return
	}

	if c.cap == c.count {
		c.slice.SetLen(c.count)
		c.slice.Grow(max(16, c.count*2/3))
		c.memory = c.slice.UnsafePointer()
		c.cap = c.slice.Cap()
	}
}

// Append grows the column by one slot, initialized to value's bytes, and
// returns the row it was placed at.
func (c *Column) Append(value []byte) Row {
	size := c.itemSize()

	c.ensureSpace()

	row := Row(c.count)
	c.count++

	if size > 0 {
		c.slice.SetLen(c.count)
		copy(unsafe.Slice((*byte)(c.ptrTo(row)), size), value)
	}

	return row
}

// AppendZero grows the column by one uninitialized (zero-filled) slot and
// returns its row. Used by Archetype.AddEntity to keep columns in
// lock-step with the entity list before any component values are known.
func (c *Column) AppendZero() Row {
	c.ensureSpace()

	row := Row(c.count)
	c.count++

	if c.Type.Size > 0 {
		c.slice.SetLen(c.count)

		// the newly exposed slot may hold a stale value from a previous
		// occupant at this capacity; zero it so pointer fields do not
		// keep old garbage reachable.
		zero := reflect.Zero(c.Type.Type)
		c.slice.Index(int(row)).Set(zero)
	}

	return row
}

// TakeOut swap-removes the element at row without running its destructor;
// the caller is expected to have already moved the bytes elsewhere (or to
// not care about them). Returns the row that was moved into row's place,
// if any, so the caller can fix up whatever else is keyed by row.
func (c *Column) TakeOut(row Row) (movedFrom Row, moved bool) {
	last := Row(c.count - 1)

	if row != last && c.Type.Size > 0 {
		c.slice.Index(int(row)).Set(c.slice.Index(int(last)))
	}

	c.count--

	if c.Type.Size > 0 {
		// clear the vacated last slot so it doesn't keep pointer fields
		// of the removed value reachable from the backing array.
		c.slice.Index(int(last)).SetZero()
		c.slice.SetLen(c.count)
	}

	if row == last {
		return 0, false
	}

	return last, true
}

// DeleteAt runs the destructor on the element at row, then swap-removes
// it the same way TakeOut does.
func (c *Column) DeleteAt(row Row) (movedFrom Row, moved bool) {
	c.destroyAt(row)
	return c.TakeOut(row)
}

// DeleteAll runs the destructor on every element, then clears the column.
func (c *Column) DeleteAll() {
	for row := 0; row < c.count; row++ {
		c.destroyAt(Row(row))
	}

	if c.Type.Size > 0 {
		c.slice.SetLen(0)
	}
	c.count = 0
}

func (c *Column) destroyAt(row Row) {
	if c.Type.Size == 0 {
		c.Type.Destructor(nil)
		return
	}

	c.Type.Destructor(c.ptrTo(row))
}

// BytesOf renders value (a *C, for the column's component type C) as the
// raw byte-span to pass to Append/Set.
func BytesOf(ty *ComponentType, value any) []byte {
	size := int(ty.Size)
	if size == 0 {
		return nil
	}

	rv := reflect.ValueOf(value)
	assert.IsPointerType(rv.Type())
	if rv.Type().Elem() != ty.Type {
		panic(describeMismatch(ty, rv.Type()))
	}

	// the byte copy below is invisible to escape analysis; storing value
	// into a package-level sink (never actually taken) makes callers
	// allocate it, and anything it points to, on the heap.
	if bytesOfSink.enabled {
		bytesOfSink.value = value
	}

	return unsafe.Slice((*byte)(rv.UnsafePointer()), size)
}

var bytesOfSink struct {
	enabled bool
	value   any
}

// PointerOf returns the address value points to (value must be a pointer
// to ty.Type), for handing directly to ty.Destructor.
func PointerOf(ty *ComponentType, value any) unsafe.Pointer {
	rv := reflect.ValueOf(value)
	assert.IsPointerType(rv.Type())
	if rv.Type().Elem() != ty.Type {
		panic(describeMismatch(ty, rv.Type()))
	}
	return rv.UnsafePointer()
}
