// Package cmdbuf implements the deferred structural edit log: an
// append-only byte buffer of entity creates/deletes and add/remove
// component commands, safely replayable (Run) or discardable (Discard)
// without ever invalidating a query cursor mid-iteration.
package cmdbuf

import (
	"fmt"

	"github.com/archtable/ruecs/internal/arch"
)

// Tag identifies the kind of one record in the log.
type Tag uint8

const (
	TagCreateEntity Tag = iota
	TagDeleteEntity
	TagAddComponent
	TagRemoveComponent
)

// Buffer is an append-only byte log of deferred structural edits against
// one Storage. The zero value is not usable; construct with New.
//
// CreateEntity is the one exception to "deferred": the handle must be
// usable immediately, so the entity is placed into the empty archetype as
// soon as CreateEntity is recorded and the logged record itself becomes a
// no-op on Run. Every other command only takes effect when Run walks the
// log.
type Buffer struct {
	storage *arch.Storage
	buf     alignedBuffer

	// closed guards against double-applying a buffer; catches an obvious
	// misuse early.
	closed bool
}

func New(storage *arch.Storage) *Buffer {
	return &Buffer{storage: storage}
}

// CreateEntity mints and places a new entity immediately, returning its
// handle so the caller can record further edits against it within the
// same iteration. See the Buffer doc comment for why this isn't deferred.
func (b *Buffer) CreateEntity() arch.EntityId {
	handle := b.storage.CreateEntity()

	b.buf.writeTag(TagCreateEntity)
	b.buf.writeUint64(uint64(handle))

	return handle
}

// DeleteEntity records a deferred delete of handle. Recording it more
// than once for the same entity is legal; the second and later
// applications are no-ops (Run checks the entity still exists before
// deleting it).
func (b *Buffer) DeleteEntity(handle arch.EntityId) {
	b.buf.writeTag(TagDeleteEntity)
	b.buf.writeUint64(uint64(handle))
}

// AddComponent records a deferred add of a value of ty onto handle. The
// payload bytes are copied into the log immediately, constructed in
// place; the caller's own copy of value is unaffected and still owned by
// the caller.
func (b *Buffer) AddComponent(handle arch.EntityId, ty *arch.ComponentType, value []byte) {
	b.buf.writeTag(TagAddComponent)
	b.buf.writeUint64(uint64(handle))
	b.buf.writeUint64(uint64(ty.Id))
	b.buf.writeUintptr(arch.PointerToComponentType(ty))
	b.buf.writeUintptr(ty.Size)

	offset := b.buf.reserveAlignedWithOffsetField(ty.Align, int(ty.Size))
	b.buf.writePayloadAt(offset, value)
}

// RemoveComponent records a deferred remove of ty from handle.
func (b *Buffer) RemoveComponent(handle arch.EntityId, ty *arch.ComponentType) {
	b.buf.writeTag(TagRemoveComponent)
	b.buf.writeUint64(uint64(handle))
	b.buf.writeUint64(uint64(ty.Id))
}

// Run applies every recorded command, in insertion order, to the
// underlying storage, then clears the buffer. AddComponent payload bytes
// are copied into the destination column directly; no constructor or
// destructor runs on a successfully applied payload. An AddComponent
// whose target already has the component runs the payload's destructor
// instead, matching the immediate API's double-add semantics.
func (b *Buffer) Run() {
	b.mustNotBeClosed()

	idx := 0
	for idx < len(b.buf.data) {
		tag := Tag(b.buf.data[idx])
		idx++

		switch tag {
		case TagCreateEntity:
			_ = b.buf.readUint64(&idx) // entity already created at record time

		case TagDeleteEntity:
			handle := arch.EntityId(b.buf.readUint64(&idx))
			if _, ok := b.storage.Locate(handle); ok {
				b.storage.DeleteEntity(handle)
			}

		case TagAddComponent:
			handle := arch.EntityId(b.buf.readUint64(&idx))
			_ = b.buf.readUint64(&idx) // component id: recoverable from ty, kept for the wire format
			ty := arch.ComponentTypeFromPointer(uintptr(b.buf.readUintptr(&idx)))
			size := int(b.buf.readUintptr(&idx))
			offset := int(b.buf.readUintptr(&idx))

			payload := b.buf.payloadAt(offset, size)
			idx = offset + size

			if !b.storage.AddComponent(handle, ty, payload) {
				destroy(ty, payload)
			}

		case TagRemoveComponent:
			handle := arch.EntityId(b.buf.readUint64(&idx))
			componentId := arch.ComponentId(b.buf.readUint64(&idx))

			loc, ok := b.storage.Locate(handle)
			if ok {
				if ty, found := lookupType(loc, componentId); found {
					b.storage.RemoveComponent(handle, ty)
				}
			}

		default:
			panic(fmt.Sprintf("command buffer: unknown tag %d at offset %d", tag, idx-1))
		}
	}

	b.buf.clear()
	b.closed = true
}

// Discard drops every recorded command without applying it, running the
// destructor on every unapplied AddComponent payload so it is destroyed
// exactly once. Close invokes it for a buffer that was never run.
func (b *Buffer) Discard() {
	b.mustNotBeClosed()

	idx := 0
	for idx < len(b.buf.data) {
		tag := Tag(b.buf.data[idx])
		idx++

		switch tag {
		case TagCreateEntity, TagDeleteEntity:
			_ = b.buf.readUint64(&idx)

		case TagRemoveComponent:
			_ = b.buf.readUint64(&idx) // handle
			_ = b.buf.readUint64(&idx) // component id

		case TagAddComponent:
			_ = b.buf.readUint64(&idx) // handle
			_ = b.buf.readUint64(&idx) // component id
			ty := arch.ComponentTypeFromPointer(uintptr(b.buf.readUintptr(&idx)))
			size := int(b.buf.readUintptr(&idx))
			offset := int(b.buf.readUintptr(&idx))

			payload := b.buf.payloadAt(offset, size)
			destroy(ty, payload)

			idx = offset + size

		default:
			panic(fmt.Sprintf("command buffer: unknown tag %d at offset %d", tag, idx-1))
		}
	}

	b.buf.clear()
	b.closed = true
}

// Close implicitly discards any commands that were never run. Safe (and
// a no-op) to call after Run or Discard has already cleared the buffer.
func (b *Buffer) Close() {
	if b.closed || len(b.buf.data) == 0 {
		return
	}

	b.Discard()
}

func (b *Buffer) mustNotBeClosed() {
	if b.closed {
		panic("command buffer already run or discarded")
	}
}

// lookupType resolves a ComponentId back to the *arch.ComponentType
// describing one of loc's current columns, since a RemoveComponent record
// stores only the id (not a pointer).
func lookupType(loc arch.Location, id arch.ComponentId) (*arch.ComponentType, bool) {
	for _, ty := range loc.Archetype.Types {
		if ty.Id == id {
			return ty, true
		}
	}
	return nil, false
}

func destroy(ty *arch.ComponentType, payload []byte) {
	if ty.Size == 0 {
		ty.Destructor(nil)
		return
	}
	ty.Destructor(arch.BytesPointer(payload))
}
