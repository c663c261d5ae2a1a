package ruecs

import (
	"github.com/archtable/ruecs/internal/arch"
	"github.com/archtable/ruecs/internal/cmdbuf"
)

// CommandBuffer is a deferred edit log of entity creates/deletes and
// add/remove-component operations, safe to record during query
// iteration. Run applies every recorded command in insertion order and
// clears the buffer; Discard drops them, destroying every unapplied
// AddComponent payload. Close discards a buffer that was never run;
// nothing discards it automatically when it is dropped.
type CommandBuffer struct {
	world *World
	buf   *cmdbuf.Buffer
}

func newCommandBuffer(w *World) *CommandBuffer {
	return &CommandBuffer{world: w, buf: cmdbuf.New(w.storage)}
}

// CreateEntity mints and places a new entity immediately, returning a
// handle the caller can record further edits against within the same
// iteration. The logged record itself is a no-op once Run reaches it.
func (cb *CommandBuffer) CreateEntity() EntityId {
	return cb.buf.CreateEntity()
}

// DeleteEntity records a deferred delete of handle. Recording it more
// than once is legal; later applications are no-ops.
func (cb *CommandBuffer) DeleteEntity(handle EntityId) {
	cb.buf.DeleteEntity(handle)
}

// CommandAddComponent records a deferred add of value onto handle. The
// payload is copied into the log immediately; the caller's own copy is
// untouched.
func CommandAddComponent[T any](cb *CommandBuffer, handle EntityId, value T) {
	ty := TypeOf[T]()
	cb.buf.AddComponent(handle, ty, arch.BytesOf(ty, &value))
}

// CommandRemoveComponent records a deferred remove of T from handle.
func CommandRemoveComponent[T any](cb *CommandBuffer, handle EntityId) {
	cb.buf.RemoveComponent(handle, TypeOf[T]())
}

// Run applies every recorded command, in insertion order, then clears
// the buffer.
func (cb *CommandBuffer) Run() {
	cb.buf.Run()
}

// Discard drops every recorded command without applying it, running the
// destructor on every unapplied AddComponent payload.
func (cb *CommandBuffer) Discard() {
	cb.buf.Discard()
}

// Close implicitly discards any commands that were never run. Safe to
// call after Run or Discard.
func (cb *CommandBuffer) Close() {
	cb.buf.Close()
}
