package cmdbuf

import (
	"encoding/binary"
	"unsafe"
)

var uintptrAlign = int(unsafe.Alignof(uintptr(0)))

// alignedBuffer is the append-only byte log itself: every fixed-size
// field is written at its natural alignment, padding the buffer as
// needed first.
type alignedBuffer struct {
	data []byte
}

func (b *alignedBuffer) padTo(align int) {
	if align <= 1 {
		return
	}

	if rem := len(b.data) % align; rem != 0 {
		b.data = append(b.data, make([]byte, align-rem)...)
	}
}

// writeTag appends a single untagged byte; a 1-byte field needs no
// padding ahead of it.
func (b *alignedBuffer) writeTag(t Tag) {
	b.data = append(b.data, byte(t))
}

func (b *alignedBuffer) writeUint64(v uint64) {
	b.padTo(8)

	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

func (b *alignedBuffer) writeUintptr(v uintptr) {
	b.padTo(uintptrAlign)

	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	b.data = append(b.data, tmp[:]...)
}

// reserveAlignedWithOffsetField writes a uintptr-sized field holding the
// absolute offset of a size-byte, align-aligned payload span immediately
// following it, then reserves that span (zero-filled) and returns its
// offset. Recording the offset ahead of the payload, rather than making
// the reader recompute it, is what lets a reader skip straight past
// whatever padding was inserted.
func (b *alignedBuffer) reserveAlignedWithOffsetField(align uintptr, size int) int {
	a := int(align)
	if a < 1 {
		a = 1
	}

	b.padTo(uintptrAlign)
	fieldPos := len(b.data)
	b.data = append(b.data, make([]byte, 8)...)

	b.padTo(a)
	offset := len(b.data)
	b.data = append(b.data, make([]byte, size)...)

	binary.LittleEndian.PutUint64(b.data[fieldPos:fieldPos+8], uint64(offset))

	return offset
}

func (b *alignedBuffer) writePayloadAt(offset int, value []byte) {
	copy(b.data[offset:offset+len(value)], value)
}

func (b *alignedBuffer) payloadAt(offset, size int) []byte {
	return b.data[offset : offset+size]
}

func (b *alignedBuffer) readUint64(idx *int) uint64 {
	if rem := *idx % 8; rem != 0 {
		*idx += 8 - rem
	}

	v := binary.LittleEndian.Uint64(b.data[*idx : *idx+8])
	*idx += 8
	return v
}

func (b *alignedBuffer) readUintptr(idx *int) uintptr {
	if rem := *idx % uintptrAlign; rem != 0 {
		*idx += uintptrAlign - rem
	}

	v := binary.LittleEndian.Uint64(b.data[*idx : *idx+8])
	*idx += 8
	return uintptr(v)
}

func (b *alignedBuffer) clear() {
	b.data = b.data[:0]
}
