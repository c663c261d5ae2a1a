package arch

import (
	"strconv"
	"sync/atomic"
)

// EntityId is an opaque, process-local identity for one logical entity.
// Ids are minted by a Storage in strictly increasing order starting at 1;
// zero is never a valid id.
type EntityId uint64

func (e EntityId) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// idGenerator mints the EntityId sequence for one Storage.
type idGenerator struct {
	next atomic.Uint64
}

func (g *idGenerator) Next() EntityId {
	return EntityId(g.next.Add(1))
}

// Row addresses an entity within a single archetype; the same row index
// addresses that entity's slot in every column of that archetype.
type Row int
