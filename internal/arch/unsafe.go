package arch

import "unsafe"

// BytesPointer returns a pointer to the first byte of value, for handing
// off to a ComponentType.Destructor. value must be non-empty.
func BytesPointer(value []byte) unsafe.Pointer {
	return unsafe.Pointer(&value[0])
}
