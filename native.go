package nativeruntime

import "unsafe"

// Memory is a bounded window of native memory addressable by byte offset.
type Memory interface {
	Read(offset uintptr, length uintptr) ([]byte, error)
	Write(offset uintptr, data []byte) error
	ReadU8(offset uintptr) (uint8, error)
	ReadU16(offset uintptr) (uint16, error)
	ReadU32(offset uintptr) (uint32, error)
	ReadU64(offset uintptr) (uint64, error)
	WriteU8(offset uintptr, value uint8) error
	WriteU16(offset uintptr, value uint16) error
	WriteU32(offset uintptr, value uint32) error
	WriteU64(offset uintptr, value uint64) error
}

// Allocator hands out native-addressable memory blocks. Blocks stay valid
// until the allocator is released.
type Allocator interface {
	Alloc(size, align uintptr) (unsafe.Pointer, error)
	Release()
}

// WordSize is the machine word size in bytes. Pointers and native handles
// occupy exactly one word.
const WordSize = unsafe.Sizeof(uintptr(0))
