package marshal

import (
	"runtime"
	"unsafe"
)

// Arena owns the native scratch memory for a single call. Blocks are backed
// by pinned Go allocations, so their addresses may be handed to native code
// for as long as the arena is live. Release unpins everything; after Release
// no pointer obtained from the arena may be dereferenced.
type Arena struct {
	pinner runtime.Pinner
	blocks [][]byte
}

func NewArena() *Arena {
	return &Arena{}
}

// Alloc returns a zeroed block of native-addressable memory with the given
// size and alignment. Size zero is rounded up to one byte.
func (a *Arena) Alloc(size, align uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		size = 1
	}
	if align == 0 {
		align = 1
	}

	buf := make([]byte, size+align-1)
	a.pinner.Pin(&buf[0])
	a.blocks = append(a.blocks, buf)

	addr := uintptr(unsafe.Pointer(&buf[0]))
	pad := alignUp(addr, align) - addr
	return unsafe.Pointer(&buf[pad]), nil
}

// Pin pins memory the arena does not own (a StructValue's buffer) for the
// arena's lifetime, so it can be passed to native code alongside arena
// blocks.
func (a *Arena) Pin(p unsafe.Pointer) {
	a.pinner.Pin(p)
}

// Release unpins all blocks and drops the arena's references. Safe to call
// multiple times.
func (a *Arena) Release() {
	a.pinner.Unpin()
	a.blocks = nil
}

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}
