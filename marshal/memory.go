package marshal

import (
	"encoding/binary"
	"fmt"

	nativeruntime "github.com/wippyai/native-runtime"
)

var (
	_ nativeruntime.Allocator = (*Arena)(nil)
	_ nativeruntime.Memory    = (*StructValue)(nil)
)

// Raw byte access to the value's native block, offset-addressed. Multi-byte
// reads and writes use the machine's byte order, matching what native code
// sees through the struct's pointer.

func (sv *StructValue) bounds(offset, length uintptr) error {
	if offset+length > uintptr(len(sv.data)) || offset+length < offset {
		return fmt.Errorf("range [%d, %d) outside struct %s (%d bytes)",
			offset, offset+length, sv.name, len(sv.data))
	}
	return nil
}

func (sv *StructValue) Read(offset, length uintptr) ([]byte, error) {
	if err := sv.bounds(offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, sv.data[offset:])
	return out, nil
}

func (sv *StructValue) Write(offset uintptr, data []byte) error {
	if err := sv.bounds(offset, uintptr(len(data))); err != nil {
		return err
	}
	copy(sv.data[offset:], data)
	return nil
}

func (sv *StructValue) ReadU8(offset uintptr) (uint8, error) {
	if err := sv.bounds(offset, 1); err != nil {
		return 0, err
	}
	return sv.data[offset], nil
}

func (sv *StructValue) ReadU16(offset uintptr) (uint16, error) {
	if err := sv.bounds(offset, 2); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint16(sv.data[offset:]), nil
}

func (sv *StructValue) ReadU32(offset uintptr) (uint32, error) {
	if err := sv.bounds(offset, 4); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(sv.data[offset:]), nil
}

func (sv *StructValue) ReadU64(offset uintptr) (uint64, error) {
	if err := sv.bounds(offset, 8); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint64(sv.data[offset:]), nil
}

func (sv *StructValue) WriteU8(offset uintptr, value uint8) error {
	if err := sv.bounds(offset, 1); err != nil {
		return err
	}
	sv.data[offset] = value
	return nil
}

func (sv *StructValue) WriteU16(offset uintptr, value uint16) error {
	if err := sv.bounds(offset, 2); err != nil {
		return err
	}
	binary.NativeEndian.PutUint16(sv.data[offset:], value)
	return nil
}

func (sv *StructValue) WriteU32(offset uintptr, value uint32) error {
	if err := sv.bounds(offset, 4); err != nil {
		return err
	}
	binary.NativeEndian.PutUint32(sv.data[offset:], value)
	return nil
}

func (sv *StructValue) WriteU64(offset uintptr, value uint64) error {
	if err := sv.bounds(offset, 8); err != nil {
		return err
	}
	binary.NativeEndian.PutUint64(sv.data[offset:], value)
	return nil
}
