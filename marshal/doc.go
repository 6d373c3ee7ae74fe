// Package marshal converts values between the host's dynamic representation
// and their native byte-level form.
//
// All native scratch memory for a call is owned by an Arena: buffers are
// pinned for the duration of the call and released on every exit path, so no
// native memory leaks across calls regardless of marshaling or invocation
// failures.
//
//	a := marshal.NewArena()
//	defer a.Release()
//	ptr, err := enc.String(a, "hello", path)
//
// Struct values are not compiler-level types: a StructValue is a
// field-name-to-offset map over a raw byte buffer with typed accessors,
// produced from a schema struct's computed layout. The same buffer is passed
// by reference into native calls, so callee writes are visible through the
// accessors afterwards.
//
// Numeric conversions validate range: a value that cannot be represented in
// the declared native type is a marshaling error, not a silent truncation.
package marshal
