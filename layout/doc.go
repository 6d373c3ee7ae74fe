// Package layout computes native memory layouts for the structs a mapping
// schema declares: total size, alignment and per-field byte offsets.
//
// Primitive sizes are fixed by the C ABI; pointers are machine-word sized.
// In sequential mode offsets are assigned in declaration order with each
// field aligned to its own requirement and the total size rounded up to the
// maximum field alignment. In explicit mode declared offsets are honored
// verbatim and may overlap, union-style.
//
// Cyclic struct references are rejected by schema validation before a
// Calculator ever sees them; the Calculator still guards against them so a
// hand-built schema cannot loop it.
package layout
