// Package dylib wraps the operating system's dynamic loader and turns
// resolved symbols into callable Go functions.
//
// Loading goes through purego's dlopen on unix-like systems and through
// LoadLibrary on Windows. Call construction is fully dynamic: a function
// type is assembled with reflect.FuncOf from the schema-declared signature,
// registered against the symbol address, and invoked through reflection.
// No per-library Go code is generated or compiled.
//
// Faults raised by native code are caught only where the platform surfaces
// them as Go panics. A hard fault inside the callee (a wild write, a stack
// smash) can terminate the process outright; that risk is inherent to
// calling native code and cannot be fenced from Go.
package dylib
