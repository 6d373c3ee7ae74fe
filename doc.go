// Package nativeruntime provides a dynamic native-interop engine for shared
// libraries.
//
// Given a declarative mapping schema describing a library's exported
// functions, struct layouts and calling conventions, the engine resolves the
// correct binary for the current platform, opens it through the OS loader and
// builds callable bindings that marshal values between Go dynamic values and
// the native C ABI. No compile-time binding step is involved: signatures are
// known only once the schema is parsed.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	native-runtime/      Root package with core memory interfaces
//	├── runtime/         High-level API: Registry, Library, Binding
//	├── schema/          Mapping schema model, parsing and validation
//	├── layout/          Native struct layout computation
//	├── marshal/         Value conversion between Go and native memory
//	├── dylib/           OS loader and dynamic call construction
//	├── errors/          Structured error types for debugging
//	└── cmd/inspect/     Schema and library inspector CLI
//
// # Quick Start
//
// Load a library described by a mapping file and call into it:
//
//	reg := runtime.NewRegistry(runtime.Config{
//	    SearchPaths: []string{".", filepath.Join(home, ".cache", "mappings")},
//	})
//	defer reg.Close()
//
//	lib, err := reg.Load("mathlib")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sum, err := lib.Call("add", 2, 3)
//	fmt.Println(sum) // 5
//
// Struct values are constructed from the schema's declarations and passed by
// reference:
//
//	p1, _ := lib.NewStruct("Point", map[string]any{"x": 0.0, "y": 0.0})
//	p2, _ := lib.NewStruct("Point", map[string]any{"x": 3.0, "y": 4.0})
//	d, _ := lib.Call("distance", p1, p2) // 5.0
//
// # Supported Native Types
//
// The schema grammar covers a closed set of native types:
//
//   - Primitives: bool, int8-int64, uint8-uint64, float32, float64
//   - string (NUL-terminated char*), pointer (opaque machine word)
//   - struct(name) with sequential or explicit layout
//   - array(elem) as function parameters with an explicit length argument
//   - callbacks (native function-pointer types backed by Go functions)
//
// # Threading
//
// Loading is coordinated with one lock per library name, so unrelated
// libraries load independently. Once loaded, bindings are stateless and may
// be called concurrently; the engine does not serialize calls into native
// code. Thread-safety of the native library itself is the library author's
// contract.
package nativeruntime
