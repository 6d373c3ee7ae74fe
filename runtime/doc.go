// Package runtime binds schema-described shared libraries into callable Go
// surfaces.
//
// A Registry owns the loaded libraries. Load locates a mapping schema by
// library name, validates it, resolves the platform binary, opens it through
// the OS loader and constructs one Binding per declared export. Loading is
// atomic: any failure leaves nothing cached and no handle open. Repeated
// loads of the same name return the identical Library.
//
//	reg := runtime.NewRegistry(runtime.Config{SearchPaths: []string{"./schemas"}})
//	defer reg.Close()
//
//	lib, err := reg.Load("mathlib")
//	sum, err := lib.Call("add", 2, 3)
//
// Bindings are stateless after construction and safe for concurrent use.
// Every call owns a private arena for native scratch memory, released on all
// exit paths. The registry never serializes calls; native libraries that are
// not thread-safe must be serialized by the host.
package runtime
