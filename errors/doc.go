// Package errors provides structured error types for the native-runtime
// library.
//
// Errors are categorized by Phase (where in the load/call pipeline the error
// occurred) and Kind (the taxonomy entry). The Error type includes rich
// context: the offending export/struct/field path, Go and native type names,
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindMarshaling).
//		Path("distance", "p1").
//		GoType("string").
//		NativeType("struct(Point)").
//		Detail("cannot convert string to struct").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.EntryPointNotFound("add", "add", "libmath.so")
//	err := errors.ArityMismatch("add", 2, 3)
//
// All errors implement the standard error interface and support
// errors.Is/As. Matching on Kind alone is done with IsKind:
//
//	if errors.IsKind(err, errors.KindMarshaling) { ... }
package errors
