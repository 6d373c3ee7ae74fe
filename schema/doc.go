// Package schema defines the mapping schema: the declarative description of
// a shared library's exported functions, struct layouts, callbacks and
// per-platform binaries.
//
// A mapping file is JSON (or YAML, by file extension) of the form:
//
//	{
//	  "library": {
//	    "windows": {"x64": "mathlib.dll"},
//	    "linux":   {"x64": "libmathlib.so"},
//	    "darwin":  {"x64": "libmathlib.dylib"}
//	  },
//	  "version": "1.0.0",
//	  "exports": {
//	    "add": {
//	      "entryPoint": "add",
//	      "returns": "int",
//	      "parameters": [
//	        {"name": "a", "type": "int"},
//	        {"name": "b", "type": "int"}
//	      ],
//	      "callingConvention": "cdecl"
//	    }
//	  },
//	  "structs": {
//	    "Point": {"fields": [{"name": "x", "type": "double"},
//	                         {"name": "y", "type": "double"}]}
//	  },
//	  "callbacks": {}
//	}
//
// ParseFile decodes a mapping file into a Schema; Validate checks the type
// graph (every reference resolves, no struct cycles, explicit offsets all or
// none); ResolveBinary picks the binary for an (OS, architecture) pair.
//
// The type grammar is closed: void, bool, int8-int64, uint8-uint64, float32,
// float64, string, pointer, struct references, callback references, and
// array(elem) in function signatures. C-flavored aliases (int, uint, long,
// float, double, char*) are accepted on input and normalized.
package schema
