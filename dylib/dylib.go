package dylib

import (
	"sync/atomic"

	"github.com/wippyai/native-runtime/errors"
)

// Handle is an open shared library.
type Handle struct {
	path   string
	ref    uintptr
	closed atomic.Bool
}

// Path returns the filesystem path the library was opened from.
func (h *Handle) Path() string { return h.path }

// Open loads the shared library at path.
func Open(path string) (*Handle, error) {
	ref, err := osOpen(path)
	if err != nil {
		return nil, errors.LibraryLoad(path, err)
	}
	return &Handle{path: path, ref: ref}, nil
}

// Lookup resolves a symbol's address. The export and symbol names are
// carried into the error so a missing entry point reports both.
func (h *Handle) Lookup(export, symbol string) (uintptr, error) {
	if h.closed.Load() {
		return 0, errors.LibraryLoad(h.path, nil)
	}
	addr, err := osLookup(h.ref, symbol)
	if err != nil || addr == 0 {
		return 0, errors.EntryPointNotFound(export, symbol, h.path)
	}
	return addr, nil
}

// Close releases the OS handle. Safe to call more than once.
func (h *Handle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return osClose(h.ref)
}
