//go:build darwin || freebsd || linux

package dylib

import "github.com/ebitengine/purego"

func osOpen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func osLookup(ref uintptr, symbol string) (uintptr, error) {
	return purego.Dlsym(ref, symbol)
}

func osClose(ref uintptr) error {
	return purego.Dlclose(ref)
}
