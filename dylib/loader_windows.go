//go:build windows

package dylib

import "golang.org/x/sys/windows"

func osOpen(path string) (uintptr, error) {
	h, err := windows.LoadLibrary(path)
	return uintptr(h), err
}

func osLookup(ref uintptr, symbol string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(ref), symbol)
}

func osClose(ref uintptr) error {
	return windows.FreeLibrary(windows.Handle(ref))
}
