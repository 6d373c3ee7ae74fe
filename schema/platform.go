package schema

import (
	"strings"

	"github.com/wippyai/native-runtime/errors"
)

// osAliases and archAliases normalize the spellings mapping files use to the
// GOOS/GOARCH vocabulary.
var osAliases = map[string]string{
	"windows": "windows",
	"win":     "windows",
	"linux":   "linux",
	"darwin":  "darwin",
	"macos":   "darwin",
	"osx":     "darwin",
	"freebsd": "freebsd",
}

var archAliases = map[string]string{
	"amd64":   "amd64",
	"x64":     "amd64",
	"x86_64":  "amd64",
	"386":     "386",
	"x86":     "386",
	"i386":    "386",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"arm":     "arm",
	"riscv64": "riscv64",
}

func normalizeOS(s string) string {
	s = strings.ToLower(s)
	if n, ok := osAliases[s]; ok {
		return n
	}
	return s
}

func normalizeArch(s string) string {
	s = strings.ToLower(s)
	if n, ok := archAliases[s]; ok {
		return n
	}
	return s
}

// ResolveBinary returns the library file name declared for the (goos, goarch)
// pair. Deterministic, no side effects. A missing entry is an
// unsupported_platform error.
func ResolveBinary(s *Schema, libraryName, goos, goarch string) (string, error) {
	goos = normalizeOS(goos)
	goarch = normalizeArch(goarch)

	for osKey, arches := range s.Library {
		if normalizeOS(osKey) != goos {
			continue
		}
		for archKey, file := range arches {
			if normalizeArch(archKey) == goarch && file != "" {
				return file, nil
			}
		}
	}

	return "", errors.UnsupportedPlatform(libraryName, goos, goarch)
}
