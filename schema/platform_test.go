package schema

import (
	"testing"

	"github.com/wippyai/native-runtime/errors"
)

func TestResolveBinary(t *testing.T) {
	s := &Schema{
		Library: map[string]map[string]string{
			"windows": {"x64": "mathlib.dll", "x86": "mathlib32.dll"},
			"linux":   {"x64": "libmathlib.so", "arm64": "libmathlib-arm64.so"},
			"darwin":  {"x64": "libmathlib.dylib"},
		},
	}

	tests := []struct {
		goos   string
		goarch string
		want   string
	}{
		{"windows", "amd64", "mathlib.dll"},
		{"windows", "386", "mathlib32.dll"},
		{"linux", "amd64", "libmathlib.so"},
		{"linux", "arm64", "libmathlib-arm64.so"},
		{"darwin", "amd64", "libmathlib.dylib"},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := ResolveBinary(s, "mathlib", tt.goos, tt.goarch)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveBinaryAliases(t *testing.T) {
	s := &Schema{
		Library: map[string]map[string]string{
			"macos": {"aarch64": "libdemo.dylib"},
		},
	}

	got, err := ResolveBinary(s, "demo", "darwin", "arm64")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "libdemo.dylib" {
		t.Errorf("got %q", got)
	}
}

func TestResolveBinaryUnsupported(t *testing.T) {
	s := &Schema{
		Library: map[string]map[string]string{
			"linux": {"x64": "libdemo.so"},
		},
	}

	_, err := ResolveBinary(s, "demo", "plan9", "mips")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsKind(err, errors.KindUnsupportedPlatform) {
		t.Errorf("expected unsupported_platform, got %v", err)
	}

	if _, err := ResolveBinary(s, "demo", "linux", "arm64"); err == nil {
		t.Error("expected error for undeclared arch")
	}
}
