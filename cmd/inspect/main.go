package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/native-runtime/runtime"
	"github.com/wippyai/native-runtime/schema"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func main() {
	var (
		schemaDirs  = flag.String("schemas", ".", "Schema search directories (comma-separated, probed in order)")
		libName     = flag.String("lib", "", "Library name to load")
		callExport  = flag.String("call", "", "Export to call (optional)")
		callArgs    = flag.String("args", "", "Call arguments (comma-separated)")
		showLayouts = flag.Bool("layouts", false, "Show computed struct layouts")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *libName == "" {
		fmt.Fprintln(os.Stderr, "Usage: inspect -schemas <dirs> -lib <name> [-layouts] [-call export -args a,b]")
		fmt.Fprintln(os.Stderr, "       inspect -schemas <dirs> -lib <name> -i  (interactive mode)")
		os.Exit(1)
	}

	paths := strings.Split(*schemaDirs, ",")

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(paths, *libName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(paths, *libName, *callExport, *callArgs, *showLayouts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(paths []string, libName, callExport, callArgs string, showLayouts bool) error {
	reg := runtime.NewRegistry(runtime.Config{SearchPaths: paths})
	defer reg.Close()

	lib, err := reg.Load(libName)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("Library: ") + lib.Name())
	if v := lib.Version(); v != "" {
		fmt.Println(headerStyle.Render("Version: ") + v)
	}
	fmt.Println(headerStyle.Render("Binary:  ") + lib.BinaryPath())

	fmt.Println()
	fmt.Println(headerStyle.Render("Exports:"))
	for _, info := range lib.Surface() {
		line := "  " + nameStyle.Render(info.Name) + dimStyle.Render(" -> "+info.EntryPoint)
		fmt.Println(line)
		fmt.Println("    " + info.Signature)
	}

	if showLayouts {
		if err := printLayouts(lib); err != nil {
			return err
		}
	}

	if callExport != "" {
		return call(lib, callExport, callArgs)
	}
	return nil
}

func printLayouts(lib *runtime.Library) error {
	fmt.Println()
	fmt.Println(headerStyle.Render("Struct layouts:"))

	names := lib.StructNames()
	sort.Strings(names)
	for _, name := range names {
		info, err := lib.Layouts().Struct(name)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %s\n", nameStyle.Render(name),
			dimStyle.Render(fmt.Sprintf("(size %d, align %d)", info.Size, info.Align)))
		for _, f := range info.Fields {
			fmt.Printf("    %-16s %-12s offset %d\n", f.Name, f.Type.String(), f.Offset)
		}
	}
	return nil
}

func call(lib *runtime.Library, export, argStr string) error {
	def, err := lib.Export(export)
	if err != nil {
		return err
	}

	var raw []string
	if argStr != "" {
		raw = strings.Split(argStr, ",")
	}
	if len(raw) != len(def.Params) {
		return fmt.Errorf("%s takes %d argument(s), got %d", export, len(def.Params), len(raw))
	}

	args := make([]any, len(raw))
	for i, s := range raw {
		v, err := convertArg(strings.TrimSpace(s), def.Params[i].Type)
		if err != nil {
			return fmt.Errorf("argument %s: %w", def.Params[i].Name, err)
		}
		args[i] = v
	}

	result, err := lib.Call(export, args...)
	if err != nil {
		return err
	}

	fmt.Println()
	if result == nil {
		fmt.Println(headerStyle.Render("Result: ") + dimStyle.Render("void"))
	} else {
		fmt.Println(headerStyle.Render("Result: ") + fmt.Sprintf("%v", result))
	}
	return nil
}

// convertArg parses a CLI string into the declared parameter type. Only
// scalar and string parameters can be supplied from the command line.
func convertArg(value string, t schema.Type) (any, error) {
	switch t.Kind {
	case schema.KindString:
		return value, nil
	case schema.KindBool:
		return value == "true" || value == "1", nil
	case schema.KindFloat32, schema.KindFloat64:
		return strconv.ParseFloat(value, 64)
	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64:
		return strconv.ParseInt(value, 10, 64)
	case schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64:
		return strconv.ParseUint(value, 10, 64)
	case schema.KindPointer:
		v, err := strconv.ParseUint(value, 0, 64)
		return uintptr(v), err
	default:
		return nil, fmt.Errorf("type %s cannot be supplied from the command line", t.String())
	}
}
