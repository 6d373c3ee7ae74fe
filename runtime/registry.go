package runtime

import (
	"os"
	"path/filepath"
	goruntime "runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/native-runtime/dylib"
	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/layout"
	"github.com/wippyai/native-runtime/schema"
)

// Config controls registry construction.
type Config struct {
	// SearchPaths are the candidate schema directories, probed in order.
	SearchPaths []string

	// Logger defaults to the package logger.
	Logger *zap.Logger
}

// Registry loads and caches libraries by name. Loading the same name twice
// returns the identical Library; the underlying binary is opened at most
// once per name.
type Registry struct {
	cfg Config
	log *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	libs  map[string]*Library

	loads atomic.Int64
}

func NewRegistry(cfg Config) *Registry {
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	return &Registry{
		cfg:   cfg,
		log:   log,
		locks: make(map[string]*sync.Mutex),
		libs:  make(map[string]*Library),
	}
}

// schemaExts in probe order.
var schemaExts = []string{".json", ".yaml", ".yml"}

// nameLock returns the per-name mutex, creating it on first use. Loads of
// distinct names never contend.
func (r *Registry) nameLock(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	return l
}

// Load returns the library registered under name, opening it on first use.
func (r *Registry) Load(name string) (*Library, error) {
	lock := r.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	lib, ok := r.libs[name]
	r.mu.Unlock()
	if ok {
		return lib, nil
	}

	lib, err := r.open(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.libs[name] = lib
	r.mu.Unlock()

	r.log.Debug("library loaded",
		zap.String("library", name),
		zap.String("binary", lib.handle.Path()),
		zap.Int("exports", len(lib.bindings)))
	return lib, nil
}

// LoadCount reports how many times a binary was actually opened. Cache hits
// do not count.
func (r *Registry) LoadCount() int64 {
	return r.loads.Load()
}

func (r *Registry) open(name string) (*Library, error) {
	schemaPath, err := r.locate(name)
	if err != nil {
		return nil, err
	}

	s, err := schema.ParseFile(schemaPath)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(s); err != nil {
		return nil, err
	}

	binary, err := schema.ResolveBinary(s, name, goruntime.GOOS, goruntime.GOARCH)
	if err != nil {
		return nil, err
	}
	// Bare sonames go to the OS loader's own search; anything with a path
	// separator is schema-relative.
	if !filepath.IsAbs(binary) && strings.ContainsRune(binary, '/') {
		binary = filepath.Join(filepath.Dir(schemaPath), binary)
	}

	handle, err := dylib.Open(binary)
	if err != nil {
		return nil, err
	}

	lib := &Library{
		name:    name,
		schema:  s,
		handle:  handle,
		layouts: layout.NewCalculator(s.Structs),
		log:     r.log,
	}
	lib.state.Store(stateLoading)

	lib.bindings = make(map[string]*Binding, len(s.Exports))
	for _, export := range sortedExports(s) {
		b, err := newBinding(lib, export, s.Exports[export])
		if err != nil {
			handle.Close()
			return nil, err
		}
		lib.bindings[export] = b
	}

	lib.state.Store(stateLoaded)
	r.loads.Add(1)
	return lib, nil
}

// locate probes every search path for <name>.json, .yaml, .yml and returns
// the first hit.
func (r *Registry) locate(name string) (string, error) {
	searched := make([]string, 0, len(r.cfg.SearchPaths)*len(schemaExts))
	for _, dir := range r.cfg.SearchPaths {
		for _, ext := range schemaExts {
			candidate := filepath.Join(dir, name+ext)
			searched = append(searched, candidate)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}
	return "", errors.MappingNotFound(name, searched)
}

// Unload closes the named library and forgets it. Calls through surviving
// Binding references fail with use_after_unload.
func (r *Registry) Unload(name string) error {
	lock := r.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	lib, ok := r.libs[name]
	delete(r.libs, name)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return lib.close()
}

// Close unloads every library. The registry stays usable; closed names
// reload on the next Load.
func (r *Registry) Close() error {
	r.mu.Lock()
	names := make([]string, 0, len(r.libs))
	for name := range r.libs {
		names = append(names, name)
	}
	r.mu.Unlock()

	var first error
	for _, name := range names {
		if err := r.Unload(name); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func sortedExports(s *schema.Schema) []string {
	names := make([]string, 0, len(s.Exports))
	for name := range s.Exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
