// Package importer turns bank CSV exports into ledger rows.
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownBank is returned for a bank name with no registered adapter.
var ErrUnknownBank = errors.New("unknown bank")

// Registry holds bank adapters by name.
type Registry struct {
	adapters map[string]*Adapter
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]*Adapter)}
}

// Register adds an adapter. Panics on duplicate name.
func (r *Registry) Register(a *Adapter) {
	key := strings.ToLower(a.Name)
	if _, ok := r.adapters[key]; ok {
		panic("duplicate bank adapter: " + key)
	}
	r.adapters[key] = a
}

// Get returns the adapter for name, or nil.
func (r *Registry) Get(name string) *Adapter {
	return r.adapters[strings.ToLower(name)]
}

// Lookup is Get with an ErrUnknownBank error listing the known banks.
func (r *Registry) Lookup(name string) (*Adapter, error) {
	if a := r.Get(name); a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("%w %q (known banks: %s)", ErrUnknownBank, name, strings.Join(r.Names(), ", "))
}

// Names returns the registered adapter names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with all built-in adapters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Ally())
	r.Register(CapitalOne())
	r.Register(Chase())
	r.Register(Venmo())
	return r
}

// ProcessedDir is the subdirectory imported files are moved into.
const ProcessedDir = "processed"

// Scan returns the CSV files directly inside dir in name order. A missing
// directory has no files.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves dir/fileName into dir/processed/.
func MarkProcessed(dir, fileName string) error {
	dstDir := filepath.Join(dir, ProcessedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	src := filepath.Join(dir, fileName)
	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
