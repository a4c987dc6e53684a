package core

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/barysiuk/crs/internal/core/system"
)

const registryVersion = "1.0.0"

// Registry reads and writes the remote registry document. Every call
// rewrites the whole document.
type Registry struct {
	path string
}

// NewRegistry creates a Registry stored under paths.
func NewRegistry(paths *Paths) *Registry {
	return &Registry{path: paths.RegistryPath()}
}

// Load reads the registry. A missing file is an empty registry; a malformed
// one is an error.
func (r *Registry) Load() (*RemoteRegistry, error) {
	reg := &RemoteRegistry{Version: registryVersion, Remotes: make(map[string]RemoteSource)}
	if err := readJSONC(r.path, reg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return reg, nil
		}
		return nil, fmt.Errorf("loading remote registry: %w", err)
	}
	if reg.Version == "" {
		reg.Version = registryVersion
	}
	if reg.Remotes == nil {
		reg.Remotes = make(map[string]RemoteSource)
	}
	for key, src := range reg.Remotes {
		if src.Name == "" {
			src.Name = key
		}
		if src.Name != key {
			return nil, fmt.Errorf("loading remote registry: entry %q is named %q", key, src.Name)
		}
		if src.URL == "" {
			return nil, fmt.Errorf("loading remote registry: entry %q has no url", key)
		}
		if _, ok := system.ByName(src.ToolType); !ok {
			return nil, fmt.Errorf("loading remote registry: entry %q has unknown tool type %q", key, src.ToolType)
		}
		reg.Remotes[key] = src
	}
	return reg, nil
}

// Save writes the registry atomically.
func (r *Registry) Save(reg *RemoteRegistry) error {
	if reg.Version == "" {
		reg.Version = registryVersion
	}
	return writeJSON(r.path, reg)
}

// Get returns the named remote.
func (r *Registry) Get(name string) (RemoteSource, error) {
	reg, err := r.Load()
	if err != nil {
		return RemoteSource{}, err
	}
	src, ok := reg.Remotes[name]
	if !ok {
		return RemoteSource{}, fmt.Errorf("remote %q: %w", name, ErrNotFound)
	}
	return src, nil
}

// List returns the remotes sorted by name, limited to tool when it is set.
func (r *Registry) List(tool string) ([]RemoteSource, error) {
	reg, err := r.Load()
	if err != nil {
		return nil, err
	}
	var list []RemoteSource
	for _, src := range reg.Remotes {
		if tool == "" || src.ToolType == tool {
			list = append(list, src)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// Upsert adds or replaces the entry for src.Name.
func (r *Registry) Upsert(src RemoteSource) error {
	reg, err := r.Load()
	if err != nil {
		return err
	}
	reg.Remotes[src.Name] = src
	return r.Save(reg)
}

// Remove deletes the named entry.
func (r *Registry) Remove(name string) error {
	reg, err := r.Load()
	if err != nil {
		return err
	}
	if _, ok := reg.Remotes[name]; !ok {
		return fmt.Errorf("remote %q: %w", name, ErrNotFound)
	}
	delete(reg.Remotes, name)
	return r.Save(reg)
}
