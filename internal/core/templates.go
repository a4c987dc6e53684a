package core

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/barysiuk/crs/internal/core/system"
)

//go:embed templates
var builtinTemplates embed.FS

const templateMetaName = "template.yaml"

// TemplateInfo is the metadata of a built-in template.
type TemplateInfo struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"displayName"`
	Description string   `yaml:"description"`
	ToolType    string   `yaml:"toolType"`
	Category    string   `yaml:"category"`
	Tags        []string `yaml:"tags"`
	Version     string   `yaml:"version"`
	Author      string   `yaml:"author"`
}

// Template is a built-in template with its files.
type Template struct {
	TemplateInfo
	Files []system.File
}

// TemplateManager serves the templates shipped with crs.
type TemplateManager struct {
	fsys fs.FS
}

// NewTemplateManager creates a TemplateManager over the built-in templates.
func NewTemplateManager() *TemplateManager {
	sub, err := fs.Sub(builtinTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return &TemplateManager{fsys: sub}
}

// NewTemplateManagerFS creates a TemplateManager over fsys, laid out as
// <tool>/<template>/template.yaml plus files.
func NewTemplateManagerFS(fsys fs.FS) *TemplateManager {
	return &TemplateManager{fsys: fsys}
}

// List returns the templates for tool, or for every tool when tool is
// empty, sorted by tool and name. Templates without metadata or without the
// tool's root document are left out.
func (m *TemplateManager) List(tool string) ([]TemplateInfo, error) {
	systems := system.All()
	if tool != "" {
		sys, err := system.Lookup(tool)
		if err != nil {
			return nil, err
		}
		systems = []system.System{sys}
	}

	var list []TemplateInfo
	for _, sys := range systems {
		entries, err := fs.ReadDir(m.fsys, sys.Name())
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading templates: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			info, err := m.readInfo(sys, e.Name())
			if err != nil {
				continue
			}
			list = append(list, *info)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].ToolType != list[j].ToolType {
			return list[i].ToolType < list[j].ToolType
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

// Get returns a template with its files.
func (m *TemplateManager) Get(tool, name string) (*Template, error) {
	sys, err := system.Lookup(tool)
	if err != nil {
		return nil, err
	}
	info, err := m.readInfo(sys, name)
	if err != nil {
		return nil, err
	}

	dir := path.Join(sys.Name(), name)
	t := &Template{TemplateInfo: *info}
	err = fs.WalkDir(m.fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel := p[len(dir)+1:]
		if rel == templateMetaName {
			return nil
		}
		data, err := fs.ReadFile(m.fsys, p)
		if err != nil {
			return err
		}
		t.Files = append(t.Files, system.File{Path: rel, Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading template %q: %w", name, err)
	}
	return t, nil
}

// Install creates a new profile in store from a template.
func (m *TemplateManager) Install(store *ProfileStore, templateName, profileName, description string) (*Profile, error) {
	t, err := m.Get(store.System().Name(), templateName)
	if err != nil {
		return nil, err
	}
	b, _ := store.System().FromFiles(t.Files)
	if description == "" {
		description = t.Description
	}
	return store.CreateFromBundle(profileName, description, b)
}

func (m *TemplateManager) readInfo(sys system.System, name string) (*TemplateInfo, error) {
	dir := path.Join(sys.Name(), name)
	data, err := fs.ReadFile(m.fsys, path.Join(dir, templateMetaName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("template %q for %s: %w", name, sys.Name(), ErrNotFound)
		}
		return nil, err
	}
	if _, err := fs.Stat(m.fsys, path.Join(dir, sys.RootDocument())); err != nil {
		return nil, fmt.Errorf("template %q for %s: missing %s: %w", name, sys.Name(), sys.RootDocument(), ErrNotFound)
	}

	var info TemplateInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing %s of template %q: %w", templateMetaName, name, err)
	}
	if info.Name == "" {
		info.Name = name
	}
	if info.DisplayName == "" {
		info.DisplayName = info.Name
	}
	info.ToolType = sys.Name()
	return &info, nil
}
