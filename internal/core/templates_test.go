package core

import (
	"errors"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/barysiuk/crs/internal/core/system"
)

func TestBuiltinTemplates(t *testing.T) {
	m := NewTemplateManager()

	all, err := m.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, info := range all {
		names = append(names, info.ToolType+"/"+info.Name)
	}
	want := []string{"claude/minimal", "claude/reviewer", "codex/minimal"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}

	codex, _ := m.List("codex")
	if len(codex) != 1 || codex[0].DisplayName != "Minimal" {
		t.Errorf("List(codex) = %+v", codex)
	}

	// Every built-in template must survive validation and restructuring
	// unchanged, the same as a remote import would.
	for _, info := range all {
		tpl, err := m.Get(info.ToolType, info.Name)
		if err != nil {
			t.Fatalf("Get(%s): %v", info.Name, err)
		}
		files := make([]RemoteFile, len(tpl.Files))
		for i, f := range tpl.Files {
			files[i] = RemoteFile{Path: f.Path, Content: f.Content, Size: int64(len(f.Content))}
		}
		res := ValidateTemplate(files)
		if !res.Valid || res.ToolType != info.ToolType || len(res.Warnings) != 0 {
			t.Errorf("%s/%s: validation = %+v", info.ToolType, info.Name, res)
		}
	}
}

func TestTemplateManager_Install(t *testing.T) {
	store, _ := newTestStore(t, system.NewClaudeCode())
	m := NewTemplateManager()

	p, err := m.Install(store, "reviewer", "review", "")
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if p.Description != "Agents and a workflow for thorough pull request reviews." {
		t.Errorf("Description = %q", p.Description)
	}
	if p.Bundle.FileCount() != 5 {
		t.Errorf("FileCount() = %d, want 5", p.Bundle.FileCount())
	}
	if _, err := m.Install(store, "reviewer", "review", ""); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("second Install = %v, want ErrAlreadyExists", err)
	}
	if _, err := m.Install(store, "nope", "x", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Install(nope) = %v, want ErrNotFound", err)
	}

	loaded, err := store.LoadProfile("review")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := loaded.Bundle.(*system.MarkdownBundle).Collection("workflows"); !ok {
		t.Error("workflows collection missing")
	}
}

func TestTemplateManager_SkipsBrokenTemplates(t *testing.T) {
	fsys := fstest.MapFS{
		"claude/good/template.yaml":   {Data: []byte("name: good\ndisplayName: Good\n")},
		"claude/good/CLAUDE.md":       {Data: []byte("root")},
		"claude/noroot/template.yaml": {Data: []byte("name: noroot\n")},
		"claude/nometa/CLAUDE.md":     {Data: []byte("root")},
		"codex/bare/template.yaml":    {Data: []byte("description: d\n")},
		"codex/bare/AGENTS.md":        {Data: []byte("agents")},
	}
	m := NewTemplateManagerFS(fsys)

	list, err := m.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, info := range list {
		names = append(names, info.ToolType+"/"+info.Name+"/"+info.DisplayName)
	}
	want := []string{"claude/good/Good", "codex/bare/bare"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}

	if _, err := m.Get("claude", "noroot"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(noroot) = %v, want ErrNotFound", err)
	}
	if _, err := m.Get("cursor", "good"); err == nil {
		t.Error("Get with an unknown tool should fail")
	}
}
