package system

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRegistry(t *testing.T) {
	names := Names(All())
	want := []string{"claude", "codex"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("Names(All()) = %v, want %v", names, want)
	}

	if _, ok := ByName("cursor"); ok {
		t.Error("ByName(cursor) should not resolve")
	}
	if _, err := Lookup("cursor"); err == nil {
		t.Error("Lookup(cursor) should return an error")
	}

	s, ok := ByRootDocument("claude.md")
	if !ok || s.Name() != "claude" {
		t.Errorf("ByRootDocument(claude.md) = %v, %v", s, ok)
	}
	s, ok = ByRootDocument("AGENTS.md")
	if !ok || s.Name() != "codex" {
		t.Errorf("ByRootDocument(AGENTS.md) = %v, %v", s, ok)
	}
}

func TestConfigDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLAUDE_CONFIG_DIR", dir)
	if got := NewClaudeCode().ConfigDir(); got != dir {
		t.Errorf("ConfigDir() = %q, want %q", got, dir)
	}

	t.Setenv("CODEX_HOME", "")
	t.Setenv("HOME", dir)
	if got, want := NewCodex().ConfigDir(), filepath.Join(dir, ".codex"); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestMarkdownBundle_RoundTrip(t *testing.T) {
	c := NewClaudeCode()
	in, skipped := c.FromFiles([]File{
		{Path: "CLAUDE.md", Content: "# root\n"},
		{Path: "agents/reviewer.md", Content: "review\n"},
		{Path: "skills/lint/SKILL.md", Content: "lint\n"},
		{Path: "skills/lint/scripts/check.py", Content: "print(1)\n"},
	})
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v", skipped)
	}
	mb := in.(*MarkdownBundle)
	mb.Collections["commands"] = map[string]string{}

	dir := t.TempDir()
	if err := in.Write(dir); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := c.Read(dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %#v\nout: %#v", in, out)
	}

	files, ok := out.(*MarkdownBundle).Collection("commands")
	if !ok || len(files) != 0 {
		t.Errorf("commands collection = %v, %v; want present and empty", files, ok)
	}
	if _, ok := out.(*MarkdownBundle).Collection("workflows"); ok {
		t.Error("workflows collection should be absent")
	}
	if got := out.FileCount(); got != 4 {
		t.Errorf("FileCount() = %d, want 4", got)
	}
}

func TestMarkdownBundle_Files(t *testing.T) {
	c := NewClaudeCode()
	b, _ := c.FromFiles([]File{
		{Path: "commands/z.md", Content: "z"},
		{Path: "agents/b.md", Content: "b"},
		{Path: "CLAUDE.md", Content: "root"},
		{Path: "agents/a.md", Content: "a"},
	})
	var paths []string
	for _, f := range b.Files() {
		paths = append(paths, f.Path)
	}
	want := []string{"CLAUDE.md", "agents/a.md", "agents/b.md", "commands/z.md"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Files() = %v, want %v", paths, want)
	}
}

func TestClaudeCode_FromFilesSkipsUnknown(t *testing.T) {
	c := NewClaudeCode()
	b, skipped := c.FromFiles([]File{
		{Path: "README.md", Content: "x"},
		{Path: "Agents/a.md", Content: "a"},
		{Path: "docs/guide.md", Content: "g"},
	})
	if want := []string{"README.md", "docs/guide.md"}; !reflect.DeepEqual(skipped, want) {
		t.Errorf("skipped = %v, want %v", skipped, want)
	}
	if _, ok := b.(*MarkdownBundle).Collection("agents"); !ok {
		t.Error("Agents/ should be folded into agents")
	}
}

func TestClaudeCode_FromFilesRejectsUnsafePaths(t *testing.T) {
	tests := []struct {
		path string
		keep bool
	}{
		{"agents/a.md", true},
		{"skills/review/SKILL.md", true},
		{"agents/../../escaped.md", false},
		{"agents/../CLAUDE.md", false},
		{"agents//a.md", false},
		{"agents/./a.md", false},
		{"agents/.draft.md", false},
		{"skills/.cache/x.md", false},
		{`agents/..\..\x.md`, false},
	}

	c := NewClaudeCode()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			b, skipped := c.FromFiles([]File{{Path: tt.path, Content: "x"}})
			kept := len(skipped) == 0
			if kept != tt.keep {
				t.Fatalf("FromFiles(%q) kept = %v, want %v", tt.path, kept, tt.keep)
			}
			if !kept {
				return
			}

			dir := filepath.Join(t.TempDir(), "profile")
			if err := b.Write(dir); err != nil {
				t.Fatalf("Write: %v", err)
			}
			got, err := c.Read(dir)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if !reflect.DeepEqual(got.Files(), b.Files()) {
				t.Errorf("round trip = %v, want %v", got.Files(), b.Files())
			}
		})
	}
}

func TestMarkdownBundle_WriteStaysInDir(t *testing.T) {
	root := t.TempDir()
	b := NewClaudeCode().newBundle()
	b.Collections["agents"] = map[string]string{"../../escaped.md": "x"}

	if err := b.Write(filepath.Join(root, "profile")); err == nil {
		t.Fatal("Write should refuse a path outside the bundle")
	}
	if _, err := os.Stat(filepath.Join(root, "escaped.md")); !os.IsNotExist(err) {
		t.Errorf("escaped.md was written outside the bundle: %v", err)
	}
}

func TestClaudeCode_ClearKeepsUnmanagedFiles(t *testing.T) {
	c := NewClaudeCode()
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "CLAUDE.md"), "root")
	mustWrite(t, filepath.Join(dir, "agents", "a.md"), "a")
	mustWrite(t, filepath.Join(dir, "settings.json"), "{}")

	if err := c.Clear(dir); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "CLAUDE.md")); !os.IsNotExist(err) {
		t.Error("CLAUDE.md should be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "agents")); !os.IsNotExist(err) {
		t.Error("agents/ should be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "settings.json")); err != nil {
		t.Error("settings.json should be kept")
	}

	// Clearing an already-clear directory is fine.
	if err := c.Clear(dir); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestClaudeCode_ReadSkipsDotFiles(t *testing.T) {
	c := NewClaudeCode()
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "agents", "a.md"), "a")
	mustWrite(t, filepath.Join(dir, "agents", ".DS_Store"), "junk")

	b, err := c.Read(dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := b.FileCount(); got != 1 {
		t.Errorf("FileCount() = %d, want 1", got)
	}
	if b.(*MarkdownBundle).HasInstructions {
		t.Error("HasInstructions should be false without CLAUDE.md")
	}
}

func TestClaudeCode_Empty(t *testing.T) {
	b := NewClaudeCode().Empty("work", "Work setup").(*MarkdownBundle)
	if !b.HasInstructions {
		t.Fatal("empty bundle should carry a generated CLAUDE.md")
	}
	if len(b.Collections) != 4 {
		t.Errorf("collections = %d, want 4", len(b.Collections))
	}
	if b.FileCount() != 1 {
		t.Errorf("FileCount() = %d, want 1", b.FileCount())
	}
}

func TestCodex_RoundTrip(t *testing.T) {
	c := NewCodex()
	in, skipped := c.FromFiles([]File{
		{Path: "AGENTS.md", Content: "# codex\n"},
		{Path: "prompts/p.md", Content: "p"},
	})
	if want := []string{"prompts/p.md"}; !reflect.DeepEqual(skipped, want) {
		t.Errorf("skipped = %v, want %v", skipped, want)
	}

	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "config.toml"), "model = \"o3\"\n")
	if err := in.Write(dir); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := c.Read(dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch: %#v vs %#v", in, out)
	}

	if err := c.Clear(dir); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	out, _ = c.Read(dir)
	if out.FileCount() != 0 {
		t.Errorf("FileCount() after Clear = %d, want 0", out.FileCount())
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Error("config.toml should survive Clear")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
