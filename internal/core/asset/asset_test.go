package asset

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	doc, err := Parse("---\nname: reviewer\ndescription: Reviews diffs\n---\nBody text\n", "a.md")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Frontmatter["name"] != "reviewer" {
		t.Errorf("name = %v", doc.Frontmatter["name"])
	}
	if doc.Body != "Body text\n" {
		t.Errorf("Body = %q", doc.Body)
	}
}

func TestParse_EmptyFrontmatter(t *testing.T) {
	doc, err := Parse("---\n---\nhello", "a.md")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Frontmatter) != 0 {
		t.Errorf("Frontmatter = %v, want empty", doc.Frontmatter)
	}
	if doc.Body != "hello" {
		t.Errorf("Body = %q", doc.Body)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		noFM    bool
	}{
		{"plain markdown", "# Title\n", true},
		{"dashes without newline", "----\n", true},
		{"unclosed", "---\nname: x\n", false},
		{"bad yaml", "---\nname: [unterminated\n---\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.content, "x.md")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrNoFrontmatter); got != tt.noFM {
				t.Errorf("errors.Is(ErrNoFrontmatter) = %v, want %v (%v)", got, tt.noFM, err)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if err := Check("# no frontmatter", "a.md"); err != nil {
		t.Errorf("Check(plain) = %v, want nil", err)
	}
	if err := Check("---\nname: ok\n---\n", "a.md"); err != nil {
		t.Errorf("Check(valid) = %v, want nil", err)
	}
	if err := Check("---\nname: [\n---\n", "a.md"); err == nil {
		t.Error("Check(bad yaml) = nil, want error")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		path, content string
		name, desc    string
	}{
		{"agents/reviewer.md", "---\nname: code-reviewer\ndescription: Reviews code\n---\nbody", "code-reviewer", "Reviews code"},
		{"commands/test.md", "# Run the tests\n\nMore.", "test", "Run the tests"},
		{"skills/lint/SKILL.md", "---\ndescription: Lints\n---\n", "lint", "Lints"},
		{"agents/empty.md", "", "empty", ""},
		{"agents/fm-only.md", "---\nname: x\n---\n\nFirst line\n", "x", "First line"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			info := Describe(tt.path, tt.content)
			if info.Name != tt.name || info.Description != tt.desc {
				t.Errorf("Describe() = {%q, %q}, want {%q, %q}", info.Name, info.Description, tt.name, tt.desc)
			}
		})
	}
}
