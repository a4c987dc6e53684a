package core

import (
	"strings"
	"testing"
)

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		name       string
		files      []RemoteFile
		wantValid  bool
		wantTool   string
		wantErrors []string // substrings, one per expected error
		wantWarn   []string // substrings that must appear among warnings
	}{
		{
			name:       "empty",
			files:      nil,
			wantErrors: []string{"No files found"},
		},
		{
			name:       "no root document",
			files:      []RemoteFile{{Path: "README.md", Content: "hi"}},
			wantErrors: []string{"Cannot detect tool type"},
		},
		{
			name:      "codex only",
			files:     []RemoteFile{{Path: "AGENTS.md", Content: "# codex"}},
			wantValid: true,
			wantTool:  "codex",
		},
		{
			name: "claude wins over codex",
			files: []RemoteFile{
				{Path: "AGENTS.md", Content: "a"},
				{Path: "CLAUDE.md", Content: "c"},
			},
			wantValid: true,
			wantTool:  "claude",
		},
		{
			name: "nested root document",
			files: []RemoteFile{
				{Path: "pkg/template/CLAUDE.md", Content: "c"},
				{Path: "pkg/template/agents/a.md", Content: "a"},
			},
			wantValid: true,
			wantTool:  "claude",
		},
		{
			name: "non-markdown in agents",
			files: []RemoteFile{
				{Path: "CLAUDE.md", Content: "c"},
				{Path: "agents/a.txt", Content: "a"},
			},
			wantTool:   "claude",
			wantErrors: []string{"Invalid file in agents/: agents/a.txt"},
		},
		{
			name: "skills may hold helpers",
			files: []RemoteFile{
				{Path: "CLAUDE.md", Content: "c"},
				{Path: "skills/lint/check.py", Content: "print(1)"},
			},
			wantValid: true,
			wantTool:  "claude",
		},
		{
			name: "script is fatal",
			files: []RemoteFile{
				{Path: "CLAUDE.md", Content: "c"},
				{Path: "install.sh", Content: "echo"},
			},
			wantTool:   "claude",
			wantErrors: []string{"Dangerous file type detected: install.sh"},
		},
		{
			name: "sensitive file warns",
			files: []RemoteFile{
				{Path: "AGENTS.md", Content: "a"},
				{Path: ".env", Content: "TOKEN=x"},
			},
			wantValid: true,
			wantTool:  "codex",
			wantWarn:  []string{"Potentially sensitive file: .env"},
		},
		{
			name: "dangerous content warns",
			files: []RemoteFile{
				{Path: "CLAUDE.md", Content: "never run rm -rf / or eval(x)"},
			},
			wantValid: true,
			wantTool:  "claude",
			wantWarn:  []string{"contains: (?i)rm\\s+-rf", "contains: (?i)eval\\s*\\("},
		},
		{
			name: "malformed frontmatter warns",
			files: []RemoteFile{
				{Path: "CLAUDE.md", Content: "c"},
				{Path: "agents/a.md", Content: "---\nname: [oops\n---\nbody\n"},
			},
			wantValid: true,
			wantTool:  "claude",
			wantWarn:  []string{"Malformed frontmatter in agents/a.md"},
		},
		{
			name: "large file warns",
			files: []RemoteFile{
				{Path: "CLAUDE.md", Content: "c", Size: 2 * 1024 * 1024},
			},
			wantValid: true,
			wantTool:  "claude",
			wantWarn:  []string{"Large file detected: CLAUDE.md (2.0 MB)"},
		},
		{
			name: "large template warns",
			files: []RemoteFile{
				{Path: "CLAUDE.md", Content: "c", Size: 900 * 1024},
				{Path: "agents/a.md", Content: "a", Size: 10 * 1024 * 1024},
			},
			wantValid: true,
			wantTool:  "claude",
			wantWarn:  []string{"Template size is large"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateTemplate(tt.files)

			if res.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors: %v)", res.Valid, tt.wantValid, res.Errors)
			}
			if res.Valid != (len(res.Errors) == 0) {
				t.Errorf("Valid = %v disagrees with %d errors", res.Valid, len(res.Errors))
			}
			if res.ToolType != tt.wantTool {
				t.Errorf("ToolType = %q, want %q", res.ToolType, tt.wantTool)
			}
			if len(res.Errors) != len(tt.wantErrors) {
				t.Fatalf("Errors = %v, want %d", res.Errors, len(tt.wantErrors))
			}
			for i, want := range tt.wantErrors {
				if !strings.Contains(res.Errors[i], want) {
					t.Errorf("Errors[%d] = %q, want substring %q", i, res.Errors[i], want)
				}
			}
			for _, want := range tt.wantWarn {
				if !containsSubstring(res.Warnings, want) {
					t.Errorf("Warnings = %v, want one containing %q", res.Warnings, want)
				}
			}
		})
	}
}

func TestValidateTemplateFor(t *testing.T) {
	claudeOnly := []RemoteFile{
		{Path: "CLAUDE.md", Content: "root"},
		{Path: "agents/a.md", Content: "a"},
	}
	tests := []struct {
		name      string
		files     []RemoteFile
		tool      string
		wantValid bool
		wantError string
	}{
		{"detected tool", claudeOnly, "", true, ""},
		{"same tool", claudeOnly, "claude", true, ""},
		{"target root document missing", claudeOnly, "codex", false, "Missing required file: AGENTS.md"},
		{"target present elsewhere", append(claudeOnly, RemoteFile{Path: "codex/AGENTS.md", Content: "x"}), "codex", true, ""},
		{"codex repo as claude", []RemoteFile{{Path: "AGENTS.md", Content: "x"}}, "claude", false, "Missing required file: CLAUDE.md"},
		{"unknown tool", claudeOnly, "cursor", false, "cursor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateTemplateFor(tt.files, tt.tool)
			if res.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors: %v)", res.Valid, tt.wantValid, res.Errors)
			}
			if tt.wantError != "" && !containsSubstring(res.Errors, tt.wantError) {
				t.Errorf("Errors = %v, want one containing %q", res.Errors, tt.wantError)
			}
		})
	}
}

func TestFilterSensitiveFiles(t *testing.T) {
	files := []RemoteFile{
		{Path: "CLAUDE.md"},
		{Path: ".env"},
		{Path: "certs/server.PEM"},
		{Path: "agents/a.md"},
		{Path: "id.key"},
	}
	got := FilterSensitiveFiles(files)
	var paths []string
	for _, f := range got {
		paths = append(paths, f.Path)
	}
	if strings.Join(paths, ",") != "CLAUDE.md,agents/a.md" {
		t.Errorf("FilterSensitiveFiles = %v", paths)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
