package system

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ClaudeCode implements the System interface for Claude Code.
type ClaudeCode struct {
	BaseSystem
}

// NewClaudeCode creates a configured Claude Code system.
func NewClaudeCode() *ClaudeCode {
	return &ClaudeCode{BaseSystem{
		name:         "claude",
		displayName:  "Claude Code",
		rootDocument: "CLAUDE.md",
		categories:   []string{"agents", "workflows", "commands", "skills"},
		configEnv:    "CLAUDE_CONFIG_DIR",
		configDir:    "~/.claude",
	}}
}

func (c *ClaudeCode) newBundle() *MarkdownBundle {
	return &MarkdownBundle{
		system:      c.name,
		root:        c.rootDocument,
		Collections: make(map[string]map[string]string),
	}
}

// Read loads CLAUDE.md and every category directory present under dir.
// Anything else in dir (settings, projects, history) is not managed.
func (c *ClaudeCode) Read(dir string) (Bundle, error) {
	b := c.newBundle()

	content, ok, err := c.readRoot(dir)
	if err != nil {
		return nil, err
	}
	b.HasInstructions, b.Instructions = ok, content

	for _, cat := range c.categories {
		catDir := filepath.Join(dir, cat)
		if !dirExists(catDir) {
			continue
		}
		files, err := readTree(catDir)
		if err != nil {
			return nil, err
		}
		b.Collections[cat] = files
	}
	return b, nil
}

// Clear removes CLAUDE.md and the category directories from dir.
func (c *ClaudeCode) Clear(dir string) error {
	if err := c.clearRoot(dir); err != nil {
		return err
	}
	for _, cat := range c.categories {
		if err := os.RemoveAll(filepath.Join(dir, cat)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", cat, err)
		}
	}
	return nil
}

// Empty returns a generated CLAUDE.md plus an empty directory per category.
func (c *ClaudeCode) Empty(profileName, description string) Bundle {
	b := c.newBundle()
	b.HasInstructions = true
	b.Instructions = generatedInstructions(profileName, description)
	for _, cat := range c.categories {
		b.Collections[cat] = map[string]string{}
	}
	return b
}

// FromFiles maps CLAUDE.md to the root document and "<category>/..." paths
// into collections. Paths that would leave their collection or name dot-files
// are skipped.
func (c *ClaudeCode) FromFiles(files []File) (Bundle, []string) {
	b := c.newBundle()
	var skipped []string
	for _, f := range files {
		if strings.EqualFold(f.Path, c.rootDocument) {
			b.HasInstructions, b.Instructions = true, f.Content
			continue
		}
		cat, rel, ok := strings.Cut(f.Path, "/")
		if !ok || !validRelPath(rel) || !c.IsCategory(cat) {
			skipped = append(skipped, f.Path)
			continue
		}
		cat = strings.ToLower(cat)
		if b.Collections[cat] == nil {
			b.Collections[cat] = make(map[string]string)
		}
		b.Collections[cat][rel] = f.Content
	}
	return b, skipped
}

func generatedInstructions(profileName, description string) string {
	return fmt.Sprintf("# %s Configuration\n\n## Profile Description\n%s\n\n## Settings\nAdd your configuration here.\n",
		profileName, description)
}

func init() { Register(NewClaudeCode()) }
