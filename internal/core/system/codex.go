package system

import "strings"

// Codex implements the System interface for the Codex CLI.
type Codex struct {
	BaseSystem
}

// NewCodex creates a configured Codex system.
func NewCodex() *Codex {
	return &Codex{BaseSystem{
		name:         "codex",
		displayName:  "Codex",
		rootDocument: "AGENTS.md",
		configEnv:    "CODEX_HOME",
		configDir:    "~/.codex",
	}}
}

func (c *Codex) newBundle() *DocumentBundle {
	return &DocumentBundle{system: c.name, root: c.rootDocument}
}

// Read loads AGENTS.md from dir. Codex keeps config.toml, auth and sessions
// next to it; those are never touched.
func (c *Codex) Read(dir string) (Bundle, error) {
	b := c.newBundle()
	content, ok, err := c.readRoot(dir)
	if err != nil {
		return nil, err
	}
	b.HasInstructions, b.Instructions = ok, content
	return b, nil
}

// Clear removes AGENTS.md from dir.
func (c *Codex) Clear(dir string) error {
	return c.clearRoot(dir)
}

// Empty returns a generated AGENTS.md.
func (c *Codex) Empty(profileName, description string) Bundle {
	b := c.newBundle()
	b.HasInstructions = true
	b.Instructions = generatedInstructions(profileName, description)
	return b
}

// FromFiles keeps AGENTS.md and skips everything else.
func (c *Codex) FromFiles(files []File) (Bundle, []string) {
	b := c.newBundle()
	var skipped []string
	for _, f := range files {
		if strings.EqualFold(f.Path, c.rootDocument) && !b.HasInstructions {
			b.HasInstructions, b.Instructions = true, f.Content
			continue
		}
		skipped = append(skipped, f.Path)
	}
	return b, skipped
}

func init() { Register(NewCodex()) }
