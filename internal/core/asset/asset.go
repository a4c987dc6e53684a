// Package asset reads the markdown assets that live in a profile's
// collection directories (agents, commands, skills, workflows).
//
// Assets may open with a YAML frontmatter block carrying a name and a
// description. Nothing here touches the filesystem; callers hand in content.
package asset

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoFrontmatter is returned by Parse when content does not open with a
// frontmatter block.
var ErrNoFrontmatter = errors.New("no frontmatter")

// Document is a markdown asset split into frontmatter and body.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// Info is the display summary of an asset.
type Info struct {
	Path        string
	Name        string
	Description string
}

// Parse splits content into YAML frontmatter and body. The source parameter
// is used only for error messages.
func Parse(content, source string) (*Document, error) {
	trimmed := strings.TrimLeft(content, " \t\r\n")
	if !strings.HasPrefix(trimmed, "---") {
		return nil, fmt.Errorf("%w in %s", ErrNoFrontmatter, source)
	}

	rest := trimmed[3:]
	if strings.HasPrefix(rest, "\r\n") {
		rest = rest[2:]
	} else if strings.HasPrefix(rest, "\n") {
		rest = rest[1:]
	} else {
		return nil, fmt.Errorf("%w in %s", ErrNoFrontmatter, source)
	}

	var fmContent, body string
	if strings.HasPrefix(rest, "---") {
		// Empty frontmatter block.
		body = rest[3:]
	} else {
		end := strings.Index(rest, "\n---")
		if end < 0 {
			return nil, fmt.Errorf("no closing frontmatter delimiter in %s", source)
		}
		fmContent = rest[:end]
		body = rest[end+4:]
	}
	body = strings.TrimPrefix(strings.TrimPrefix(body, "\r"), "\n")

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(fmContent), &fm); err != nil {
		return nil, fmt.Errorf("parsing frontmatter in %s: %w", source, err)
	}
	if fm == nil {
		fm = make(map[string]any)
	}

	return &Document{Frontmatter: fm, Body: body}, nil
}

// Check reports a frontmatter problem in content, or nil when the content
// has no frontmatter or a well-formed one.
func Check(content, source string) error {
	_, err := Parse(content, source)
	if errors.Is(err, ErrNoFrontmatter) {
		return nil
	}
	return err
}

// Describe summarizes the asset at relPath. The name falls back to the file
// name (or the directory name for SKILL.md) and the description to the first
// heading or paragraph line of the body.
func Describe(relPath, content string) Info {
	info := Info{Path: relPath, Name: defaultName(relPath)}

	body := content
	if doc, err := Parse(content, relPath); err == nil {
		if s, ok := doc.Frontmatter["name"].(string); ok && s != "" {
			info.Name = s
		}
		if s, ok := doc.Frontmatter["description"].(string); ok && s != "" {
			info.Description = strings.TrimSpace(s)
			return info
		}
		body = doc.Body
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line != "" && line != "---" {
			info.Description = line
			break
		}
	}
	return info
}

func defaultName(relPath string) string {
	base := path.Base(relPath)
	if strings.EqualFold(base, "SKILL.md") {
		if dir := path.Base(path.Dir(relPath)); dir != "." && dir != "/" {
			return dir
		}
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
