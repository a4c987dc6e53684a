package system

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// File is one text file of a bundle, addressed by its slash-separated path
// relative to the bundle root.
type File struct {
	Path    string
	Content string
}

// Bundle is the managed content of a live configuration directory, a stored
// profile, or a backup. It is implemented by *MarkdownBundle and
// *DocumentBundle only.
type Bundle interface {
	System() string
	// FileCount is the number of files, root document included.
	FileCount() int
	// Files lists every file, root document first, then by path.
	Files() []File
	// Write materializes the bundle under dir, creating dir if needed.
	Write(dir string) error

	bundle()
}

// MarkdownBundle is the bundle of a tool that reads a root instruction
// document plus named collection directories.
type MarkdownBundle struct {
	system string
	root   string

	HasInstructions bool
	Instructions    string

	// Collections maps a category directory to its files, keyed by path
	// relative to that directory. A present key with an empty map is an
	// existing empty directory; an absent key means no directory.
	Collections map[string]map[string]string
}

func (b *MarkdownBundle) bundle()        {}
func (b *MarkdownBundle) System() string { return b.system }

func (b *MarkdownBundle) FileCount() int {
	n := 0
	if b.HasInstructions {
		n++
	}
	for _, files := range b.Collections {
		n += len(files)
	}
	return n
}

func (b *MarkdownBundle) Files() []File {
	var files []File
	if b.HasInstructions {
		files = append(files, File{Path: b.root, Content: b.Instructions})
	}
	for _, cat := range sortedKeys(b.Collections) {
		entries := b.Collections[cat]
		for _, rel := range sortedKeys(entries) {
			files = append(files, File{Path: cat + "/" + rel, Content: entries[rel]})
		}
	}
	return files
}

func (b *MarkdownBundle) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if b.HasInstructions {
		if err := writeTextFile(filepath.Join(dir, b.root), b.Instructions); err != nil {
			return err
		}
	}
	for cat, entries := range b.Collections {
		catDir := filepath.Join(dir, cat)
		if err := os.MkdirAll(catDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", catDir, err)
		}
		for rel, content := range entries {
			target, err := joinWithin(catDir, rel)
			if err != nil {
				return err
			}
			if err := writeTextFile(target, content); err != nil {
				return err
			}
		}
	}
	return nil
}

// Collection returns the files of one category and whether its directory
// exists.
func (b *MarkdownBundle) Collection(category string) (map[string]string, bool) {
	files, ok := b.Collections[category]
	return files, ok
}

// DocumentBundle is the bundle of a tool that reads a single root document.
type DocumentBundle struct {
	system string
	root   string

	HasInstructions bool
	Instructions    string
}

func (b *DocumentBundle) bundle()        {}
func (b *DocumentBundle) System() string { return b.system }

func (b *DocumentBundle) FileCount() int {
	if b.HasInstructions {
		return 1
	}
	return 0
}

func (b *DocumentBundle) Files() []File {
	if !b.HasInstructions {
		return nil
	}
	return []File{{Path: b.root, Content: b.Instructions}}
}

func (b *DocumentBundle) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if !b.HasInstructions {
		return nil
	}
	return writeTextFile(filepath.Join(dir, b.root), b.Instructions)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
