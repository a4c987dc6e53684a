package system

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// BaseSystem provides the identity and path handling shared by all systems.
// Individual systems embed this and add their bundle logic.
type BaseSystem struct {
	name         string
	displayName  string
	rootDocument string   // root instruction file at the top of the live dir
	categories   []string // collection directories managed by crs
	configEnv    string   // env var overriding the live dir
	configDir    string   // default live dir (with ~)
}

func (b *BaseSystem) Name() string         { return b.name }
func (b *BaseSystem) DisplayName() string  { return b.displayName }
func (b *BaseSystem) RootDocument() string { return b.rootDocument }
func (b *BaseSystem) Categories() []string { return b.categories }

// ConfigDir returns the live configuration directory, honoring the tool's
// own environment override.
func (b *BaseSystem) ConfigDir() string {
	if b.configEnv != "" {
		if v := os.Getenv(b.configEnv); v != "" {
			return expandPath(v)
		}
	}
	return expandPath(b.configDir)
}

// IsCategory reports whether name is one of the system's collection
// directories, case-insensitively.
func (b *BaseSystem) IsCategory(name string) bool {
	for _, c := range b.categories {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// readRoot reads the root document of dir, if present.
func (b *BaseSystem) readRoot(dir string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, b.rootDocument))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", b.rootDocument, err)
	}
	return string(data), true, nil
}

// clearRoot removes the root document of dir, if present.
func (b *BaseSystem) clearRoot(dir string) error {
	if err := os.Remove(filepath.Join(dir, b.rootDocument)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", b.rootDocument, err)
	}
	return nil
}

// --- Helpers ---

// readTree reads every regular file under dir into a map keyed by
// slash-separated relative path. Dot-files are skipped.
func readTree(dir string) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	return files, nil
}

// validRelPath reports whether rel is a clean relative path that stays inside
// its directory and survives a readTree round trip (no dot segments).
func validRelPath(rel string) bool {
	if rel == "" || path.IsAbs(rel) || path.Clean(rel) != rel || strings.Contains(rel, "\\") {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return false
		}
	}
	return true
}

// joinWithin joins rel onto dir and fails when the result leaves dir.
func joinWithin(dir, rel string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(rel))
	r, err := filepath.Rel(dir, target)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %s", rel, dir)
	}
	return target, nil
}

func writeTextFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func expandPath(p string) string {
	if strings.Contains(p, "$") {
		p = os.ExpandEnv(p)
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return p
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
