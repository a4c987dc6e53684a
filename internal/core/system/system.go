// Package system defines the System abstraction for crs.
//
// A System represents an AI coding tool whose live configuration crs can
// snapshot and replace (Claude Code, Codex). Each system knows where its live
// configuration lives, which files it manages there, and how to read and
// write a Bundle of those files. Systems are self-contained Go structs.
package system

import (
	"fmt"
	"strings"
)

// System defines how an AI coding tool's configuration is mirrored into and
// out of profiles.
type System interface {
	// Identity
	Name() string        // machine name: "claude", "codex"
	DisplayName() string // human name: "Claude Code", "Codex"

	// Layout
	RootDocument() string // root instruction file: "CLAUDE.md", "AGENTS.md"
	Categories() []string // named collection directories, empty for single-document tools
	ConfigDir() string    // resolved live configuration directory

	// Bundle lifecycle
	Read(dir string) (Bundle, error)
	Clear(dir string) error
	Empty(profileName, description string) Bundle

	// FromFiles builds a bundle from canonical relative paths. Paths the
	// bundle cannot represent are returned as skipped.
	FromFiles(files []File) (b Bundle, skipped []string)
}

// --- Registry ---

var systems []System

// Register adds a system to the global registry.
func Register(s System) { systems = append(systems, s) }

// All returns all registered systems.
func All() []System { return systems }

// ByName returns the system with the given machine name, if registered.
func ByName(name string) (System, bool) {
	for _, s := range systems {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Lookup is ByName with an error listing the valid names.
func Lookup(name string) (System, error) {
	if s, ok := ByName(name); ok {
		return s, nil
	}
	return nil, fmt.Errorf("unknown tool %q; available: %s", name, strings.Join(Names(systems), ", "))
}

// ByRootDocument returns the system whose root document matches the given
// basename, case-insensitively.
func ByRootDocument(basename string) (System, bool) {
	for _, s := range systems {
		if strings.EqualFold(s.RootDocument(), basename) {
			return s, true
		}
	}
	return nil, false
}

// Names returns the machine names of the given systems.
func Names(systems []System) []string {
	names := make([]string, len(systems))
	for i, s := range systems {
		names[i] = s.Name()
	}
	return names
}
