// Package core provides the business logic for crs.
// It has zero UI dependencies and is independently testable.
package core

import (
	"time"

	"github.com/barysiuk/crs/internal/core/system"
)

// ProfileMetadata is the profile.json stored at the top of a profile directory.
type ProfileMetadata struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ToolType    string     `json:"toolType"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUsed    *time.Time `json:"lastUsed,omitempty"`
}

// Profile is a stored snapshot of one tool's configuration bundle.
type Profile struct {
	ProfileMetadata
	Bundle system.Bundle
}

// ProfileSummary is a listing row for a stored profile.
type ProfileSummary struct {
	ProfileMetadata
	FileCount int
	IsCurrent bool
}

// BackupMetadata is the backup.json sidecar written next to a backup.
type BackupMetadata struct {
	Timestamp   string    `json:"timestamp"`
	ToolType    string    `json:"toolType"`
	ProfileName string    `json:"profileName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BackupInfo is a listing row for a backup directory.
type BackupInfo struct {
	Timestamp   string
	ToolType    string
	ProfileName string // "unknown" when the sidecar is missing or unreadable
	CreatedAt   time.Time
	Path        string
}

// SourceRef is a parsed reference to a GitHub repository or subdirectory.
type SourceRef struct {
	Owner string
	Repo  string
	Ref   string // branch, tag or commit; "main" when not given
	Path  string // subdirectory within the repo, empty for the root

	// RefExplicit is false when Ref was defaulted, which allows one fallback
	// to the repository's default branch.
	RefExplicit bool
	Valid       bool
}

// RemoteFile is one file fetched from a remote source.
type RemoteFile struct {
	Path    string
	Content string
	Size    int64
}

// ValidationResult is the outcome of validating a fetched file list.
// Valid is true iff Errors is empty.
type ValidationResult struct {
	Valid    bool
	ToolType string // detected tool, empty when detection failed
	Errors   []string
	Warnings []string
	Files    []RemoteFile
}

// RemoteSource is a registry entry describing where a profile came from.
type RemoteSource struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ToolType    string    `json:"toolType"`
	Branch      string    `json:"branch"`
	Path        string    `json:"path,omitempty"`
	LastSync    time.Time `json:"lastSync"`
	LastCommit  string    `json:"lastCommit,omitempty"`
	Description string    `json:"description,omitempty"`
}

// RemoteRegistry is the .remotes.json document.
type RemoteRegistry struct {
	Version string                  `json:"version"`
	Remotes map[string]RemoteSource `json:"remotes"`
}
