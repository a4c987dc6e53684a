package core

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/barysiuk/crs/internal/core/system"
)

// DefaultProfileName is the profile synthesized from pre-existing live
// configuration on first use.
const DefaultProfileName = "default"

// StoreOptions configures a ProfileStore. Zero values select defaults.
type StoreOptions struct {
	LiveDir    string           // live configuration directory; defaults to the system's ConfigDir
	MaxBackups int              // retention cap; defaults to 5
	Now        func() time.Time // clock; defaults to time.Now
	Logger     *slog.Logger     // defaults to slog.Default()
}

// ProfileStore manages the stored profiles, current pointer and backups of
// one tool.
type ProfileStore struct {
	paths      *Paths
	sys        system.System
	liveDir    string
	maxBackups int
	now        func() time.Time
	log        *slog.Logger
}

// NewProfileStore creates a ProfileStore for sys rooted at paths.
func NewProfileStore(paths *Paths, sys system.System, opts StoreOptions) *ProfileStore {
	s := &ProfileStore{
		paths:      paths,
		sys:        sys,
		liveDir:    opts.LiveDir,
		maxBackups: opts.MaxBackups,
		now:        opts.Now,
		log:        opts.Logger,
	}
	if s.liveDir == "" {
		s.liveDir = sys.ConfigDir()
	}
	if s.maxBackups <= 0 {
		s.maxBackups = defaultMaxBackups
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("tool", sys.Name())
	return s
}

// System returns the tool this store manages.
func (s *ProfileStore) System() system.System { return s.sys }

// LiveDir returns the live configuration directory.
func (s *ProfileStore) LiveDir() string { return s.liveDir }

// Initialize creates the storage directories. On first use, when no profiles
// exist and the live directory has managed content, it snapshots that content
// as the "default" profile and marks it current. Safe to call every run.
func (s *ProfileStore) Initialize() error {
	for _, dir := range []string{s.paths.ProfilesDir(s.sys.Name()), s.paths.BackupDir(s.sys.Name())} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	profiles, err := s.ListProfiles()
	if err != nil {
		return err
	}
	if len(profiles) > 0 {
		return nil
	}

	live, err := s.sys.Read(s.liveDir)
	if err != nil {
		return fmt.Errorf("reading live configuration: %w", err)
	}
	if live.FileCount() == 0 {
		return nil
	}

	if _, err := s.create(DefaultProfileName, "Default profile (imported from current configuration)", live); err != nil {
		return err
	}
	s.log.Info("created default profile from live configuration", "files", live.FileCount())
	return s.setCurrent(DefaultProfileName)
}

// ListProfiles returns every stored profile with readable metadata, sorted
// by name. Hidden directories and directories without metadata are skipped.
func (s *ProfileStore) ListProfiles() ([]ProfileSummary, error) {
	entries, err := os.ReadDir(s.paths.ProfilesDir(s.sys.Name()))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading profiles: %w", err)
	}

	current, _ := s.CurrentProfile()

	var profiles []ProfileSummary
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := s.paths.ProfileDir(s.sys.Name(), entry.Name())
		meta, err := s.readMetadata(dir)
		if err != nil {
			s.log.Debug("skipping profile directory", "dir", entry.Name(), "error", err)
			continue
		}
		b, err := s.sys.Read(dir)
		if err != nil {
			return nil, fmt.Errorf("reading profile %q: %w", entry.Name(), err)
		}
		profiles = append(profiles, ProfileSummary{
			ProfileMetadata: *meta,
			FileCount:       b.FileCount(),
			IsCurrent:       entry.Name() == current,
		})
	}
	return profiles, nil
}

// LoadProfile reads a stored profile. It returns ErrNotFound when the
// profile has no metadata.
func (s *ProfileStore) LoadProfile(name string) (*Profile, error) {
	if err := ValidateProfileName(name); err != nil {
		return nil, err
	}
	dir := s.paths.ProfileDir(s.sys.Name(), name)
	meta, err := s.readMetadata(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("profile %q: %w", name, ErrNotFound)
		}
		return nil, err
	}
	b, err := s.sys.Read(dir)
	if err != nil {
		return nil, fmt.Errorf("reading profile %q: %w", name, err)
	}
	return &Profile{ProfileMetadata: *meta, Bundle: b}, nil
}

// SaveProfile writes p, replacing any stored profile of the same name. The
// new content is staged next to the profiles and renamed into place, so a
// failed write leaves the previous version intact.
func (s *ProfileStore) SaveProfile(p *Profile) error {
	if err := ValidateProfileName(p.Name); err != nil {
		return err
	}
	if p.Bundle == nil || p.Bundle.System() != s.sys.Name() {
		return fmt.Errorf("profile %q does not hold a %s bundle", p.Name, s.sys.DisplayName())
	}
	p.ToolType = s.sys.Name()

	profilesDir := s.paths.ProfilesDir(s.sys.Name())
	if err := os.MkdirAll(profilesDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", profilesDir, err)
	}
	staging, err := os.MkdirTemp(profilesDir, ".staging-"+p.Name+"-")
	if err != nil {
		return fmt.Errorf("staging profile %q: %w", p.Name, err)
	}
	defer os.RemoveAll(staging)
	if err := os.Chmod(staging, 0o755); err != nil {
		return fmt.Errorf("staging profile %q: %w", p.Name, err)
	}

	if err := p.Bundle.Write(staging); err != nil {
		return fmt.Errorf("writing profile %q: %w", p.Name, err)
	}
	if err := writeJSON(filepath.Join(staging, metadataFileName), &p.ProfileMetadata); err != nil {
		return err
	}
	return swapDir(staging, s.paths.ProfileDir(s.sys.Name(), p.Name))
}

// CreateFromCurrent snapshots the live configuration as a new profile.
func (s *ProfileStore) CreateFromCurrent(name, description string) (*Profile, error) {
	if err := s.checkAvailable(name); err != nil {
		return nil, err
	}
	live, err := s.sys.Read(s.liveDir)
	if err != nil {
		return nil, fmt.Errorf("reading live configuration: %w", err)
	}
	return s.create(name, description, live)
}

// CreateEmpty creates a profile holding only a generated root document (and
// empty category directories for tools that have them).
func (s *ProfileStore) CreateEmpty(name, description string) (*Profile, error) {
	if err := s.checkAvailable(name); err != nil {
		return nil, err
	}
	return s.create(name, description, s.sys.Empty(name, description))
}

// CreateFromBundle stores b as a new profile.
func (s *ProfileStore) CreateFromBundle(name, description string, b system.Bundle) (*Profile, error) {
	if err := s.checkAvailable(name); err != nil {
		return nil, err
	}
	return s.create(name, description, b)
}

func (s *ProfileStore) create(name, description string, b system.Bundle) (*Profile, error) {
	p := &Profile{
		ProfileMetadata: ProfileMetadata{
			Name:        name,
			Description: description,
			ToolType:    s.sys.Name(),
			CreatedAt:   s.now().UTC(),
		},
		Bundle: b,
	}
	if err := s.SaveProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

// checkAvailable rejects invalid or taken profile names.
func (s *ProfileStore) checkAvailable(name string) error {
	if err := ValidateProfileName(name); err != nil {
		return err
	}
	if s.ProfileExists(name) {
		return fmt.Errorf("profile %q: %w", name, ErrAlreadyExists)
	}
	return nil
}

// SwitchTo backs up the live configuration, replaces it with the stored
// profile, points current at it and stamps its lastUsed time. Callers
// short-circuit a switch to the already-current profile.
func (s *ProfileStore) SwitchTo(name string) (*Profile, error) {
	p, err := s.LoadProfile(name)
	if err != nil {
		return nil, err
	}

	if _, err := s.backupLive(); err != nil {
		return nil, fmt.Errorf("backing up live configuration: %w", err)
	}
	if err := s.replaceLive(p.Bundle); err != nil {
		return nil, err
	}
	if err := s.setCurrent(name); err != nil {
		return nil, err
	}

	used := s.now().UTC()
	p.LastUsed = &used
	if err := writeJSON(filepath.Join(s.paths.ProfileDir(s.sys.Name(), name), metadataFileName), &p.ProfileMetadata); err != nil {
		return nil, err
	}
	s.log.Info("switched profile", "profile", name)
	return p, nil
}

// DeleteProfile removes a stored profile. The current profile cannot be
// deleted.
func (s *ProfileStore) DeleteProfile(name string) error {
	if err := ValidateProfileName(name); err != nil {
		return err
	}
	if !s.ProfileExists(name) {
		return fmt.Errorf("profile %q: %w", name, ErrNotFound)
	}
	if current, ok := s.CurrentProfile(); ok && current == name {
		return fmt.Errorf("profile %q: %w", name, ErrCurrentProfile)
	}
	if err := os.RemoveAll(s.paths.ProfileDir(s.sys.Name(), name)); err != nil {
		return fmt.Errorf("removing profile %q: %w", name, err)
	}
	return nil
}

// ProfileExists reports whether a profile with metadata is stored under name.
func (s *ProfileStore) ProfileExists(name string) bool {
	if ValidateProfileName(name) != nil {
		return false
	}
	return fileExists(filepath.Join(s.paths.ProfileDir(s.sys.Name(), name), metadataFileName))
}

// CurrentProfile returns the name in the current pointer, if any.
func (s *ProfileStore) CurrentProfile() (string, bool) {
	data, err := os.ReadFile(s.paths.CurrentFile(s.sys.Name()))
	if err != nil {
		return "", false
	}
	name := strings.TrimSpace(string(data))
	return name, name != ""
}

func (s *ProfileStore) setCurrent(name string) error {
	path := s.paths.CurrentFile(s.sys.Name())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("updating current profile: %w", err)
	}
	return nil
}

// replaceLive clears the managed files of the live directory and writes b.
func (s *ProfileStore) replaceLive(b system.Bundle) error {
	if err := s.sys.Clear(s.liveDir); err != nil {
		return fmt.Errorf("clearing live configuration: %w", err)
	}
	if err := b.Write(s.liveDir); err != nil {
		return fmt.Errorf("writing live configuration: %w", err)
	}
	return nil
}

// readMetadata reads and checks profile.json in dir. A missing file is
// reported as fs.ErrNotExist.
func (s *ProfileStore) readMetadata(dir string) (*ProfileMetadata, error) {
	var meta ProfileMetadata
	if err := readJSONC(filepath.Join(dir, metadataFileName), &meta); err != nil {
		return nil, err
	}
	if meta.Name == "" {
		meta.Name = filepath.Base(dir)
	}
	if meta.ToolType == "" {
		meta.ToolType = s.sys.Name()
	}
	if meta.ToolType != s.sys.Name() {
		return nil, fmt.Errorf("%s: tool type %q, want %q", metadataFileName, meta.ToolType, s.sys.Name())
	}
	return &meta, nil
}

// swapDir moves staging to dst, replacing whatever is at dst.
func swapDir(staging, dst string) error {
	var old string
	if dirExists(dst) {
		old = filepath.Join(filepath.Dir(dst), ".old-"+filepath.Base(staging))
		if err := os.Rename(dst, old); err != nil {
			return fmt.Errorf("replacing %s: %w", filepath.Base(dst), err)
		}
	}
	if err := os.Rename(staging, dst); err != nil {
		if old != "" {
			_ = os.Rename(old, dst)
		}
		return fmt.Errorf("saving %s: %w", filepath.Base(dst), err)
	}
	if old != "" {
		_ = os.RemoveAll(old)
	}
	return nil
}
