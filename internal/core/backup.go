package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// backupTimeLayout renders an instant as a filesystem-safe name once
	// the fractional-second dot is replaced: 2026-10-17T12-30-45-123Z.
	backupTimeLayout = "2006-01-02T15-04-05.000Z"

	unknownProfile = "unknown"
)

var (
	backupNamePattern   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2})-(\d{3})Z`)
	backupSuffixPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-\d{3}Z)(?:-(\d{2}))?$`)
)

// BackupName returns the backup directory name for t.
func BackupName(t time.Time) string {
	return strings.Replace(t.UTC().Format(backupTimeLayout), ".", "-", 1)
}

// ParseBackupName recovers the instant encoded in a backup directory name.
// Collision suffixes after the Z are ignored.
func ParseBackupName(name string) (time.Time, bool) {
	m := backupNamePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(backupTimeLayout, m[1]+"."+m[2]+"Z")
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ListBackups returns the tool's backups, newest first. A backup whose
// sidecar is missing or unreadable is listed with profile "unknown".
func (s *ProfileStore) ListBackups() ([]BackupInfo, error) {
	names, err := s.backupNames()
	if err != nil {
		return nil, err
	}

	backups := make([]BackupInfo, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		dir := filepath.Join(s.paths.BackupDir(s.sys.Name()), names[i])
		info := BackupInfo{
			Timestamp:   names[i],
			ToolType:    s.sys.Name(),
			ProfileName: unknownProfile,
			Path:        dir,
		}
		info.CreatedAt, _ = ParseBackupName(names[i])

		var meta BackupMetadata
		if err := readJSONC(filepath.Join(dir, backupMetaName), &meta); err != nil {
			s.log.Debug("backup sidecar unreadable", "backup", names[i], "error", err)
		} else {
			if meta.ProfileName != "" {
				info.ProfileName = meta.ProfileName
			}
			if !meta.CreatedAt.IsZero() {
				info.CreatedAt = meta.CreatedAt
			}
		}
		backups = append(backups, info)
	}
	return backups, nil
}

// RestoreBackup replaces the live configuration with a backup. The live
// state is backed up first. The current pointer is left as it is, so it may
// no longer describe the live directory.
func (s *ProfileStore) RestoreBackup(timestamp string) error {
	if timestamp == "" || strings.ContainsAny(timestamp, `/\`) || strings.HasPrefix(timestamp, ".") {
		return fmt.Errorf("backup %q: %w", timestamp, ErrNotFound)
	}
	dir := filepath.Join(s.paths.BackupDir(s.sys.Name()), timestamp)
	if !dirExists(dir) {
		return fmt.Errorf("backup %q: %w", timestamp, ErrNotFound)
	}

	// Read before backing up: retention may evict this very backup.
	b, err := s.sys.Read(dir)
	if err != nil {
		return fmt.Errorf("reading backup %q: %w", timestamp, err)
	}

	if _, err := s.backupLive(); err != nil {
		return fmt.Errorf("backing up live configuration: %w", err)
	}
	if err := s.replaceLive(b); err != nil {
		return err
	}
	s.log.Info("restored backup", "backup", timestamp)
	return nil
}

// backupLive copies the managed live files into a new timestamped backup and
// applies retention. It returns nil when there is no live directory.
func (s *ProfileStore) backupLive() (*BackupInfo, error) {
	if !dirExists(s.liveDir) {
		return nil, nil
	}
	live, err := s.sys.Read(s.liveDir)
	if err != nil {
		return nil, err
	}

	root := s.paths.BackupDir(s.sys.Name())
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", root, err)
	}

	created := s.now().UTC()
	existing, err := s.backupNames()
	if err != nil {
		return nil, err
	}
	name, err := nextBackupName(BackupName(created), existing)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, name)

	if err := live.Write(dir); err != nil {
		return nil, fmt.Errorf("writing backup: %w", err)
	}

	profile, ok := s.CurrentProfile()
	if !ok {
		profile = unknownProfile
	}
	meta := BackupMetadata{
		Timestamp:   filepath.Base(dir),
		ToolType:    s.sys.Name(),
		ProfileName: profile,
		CreatedAt:   created,
	}
	if err := writeJSON(filepath.Join(dir, backupMetaName), &meta); err != nil {
		return nil, err
	}
	s.log.Debug("backed up live configuration", "backup", meta.Timestamp, "profile", profile)

	if err := s.pruneBackups(); err != nil {
		return nil, err
	}
	return &BackupInfo{
		Timestamp:   meta.Timestamp,
		ToolType:    meta.ToolType,
		ProfileName: meta.ProfileName,
		CreatedAt:   meta.CreatedAt,
		Path:        dir,
	}, nil
}

// nextBackupName returns a name for a new backup that sorts after every
// existing one, so that name order stays creation order even when the clock
// repeats or steps back.
func nextBackupName(candidate string, existing []string) (string, error) {
	if len(existing) == 0 || existing[len(existing)-1] < candidate {
		return candidate, nil
	}
	last := existing[len(existing)-1]
	m := backupSuffixPattern.FindStringSubmatch(last)
	if m == nil {
		return "", fmt.Errorf("backup %q sorts after %s; remove it from the backup directory", last, candidate)
	}
	n := 0
	if m[2] != "" {
		n, _ = strconv.Atoi(m[2])
	}
	if n >= 99 {
		return "", fmt.Errorf("too many backups at %s", m[1])
	}
	return fmt.Sprintf("%s-%02d", m[1], n+1), nil
}

// pruneBackups deletes the oldest backups beyond the retention cap.
func (s *ProfileStore) pruneBackups() error {
	names, err := s.backupNames()
	if err != nil {
		return err
	}
	for len(names) > s.maxBackups {
		dir := filepath.Join(s.paths.BackupDir(s.sys.Name()), names[0])
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing old backup %s: %w", names[0], err)
		}
		s.log.Debug("removed old backup", "backup", names[0])
		names = names[1:]
	}
	return nil
}

// backupNames lists backup directory names oldest first.
func (s *ProfileStore) backupNames() ([]string, error) {
	entries, err := os.ReadDir(s.paths.BackupDir(s.sys.Name()))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backups: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
