package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/barysiuk/crs/internal/core/system"
)

func TestBackupName(t *testing.T) {
	ts := time.Date(2026, 10, 17, 12, 30, 45, 123_000_000, time.FixedZone("CEST", 2*3600))
	name := BackupName(ts)
	if name != "2026-10-17T10-30-45-123Z" {
		t.Fatalf("BackupName() = %q", name)
	}

	for _, in := range []string{name, name + "-01"} {
		got, ok := ParseBackupName(in)
		if !ok || !got.Equal(ts) {
			t.Errorf("ParseBackupName(%q) = %v, %v; want %v", in, got, ok, ts)
		}
	}
	if _, ok := ParseBackupName("not-a-backup"); ok {
		t.Error("ParseBackupName should reject arbitrary names")
	}
}

func TestBackupLive_Collision(t *testing.T) {
	fixed := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	live := filepath.Join(t.TempDir(), "live")
	store := NewProfileStore(NewPathsWithRoot(t.TempDir()), system.NewCodex(), StoreOptions{
		LiveDir: live,
		Now:     func() time.Time { return fixed },
	})
	writeFile(t, filepath.Join(live, "AGENTS.md"), "x")

	var names []string
	for i := 0; i < 3; i++ {
		info, err := store.backupLive()
		if err != nil {
			t.Fatalf("backupLive: %v", err)
		}
		names = append(names, info.Timestamp)
	}
	want := []string{"2026-10-17T12-00-00-000Z", "2026-10-17T12-00-00-000Z-01", "2026-10-17T12-00-00-000Z-02"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("backup %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestBackupLive_FrozenClockRetention(t *testing.T) {
	fixed := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	live := filepath.Join(t.TempDir(), "live")
	store := NewProfileStore(NewPathsWithRoot(t.TempDir()), system.NewCodex(), StoreOptions{
		LiveDir: live,
		Now:     func() time.Time { return fixed },
	})
	writeFile(t, filepath.Join(live, "AGENTS.md"), "x")

	var created []string
	for i := 0; i < 8; i++ {
		info, err := store.backupLive()
		if err != nil {
			t.Fatalf("backupLive #%d: %v", i, err)
		}
		created = append(created, info.Timestamp)
	}

	backups, err := store.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 5 {
		t.Fatalf("backups = %d, want 5", len(backups))
	}
	for i, b := range backups {
		if want := created[len(created)-1-i]; b.Timestamp != want {
			t.Errorf("backups[%d] = %s, want %s", i, b.Timestamp, want)
		}
	}
	if backups[0].Timestamp != "2026-10-17T12-00-00-000Z-07" {
		t.Errorf("newest backup = %s", backups[0].Timestamp)
	}
}

func TestNextBackupName(t *testing.T) {
	const base = "2026-10-17T12-00-00-000Z"
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"empty", nil, base},
		{"older", []string{"2026-10-17T11-59-59-999Z"}, base},
		{"same instant", []string{base}, base + "-01"},
		{"bare name pruned", []string{base + "-04", base + "-05"}, base + "-06"},
		{"clock stepped back", []string{"2026-10-17T12-00-01-000Z"}, "2026-10-17T12-00-01-000Z-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextBackupName(base, tt.existing)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("nextBackupName() = %q, want %q", got, tt.want)
			}
			if len(tt.existing) > 0 && got <= tt.existing[len(tt.existing)-1] {
				t.Errorf("%q does not sort after %q", got, tt.existing[len(tt.existing)-1])
			}
		})
	}

	if _, err := nextBackupName(base, []string{base + "-99"}); err == nil {
		t.Error("expected an error once the suffixes run out")
	}
}

func TestBackupLive_NoLiveDir(t *testing.T) {
	store, _ := newTestStore(t, system.NewClaudeCode())
	info, err := store.backupLive()
	if err != nil || info != nil {
		t.Errorf("backupLive() = %v, %v; want nil, nil", info, err)
	}
}

func TestBackupRetention(t *testing.T) {
	store, live := newTestStore(t, system.NewClaudeCode())
	writeFile(t, filepath.Join(live, "CLAUDE.md"), "live")
	if _, err := store.CreateEmpty("a", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateEmpty("b", ""); err != nil {
		t.Fatal(err)
	}

	var created []string
	for i := 0; i < 8; i++ {
		name := "a"
		if i%2 == 1 {
			name = "b"
		}
		if _, err := store.SwitchTo(name); err != nil {
			t.Fatalf("SwitchTo(%s): %v", name, err)
		}
		backups, err := store.ListBackups()
		if err != nil {
			t.Fatal(err)
		}
		created = append(created, backups[0].Timestamp)
	}

	backups, err := store.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 5 {
		t.Fatalf("backups = %d, want 5", len(backups))
	}
	for i, b := range backups {
		if want := created[len(created)-1-i]; b.Timestamp != want {
			t.Errorf("backups[%d] = %s, want %s", i, b.Timestamp, want)
		}
	}
	if backups[0].ProfileName != "a" {
		t.Errorf("newest backup profile = %q, want a", backups[0].ProfileName)
	}
}

func TestListBackups_MissingSidecar(t *testing.T) {
	store, live := newTestStore(t, system.NewCodex())
	writeFile(t, filepath.Join(live, "AGENTS.md"), "x")
	info, err := store.backupLive()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(info.Path, backupMetaName)); err != nil {
		t.Fatal(err)
	}
	corrupt, err := store.backupLive()
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(corrupt.Path, backupMetaName), "{{{")

	backups, err := store.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("backups = %d, want 2", len(backups))
	}
	for _, b := range backups {
		if b.ProfileName != "unknown" {
			t.Errorf("%s profile = %q, want unknown", b.Timestamp, b.ProfileName)
		}
		if b.CreatedAt.IsZero() {
			t.Errorf("%s CreatedAt should come from the name", b.Timestamp)
		}
	}
	if backups[0].Timestamp != corrupt.Timestamp {
		t.Errorf("newest = %s, want %s", backups[0].Timestamp, corrupt.Timestamp)
	}
}

func TestRestoreBackup_LeavesPointer(t *testing.T) {
	store, live := newTestStore(t, system.NewClaudeCode())
	root := filepath.Join(live, "CLAUDE.md")

	writeFile(t, root, "A")
	if _, err := store.CreateFromCurrent("p1", ""); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "B")
	if _, err := store.CreateFromCurrent("p2", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SwitchTo("p2"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SwitchTo("p1"); err != nil {
		t.Fatal(err)
	}

	backups, _ := store.ListBackups()
	target := backups[0]
	if target.ProfileName != "p2" {
		t.Fatalf("newest backup profile = %q, want p2", target.ProfileName)
	}

	if err := store.RestoreBackup(target.Timestamp); err != nil {
		t.Fatalf("RestoreBackup: %v", err)
	}
	if got := readFile(t, root); got != "B" {
		t.Errorf("live CLAUDE.md = %q, want B", got)
	}
	if current, _ := store.CurrentProfile(); current != "p1" {
		t.Errorf("current = %q, want p1", current)
	}

	after, _ := store.ListBackups()
	if len(after) != len(backups)+1 {
		t.Errorf("backups after restore = %d, want %d", len(after), len(backups)+1)
	}
	if got := readFile(t, filepath.Join(after[0].Path, "CLAUDE.md")); got != "A" {
		t.Errorf("pre-restore backup holds %q, want A", got)
	}
}

func TestRestoreBackup_OldestAtCapacity(t *testing.T) {
	live := filepath.Join(t.TempDir(), "live")
	store := NewProfileStore(NewPathsWithRoot(t.TempDir()), system.NewCodex(), StoreOptions{
		LiveDir:    live,
		MaxBackups: 2,
		Now:        stepClock(),
	})
	root := filepath.Join(live, "AGENTS.md")

	writeFile(t, root, "first")
	oldest, err := store.backupLive()
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "second")
	if _, err := store.backupLive(); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "third")

	if err := store.RestoreBackup(oldest.Timestamp); err != nil {
		t.Fatalf("RestoreBackup: %v", err)
	}
	if got := readFile(t, root); got != "first" {
		t.Errorf("live AGENTS.md = %q, want first", got)
	}
	if dirExists(oldest.Path) {
		t.Error("retention should have evicted the restored backup")
	}
}

func TestRestoreBackup_NotFound(t *testing.T) {
	store, _ := newTestStore(t, system.NewCodex())
	for _, ts := range []string{"", "2020-01-01T00-00-00-000Z", "../x", ".", "a/b"} {
		if err := store.RestoreBackup(ts); !errors.Is(err, ErrNotFound) {
			t.Errorf("RestoreBackup(%q) = %v, want ErrNotFound", ts, err)
		}
	}
}
