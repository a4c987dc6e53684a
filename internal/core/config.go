package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	rootDirName       = ".crs-profiles"
	settingsFileName  = "config.toml"
	registryFileName  = ".remotes.json"
	backupDirName     = ".backup"
	currentFilePrefix = ".current-"
	metadataFileName  = "profile.json"
	backupMetaName    = "backup.json"

	// RootEnv overrides the storage root.
	RootEnv = "CRS_HOME"

	defaultMaxBackups = 5
	defaultAPIURL     = "https://api.github.com"
)

// Paths resolves every location under the crs storage root.
type Paths struct {
	root string
}

// NewPaths resolves the storage root from $CRS_HOME, falling back to
// ~/.crs-profiles.
func NewPaths() (*Paths, error) {
	if root := os.Getenv(RootEnv); root != "" {
		return &Paths{root: root}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	return &Paths{root: filepath.Join(home, rootDirName)}, nil
}

// NewPathsWithRoot creates Paths rooted at a custom directory.
// Useful for testing.
func NewPathsWithRoot(root string) *Paths {
	return &Paths{root: root}
}

// Root returns the storage root.
func (p *Paths) Root() string { return p.root }

// ProfilesDir returns the directory holding one subdirectory per profile.
func (p *Paths) ProfilesDir(tool string) string { return filepath.Join(p.root, tool) }

// ProfileDir returns the directory of a single profile.
func (p *Paths) ProfileDir(tool, name string) string {
	return filepath.Join(p.ProfilesDir(tool), name)
}

// CurrentFile returns the current-profile pointer file for a tool.
func (p *Paths) CurrentFile(tool string) string {
	return filepath.Join(p.root, currentFilePrefix+tool)
}

// BackupDir returns the directory holding a tool's timestamped backups.
func (p *Paths) BackupDir(tool string) string {
	return filepath.Join(p.root, backupDirName, tool)
}

// RegistryPath returns the remote registry file.
func (p *Paths) RegistryPath() string { return filepath.Join(p.root, registryFileName) }

// SettingsPath returns the optional TOML settings file.
func (p *Paths) SettingsPath() string { return filepath.Join(p.root, settingsFileName) }

// Settings holds user preferences read from config.toml.
type Settings struct {
	DefaultTool string         `toml:"default_tool"`
	MaxBackups  int            `toml:"max_backups"`
	GitHub      GitHubSettings `toml:"github"`

	// Unknown lists keys present in the file that crs does not recognize.
	Unknown []string `toml:"-"`
}

// GitHubSettings configures access to the GitHub API.
type GitHubSettings struct {
	Token  string `toml:"token"`
	APIURL string `toml:"api_url"`
}

func defaultSettings() *Settings {
	return &Settings{
		DefaultTool: "claude",
		MaxBackups:  defaultMaxBackups,
	}
}

// LoadSettings reads config.toml. Returns defaults if the file doesn't exist.
func (p *Paths) LoadSettings() (*Settings, error) {
	s := defaultSettings()
	md, err := toml.DecodeFile(p.SettingsPath(), s)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultSettings(), nil
		}
		return nil, fmt.Errorf("parsing %s: %w", p.SettingsPath(), err)
	}
	for _, key := range md.Undecoded() {
		s.Unknown = append(s.Unknown, key.String())
	}
	if s.MaxBackups <= 0 {
		s.MaxBackups = defaultMaxBackups
	}
	if s.DefaultTool == "" {
		s.DefaultTool = "claude"
	}
	return s, nil
}

// Token returns the GitHub token, preferring $GITHUB_TOKEN, then $GH_TOKEN,
// then the settings file.
func (s *Settings) Token() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	if t := os.Getenv("GH_TOKEN"); t != "" {
		return t
	}
	return s.GitHub.Token
}

// APIURL returns the GitHub API base URL, preferring $CRS_GITHUB_API_URL.
func (s *Settings) APIURL() string {
	if u := os.Getenv("CRS_GITHUB_API_URL"); u != "" {
		return u
	}
	if s.GitHub.APIURL != "" {
		return s.GitHub.APIURL
	}
	return defaultAPIURL
}
