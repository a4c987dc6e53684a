package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/barysiuk/crs/internal/core"
	"github.com/barysiuk/crs/internal/core/system"
	"github.com/spf13/cobra"
)

// deps holds shared dependencies for CLI commands.
type deps struct {
	paths    *core.Paths
	settings *core.Settings
	log      *slog.Logger
}

// newDeps resolves the storage root and loads settings. Called lazily by
// commands that need them.
func newDeps(cmd *cobra.Command) (*deps, error) {
	paths, err := core.NewPaths()
	if err != nil {
		return nil, fmt.Errorf("initializing paths: %w", err)
	}
	settings, err := paths.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	log := slog.Default()
	if len(settings.Unknown) > 0 {
		log.Warn("unknown keys in config.toml", "keys", strings.Join(settings.Unknown, ", "))
	}
	return &deps{paths: paths, settings: settings, log: log}, nil
}

// tool resolves --tool, falling back to the configured default.
func (d *deps) tool(cmd *cobra.Command) (system.System, error) {
	name, _ := cmd.Flags().GetString("tool")
	if name == "" {
		name = d.settings.DefaultTool
	}
	return system.Lookup(name)
}

// tools returns the tool named by --tool, or every tool when the flag was
// not given.
func (d *deps) tools(cmd *cobra.Command) ([]system.System, error) {
	if cmd.Flags().Changed("tool") {
		sys, err := d.tool(cmd)
		if err != nil {
			return nil, err
		}
		return []system.System{sys}, nil
	}
	return system.All(), nil
}

// store returns an initialized profile store for sys.
func (d *deps) store(sys system.System) (*core.ProfileStore, error) {
	s := core.NewProfileStore(d.paths, sys, core.StoreOptions{
		MaxBackups: d.settings.MaxBackups,
		Logger:     d.log,
	})
	if err := s.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing %s profiles: %w", sys.DisplayName(), err)
	}
	return s, nil
}

// toolStore resolves --tool and returns its store.
func (d *deps) toolStore(cmd *cobra.Command) (*core.ProfileStore, error) {
	sys, err := d.tool(cmd)
	if err != nil {
		return nil, err
	}
	return d.store(sys)
}

// installer returns the remote import pipeline wired to the GitHub API.
func (d *deps) installer() *core.Installer {
	client := core.NewGitHubClient(d.settings.APIURL(), d.settings.Token())
	fetcher := core.NewFetcher(client, d.log)
	return core.NewInstaller(fetcher, d.paths, core.StoreOptions{
		MaxBackups: d.settings.MaxBackups,
		Logger:     d.log,
	})
}
