package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/barysiuk/crs/internal/tui"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "crs",
	Short: "Switch between configuration profiles for AI coding assistants",
	Long: `crs keeps named profiles of your Claude Code and Codex configuration
(CLAUDE.md, agents, commands, workflows, skills, AGENTS.md) and swaps them
in and out of the live configuration directory.

Profiles can be saved from the current setup, created from built-in
templates, or imported from GitHub. Every switch takes a backup first.

Run without arguments in a terminal to open the interactive switcher.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isInteractive() {
			return cmd.Help()
		}
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		tool, err := d.tool(cmd)
		if err != nil {
			return err
		}
		return tui.Run(d.paths, tui.Options{
			Tool:       tool.Name(),
			MaxBackups: d.settings.MaxBackups,
			Logger:     d.log,
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "crs %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("tool", "t", "", "Tool to manage: claude or codex (default from config.toml, else claude)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Skip confirmation prompts")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
