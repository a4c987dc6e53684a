package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/barysiuk/crs/internal/core"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Import profiles from GitHub",
	Long: `Import profiles from GitHub repositories.

Sources are written as owner/repo, owner/repo@ref, owner/repo@ref:path or
as a github.com URL (https://github.com/owner/repo/tree/ref/path).
Set GITHUB_TOKEN or GH_TOKEN for private repositories and higher rate limits.`,
}

var remotePreviewCmd = &cobra.Command{
	Use:   "preview <url>",
	Short: "Show what importing a source would install",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		tool, _ := cmd.Flags().GetString("type")
		res, err := d.installer().Preview(cmd.Context(), args[0], tool)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Source:  %s\n", res.Source.WebURL())
		if res.ToolType == "" {
			fmt.Fprintln(out, "Tool:    unknown")
		} else {
			fmt.Fprintf(out, "Tool:    %s\n", res.ToolType)
		}
		fmt.Fprintf(out, "Fetched: %d files (%s)\n", len(res.SourceFiles), core.FormatBytes(res.SourceSize))
		fmt.Fprintf(out, "Install: %d files (%s)\n", len(res.Install), core.FormatBytes(res.InstallSize))
		if n := res.Skipped(); n > 0 {
			fmt.Fprintf(out, "Skipped: %d files\n", n)
		}
		if len(res.Categories) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, headingStyle.Render("Contents:"))
			dirs := make([]string, 0, len(res.Categories))
			for dir := range res.Categories {
				dirs = append(dirs, dir)
			}
			sort.Strings(dirs)
			for _, dir := range dirs {
				label := dir + "/"
				if dir == "" {
					label = "(root)"
				}
				fmt.Fprintf(out, "  %-12s %d\n", label, res.Categories[dir])
			}
		}

		if len(res.Validation.Errors)+len(res.Validation.Warnings) > 0 {
			fmt.Fprintln(out)
			printValidation(out, res.Validation)
		}
		if res.Validation.Valid {
			printOK(out, "Ready to install")
		} else {
			printErr(out, "Validation failed; this source cannot be installed")
		}
		return nil
	},
}

var remoteInstallCmd = &cobra.Command{
	Use:   "install <url> <profile>",
	Short: "Import a source as a new profile",
	Long: `Import a source as a new profile. The source is recorded as a remote
under the profile name so it can be synced later, unless --no-save is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")
		tool, _ := cmd.Flags().GetString("type")
		noSave, _ := cmd.Flags().GetBool("no-save")

		res, err := d.installer().InstallFromURL(cmd.Context(), args[0], args[1], core.InstallOptions{
			Description: description,
			Tool:        tool,
			Save:        !noSave,
		})
		return reportInstall(cmd.OutOrStdout(), res, err)
	},
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Register a source and install it as a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")
		tool, _ := cmd.Flags().GetString("type")

		res, err := d.installer().AddRemote(cmd.Context(), args[0], args[1], core.InstallOptions{
			Description: description,
			Tool:        tool,
		})
		return reportInstall(cmd.OutOrStdout(), res, err)
	},
}

var remoteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered remotes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		var tool string
		if cmd.Flags().Changed("tool") {
			sys, err := d.tool(cmd)
			if err != nil {
				return err
			}
			tool = sys.Name()
		}
		remotes, err := d.installer().Registry().List(tool)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(remotes) == 0 {
			fmt.Fprintln(out, "No remotes.")
			return nil
		}
		for _, r := range remotes {
			ref := r.Branch
			if r.Path != "" {
				ref += ":" + r.Path
			}
			fmt.Fprintf(out, "  %-20s %-7s %s @ %s %s\n", r.Name, r.ToolType, r.URL, ref,
				mutedStyle.Render("synced "+formatTime(r.LastSync)))
		}
		return nil
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use <remote> <profile>",
	Short: "Copy a remote's profile into a new profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")
		p, err := d.installer().UseRemote(args[0], args[1], description)
		if err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "Created profile %q from remote %q (%d files)", p.Name, args[0], p.Bundle.FileCount())
		return nil
	},
}

var remoteSyncCmd = &cobra.Command{
	Use:   "sync <name>",
	Short: "Re-fetch a remote and update its profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		res, err := d.installer().SyncRemote(cmd.Context(), args[0])
		if err != nil {
			if res != nil && errors.Is(err, core.ErrValidation) {
				printValidation(cmd.OutOrStdout(), res.Validation)
			}
			return err
		}

		out := cmd.OutOrStdout()
		printValidation(out, res.Validation)
		printOK(out, "Synced %q from %s (%d files)", args[0], res.Source.String(), res.Profile.Bundle.FileCount())
		if res.IsCurrent {
			printWarn(out, "%q is the current profile; run \"crs use %s\" to apply the update", args[0], args[0])
		}
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a remote and its profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		inst := d.installer()
		if _, err := inst.Registry().Get(args[0]); err != nil {
			return err
		}
		ok, err := confirm(cmd, fmt.Sprintf("Remove remote %q and its profile?", args[0]))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		if err := inst.RemoveRemote(args[0]); err != nil {
			if errors.Is(err, core.ErrCurrentProfile) {
				return fmt.Errorf("%w; switch to another profile first", err)
			}
			return err
		}
		printOK(cmd.OutOrStdout(), "Removed remote %q", args[0])
		return nil
	},
}

// reportInstall prints the outcome of an install. Validation findings are
// printed whether or not the install went through.
func reportInstall(out io.Writer, res *core.InstallResult, err error) error {
	if res != nil {
		printValidation(out, res.Validation)
	}
	if err != nil {
		return err
	}
	p := res.Profile
	printOK(out, "Installed %s profile %q from %s (%d files)", p.ToolType, p.Name, res.Source.String(), p.Bundle.FileCount())
	if res.Remote != nil {
		fmt.Fprintf(out, "  sync later with: crs remote sync %s\n", res.Remote.Name)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{remotePreviewCmd, remoteInstallCmd, remoteAddCmd} {
		c.Flags().String("type", "", "Install for this tool instead of the detected one (claude, codex)")
	}
	descriptionFlag(remoteInstallCmd)
	descriptionFlag(remoteAddCmd)
	descriptionFlag(remoteUseCmd)
	remoteInstallCmd.Flags().Bool("no-save", false, "Do not record the source as a remote")

	remoteCmd.AddCommand(remotePreviewCmd, remoteInstallCmd, remoteAddCmd, remoteListCmd,
		remoteUseCmd, remoteSyncCmd, remoteRemoveCmd)
	rootCmd.AddCommand(remoteCmd)
}
