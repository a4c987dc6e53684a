package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/barysiuk/crs/internal/core"
	"github.com/barysiuk/crs/internal/core/asset"
	"github.com/barysiuk/crs/internal/core/system"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles",
	Long:    `List stored profiles. Shows every tool unless --tool is given; the current profile is marked with *.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		tools, err := d.tools(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, sys := range tools {
			store, err := d.store(sys)
			if err != nil {
				return err
			}
			profiles, err := store.ListProfiles()
			if err != nil {
				return err
			}

			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, headingStyle.Render(sys.DisplayName()+" profiles:"))
			if len(profiles) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("  none"))
				continue
			}
			for _, p := range profiles {
				marker := " "
				if p.IsCurrent {
					marker = okStyle.Render("*")
				}
				fmt.Fprintf(out, "  %s %-20s %s %s\n", marker, p.Name,
					truncate(p.Description), mutedStyle.Render(fmt.Sprintf("(%d files)", p.FileCount)))
			}
		}
		return nil
	},
}

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		tools, err := d.tools(cmd)
		if err != nil {
			return err
		}
		for _, sys := range tools {
			store, err := d.store(sys)
			if err != nil {
				return err
			}
			if name, ok := store.CurrentProfile(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", sys.Name(), name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no active profile\n", sys.Name())
			}
		}
		return nil
	},
}

var useCmd = &cobra.Command{
	Use:   "use <profile>",
	Short: "Switch to a profile",
	Long: `Replace the live configuration with a stored profile. The live
configuration is backed up first; see "crs backups".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		store, err := d.toolStore(cmd)
		if err != nil {
			return err
		}

		name := args[0]
		if current, ok := store.CurrentProfile(); ok && current == name && store.ProfileExists(name) {
			printWarn(cmd.OutOrStdout(), "Already using %s profile %q", store.System().DisplayName(), name)
			return nil
		}
		p, err := store.SwitchTo(name)
		if err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "Switched %s to %q (%d files)", store.System().DisplayName(), name, p.Bundle.FileCount())
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the live configuration as a new profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		store, err := d.toolStore(cmd)
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")
		p, err := store.CreateFromCurrent(args[0], description)
		if err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "Saved current %s configuration as %q (%d files)",
			store.System().DisplayName(), p.Name, p.Bundle.FileCount())
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		store, err := d.toolStore(cmd)
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")
		p, err := store.CreateEmpty(args[0], description)
		if err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "Created empty %s profile %q", store.System().DisplayName(), p.Name)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		store, err := d.toolStore(cmd)
		if err != nil {
			return err
		}

		name := args[0]
		if !store.ProfileExists(name) {
			return fmt.Errorf("profile %q: %w", name, core.ErrNotFound)
		}
		ok, err := confirm(cmd, fmt.Sprintf("Delete %s profile %q?", store.System().DisplayName(), name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		if err := store.DeleteProfile(name); err != nil {
			if errors.Is(err, core.ErrCurrentProfile) {
				return fmt.Errorf("%w; switch to another profile first", err)
			}
			return err
		}
		printOK(cmd.OutOrStdout(), "Deleted profile %q", name)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a profile's details and root document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		store, err := d.toolStore(cmd)
		if err != nil {
			return err
		}
		p, err := store.LoadProfile(args[0])
		if err != nil {
			return err
		}
		raw, _ := cmd.Flags().GetBool("raw")

		out := cmd.OutOrStdout()
		sys := store.System()
		current, _ := store.CurrentProfile()

		fmt.Fprintf(out, "Name:        %s\n", p.Name)
		fmt.Fprintf(out, "Tool:        %s\n", sys.DisplayName())
		if p.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", p.Description)
		}
		fmt.Fprintf(out, "Created:     %s\n", formatTime(p.CreatedAt))
		if p.LastUsed != nil {
			fmt.Fprintf(out, "Last used:   %s\n", formatTime(*p.LastUsed))
		}
		if current == p.Name {
			fmt.Fprintln(out, "Current:     yes")
		}

		files := p.Bundle.Files()
		fmt.Fprintln(out)
		fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Files (%d):", len(files))))
		for _, f := range files {
			info := asset.Describe(f.Path, f.Content)
			if f.Path == sys.RootDocument() || info.Description == "" || !strings.HasSuffix(f.Path, ".md") {
				fmt.Fprintf(out, "  %s\n", f.Path)
				continue
			}
			fmt.Fprintf(out, "  %-32s %s\n", f.Path, mutedStyle.Render(truncate(info.Description)))
		}

		root, ok := rootDocument(sys, p.Bundle)
		if !ok {
			return nil
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, headingStyle.Render(sys.RootDocument()+":"))
		fmt.Fprint(out, renderMarkdown(root, raw))
		return nil
	},
}

// renderMarkdown renders md for the terminal, or returns it unchanged when
// raw is set, stdout is not a terminal, or rendering fails.
func renderMarkdown(md string, raw bool) string {
	if raw || !isInteractive() {
		if !strings.HasSuffix(md, "\n") {
			md += "\n"
		}
		return md
	}
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	rendered, err := r.Render(md)
	if err != nil {
		return md
	}
	return rendered
}

// rootDocument returns the root document of b, if it has one.
func rootDocument(sys system.System, b system.Bundle) (string, bool) {
	for _, f := range b.Files() {
		if f.Path == sys.RootDocument() {
			return f.Content, true
		}
	}
	return "", false
}

func init() {
	descriptionFlag(saveCmd)
	descriptionFlag(createCmd)
	showCmd.Flags().Bool("raw", false, "Print the root document without rendering")

	rootCmd.AddCommand(listCmd, currentCmd, useCmd, saveCmd, createCmd, deleteCmd, showCmd)
}
