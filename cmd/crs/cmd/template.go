package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barysiuk/crs/internal/core"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates"},
	Short:   "Work with built-in profile templates",
}

var templateListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List built-in templates",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tool, _ := cmd.Flags().GetString("tool")
		list, err := core.NewTemplateManager().List(tool)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No templates.")
			return nil
		}
		for _, t := range list {
			fmt.Fprintf(out, "  %-8s %-16s %s\n", t.ToolType, t.Name, truncate(t.Description))
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <template>",
	Short: "Show a template's metadata and files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		sys, err := d.tool(cmd)
		if err != nil {
			return err
		}
		t, err := core.NewTemplateManager().Get(sys.Name(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name:        %s\n", t.Name)
		fmt.Fprintf(out, "Title:       %s\n", t.DisplayName)
		fmt.Fprintf(out, "Tool:        %s\n", sys.DisplayName())
		if t.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", t.Description)
		}
		if t.Category != "" {
			fmt.Fprintf(out, "Category:    %s\n", t.Category)
		}
		if len(t.Tags) > 0 {
			fmt.Fprintf(out, "Tags:        %s\n", strings.Join(t.Tags, ", "))
		}
		if t.Version != "" {
			fmt.Fprintf(out, "Version:     %s\n", t.Version)
		}
		if t.Author != "" {
			fmt.Fprintf(out, "Author:      %s\n", t.Author)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Files (%d):", len(t.Files))))
		for _, f := range t.Files {
			fmt.Fprintf(out, "  %s\n", f.Path)
		}
		return nil
	},
}

var templateInstallCmd = &cobra.Command{
	Use:   "install <template> <profile>",
	Short: "Create a profile from a template",
	Args:  cobra.ExactArgs(2),
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
		p, err := core.NewTemplateManager().Install(store, args[0], args[1], description)
		if err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "Created %s profile %q from template %q (%d files)",
			store.System().DisplayName(), p.Name, args[0], p.Bundle.FileCount())
		return nil
	},
}

func init() {
	descriptionFlag(templateInstallCmd)

	templateCmd.AddCommand(templateListCmd, templateShowCmd, templateInstallCmd)
	rootCmd.AddCommand(templateCmd)
}
