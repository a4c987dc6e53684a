package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backups of the live configuration",
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

		out := cmd.OutOrStdout()
		for i, sys := range tools {
			store, err := d.store(sys)
			if err != nil {
				return err
			}
			backups, err := store.ListBackups()
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, headingStyle.Render(sys.DisplayName()+" backups:"))
			if len(backups) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("  none"))
				continue
			}
			for _, b := range backups {
				fmt.Fprintf(out, "  %-28s %-20s %s\n", b.Timestamp, b.ProfileName, mutedStyle.Render(formatTime(b.CreatedAt)))
			}
		}
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [timestamp]",
	Short: "Restore the live configuration from a backup",
	Long: `Replace the live configuration with a backup. The live configuration
is itself backed up first. Without a timestamp, choose from a list.

The current profile is not changed by a restore.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		store, err := d.toolStore(cmd)
		if err != nil {
			return err
		}

		var timestamp string
		if len(args) == 1 {
			timestamp = args[0]
		} else {
			if !isInteractive() {
				return errors.New("timestamp required; see \"crs backups\"")
			}
			backups, err := store.ListBackups()
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				return fmt.Errorf("no %s backups", store.System().DisplayName())
			}
			options := make([]string, len(backups))
			for i, b := range backups {
				options[i] = fmt.Sprintf("%s  (%s)", b.Timestamp, b.ProfileName)
			}
			choice, err := selectOne("Restore which backup?", options)
			if err != nil {
				return err
			}
			timestamp = backups[choice].Timestamp
		}

		ok, err := confirm(cmd, fmt.Sprintf("Replace the live %s configuration with backup %s?",
			store.System().DisplayName(), timestamp))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		if err := store.RestoreBackup(timestamp); err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "Restored %s configuration from %s", store.System().DisplayName(), timestamp)
		if current, ok := store.CurrentProfile(); ok {
			printWarn(cmd.OutOrStdout(), "Current profile is still %q; save the restored setup with \"crs save\" to keep it", current)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupsCmd, restoreCmd)
}
