package cmd

import (
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isInteractive reports whether stdin and stdout are both terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// confirm asks a yes/no question. --yes and non-interactive sessions
// answer yes without asking.
func confirm(cmd *cobra.Command, message string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes || !isInteractive() {
		return true, nil
	}
	var confirmed bool
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}

// selectOne asks the user to pick one of options and returns its index.
func selectOne(message string, options []string) (int, error) {
	var choice int
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 10,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return 0, err
	}
	return choice, nil
}

// descriptionFlag adds the -d/--description flag.
func descriptionFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("description", "d", "", "Profile description")
}
