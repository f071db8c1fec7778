package cmd

import (
	"fmt"

	"github.com/crytic/solcexport/cmd/exitcodes"
	"github.com/spf13/cobra"
)

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:       "completion <shell>",
	Short:     "Generate shell completion code for the specified shell (bash, zsh, fish or powershell)",
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Long: `To load completions:

Bash:

  $ source <(%[1]s completion bash), e.g. source <(solcexport completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ %[1]s completion bash > /etc/bash_completion.d/%[1]s
  # macOS:
  $ %[1]s completion bash > $(brew --prefix)/etc/bash_completion.d/%[1]s

Zsh:

  $ %[1]s completion zsh > "${fpath[1]}/_%[1]s"`,
	RunE:          cmdRunCompletion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// cmdRunCompletion writes the completion script for the requested shell to the command output
func cmdRunCompletion(cmd *cobra.Command, args []string) error {
	var err error
	out := cmd.OutOrStdout()
	switch args[0] {
	case "bash":
		err = cmd.Root().GenBashCompletion(out)
	case "zsh":
		err = cmd.Root().GenZshCompletion(out)
	case "fish":
		err = cmd.Root().GenFishCompletion(out, true)
	case "powershell":
		err = cmd.Root().GenPowerShellCompletionWithDesc(out)
	default:
		err = fmt.Errorf("unsupported shell '%s'", args[0])
	}
	if err != nil {
		cmdLogger.Error("Unable to generate a completion script", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}
	return nil
}
