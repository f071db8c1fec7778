package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crytic/solcexport/cmd/exitcodes"
	"github.com/crytic/solcexport/compilation"
	"github.com/crytic/solcexport/export/config"
	"github.com/crytic/solcexport/logging/colors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Get supported platforms for customized static completions of "init" flag `$ solcexport init <tab> <tab>`
// and to cache supported platforms for CLI arguments validation
var supportedPlatforms = compilation.GetSupportedCompilationPlatforms()

// initCmd represents the command provider for init
var initCmd = &cobra.Command{
	Use:               "init [platform]",
	Short:             "Initializes a project configuration",
	Long:              `Initializes a project configuration`,
	Args:              cmdValidateInitArgs,
	ValidArgsFunction: cmdValidInitArgs,
	RunE:              cmdRunInit,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	// Add flags to init command
	err := addInitFlags()
	if err != nil {
		cmdLogger.Panic("Failed to initialize the init command", err)
	}

	// Add the init command and its associated flags to the root command
	rootCmd.AddCommand(initCmd)
}

// cmdValidInitArgs will return which flags and sub-commands are valid for dynamic completion for the init command
func cmdValidInitArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Gather a list of flags that are available to be used in the current command but have not been used yet
	var unusedFlags []string

	// Examine all the flags, and add any flags that have not been set in the current command line
	// to a list of unused flags
	flagUsed := false
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			unusedFlags = append(unusedFlags, "--"+flag.Name)
		} else {
			// If any flag has been used, set flag used to true. This will be used later in the function.
			flagUsed = true
		}
	})

	// If a platform is not specified, add a list of available platforms to the list of unused flags.
	// If any flag is used, then we can assume that the default platform is used so we don't need to add supported platforms
	if len(args) == 0 && !flagUsed {
		unusedFlags = append(unusedFlags, supportedPlatforms...)
	}

	// Provide a list of flags that can be used in the current command (but have not been used yet)
	// for autocompletion suggestions
	return unusedFlags, cobra.ShellCompDirectiveNoFileComp
}

// cmdValidateInitArgs validates CLI arguments
func cmdValidateInitArgs(cmd *cobra.Command, args []string) error {
	// Make sure we have no more than 1 arg
	if err := cobra.RangeArgs(0, 1)(cmd, args); err != nil {
		err = fmt.Errorf("init accepts at most 1 platform argument (options: %s). "+
			"default platform is %v", strings.Join(supportedPlatforms, ", "), config.DefaultPlatform)
		cmdLogger.Error("Failed to validate args to the init command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}

	// Ensure the optional provided argument refers to a supported platform
	if len(args) == 1 && !compilation.IsSupportedCompilationPlatform(args[0]) {
		err := fmt.Errorf("init was provided invalid platform argument '%s' (options: %s)", args[0], strings.Join(supportedPlatforms, ", "))
		cmdLogger.Error("Failed to validate args to the init command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}

	return nil
}

// cmdRunInit executes the init CLI command and updates the project configuration with any flags
func cmdRunInit(cmd *cobra.Command, args []string) error {
	outputPath, err := runInit(cmd, args)
	if err != nil {
		cmdLogger.Error("Failed to run the init command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}
	if outputPath != "" {
		cmdLogger.Info("Project configuration successfully output to: ", colors.Bold, outputPath, colors.Reset)
	}
	return nil
}

// runInit writes the project configuration for the init command. Returns the absolute path the configuration was
// written to, or an empty string if the user chose not to overwrite an existing file.
func runInit(cmd *cobra.Command, args []string) (string, error) {
	// Check to see if --out flag was used and store the value of --out flag
	outputFlagUsed := cmd.Flags().Changed("out")
	outputPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return "", err
	}
	// If we weren't provided an output path (flag was not used), we use our working directory
	if !outputFlagUsed {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return "", err
		}
		outputPath = filepath.Join(workingDirectory, config.DefaultConfigFileName)
	}

	// By default, projectConfig will be the default project config, which uses the default platform
	projectConfig, err := config.GetDefaultProjectConfig()
	if err != nil {
		return "", err
	}

	// If a platform is provided (and it is not the default), then use the default config for that platform
	if len(args) == 1 && args[0] != config.DefaultPlatform {
		projectConfig.Compilation, err = compilation.NewCompilationConfig(args[0])
		if err != nil {
			return "", err
		}
	}

	// Update the project configuration given whatever flags were set using the CLI
	err = updateProjectConfigWithInitFlags(cmd, projectConfig)
	if err != nil {
		return "", err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return "", err
	}
	if _, err = os.Stat(outputPath); err == nil && !force {
		// Prompt user for overwrite confirmation
		fmt.Fprint(cmd.OutOrStdout(), "The file already exists. Overwrite? (y/n): ")
		var response string
		if _, err := fmt.Fscan(cmd.InOrStdin(), &response); err != nil {
			return "", err
		}

		if response != "y" && response != "Y" {
			fmt.Fprintln(cmd.OutOrStdout(), "Operation canceled.")
			return "", nil
		}
	}

	// Write our project configuration
	err = projectConfig.WriteToFile(outputPath)
	if err != nil {
		return "", err
	}

	if absoluteOutputPath, err := filepath.Abs(outputPath); err == nil {
		outputPath = absoluteOutputPath
	}
	return outputPath, nil
}
