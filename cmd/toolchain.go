package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Masterminds/semver"
	"github.com/crytic/solcexport/cmd/exitcodes"
	"github.com/crytic/solcexport/logging/colors"
	"github.com/crytic/solcexport/toolchain"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// toolchainCmd groups the commands which manage installed solc versions
var toolchainCmd = &cobra.Command{
	Use:   "toolchain",
	Short: "Manages installed solc versions",
	Long:  `Installs, selects and lists solc versions using the configured toolchain provider`,
}

// toolchainInstallCmd installs a solc version
var toolchainInstallCmd = &cobra.Command{
	Use:           "install <version>",
	Short:         "Installs a solc version",
	Args:          cobra.ExactArgs(1),
	RunE:          cmdRunToolchainInstall,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// toolchainUseCmd selects an installed solc version as the default
var toolchainUseCmd = &cobra.Command{
	Use:           "use <version>",
	Short:         "Selects an installed solc version as the default",
	Args:          cobra.ExactArgs(1),
	RunE:          cmdRunToolchainUse,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// toolchainListCmd lists installed or available solc versions
var toolchainListCmd = &cobra.Command{
	Use:           "list",
	Short:         "Lists installed solc versions",
	Args:          cobra.NoArgs,
	RunE:          cmdRunToolchainList,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// The config, provider and cache directory flags apply to every toolchain sub-command
	addToolchainFlags(toolchainCmd, true)
	toolchainListCmd.Flags().Bool("available", false, "list the versions which can be installed instead")

	toolchainCmd.AddCommand(toolchainInstallCmd, toolchainUseCmd, toolchainListCmd)
	rootCmd.AddCommand(toolchainCmd)
}

// newToolchainProvider resolves the project config for a toolchain command and creates its provider.
func newToolchainProvider(cmd *cobra.Command) (toolchain.Provider, error) {
	projectConfig, err := loadProjectConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err = updateToolchainConfig(cmd, projectConfig); err != nil {
		return nil, err
	}

	// Install progress is logged through the global logger
	_, closeLog, err := setupGlobalLogger(projectConfig.Logging)
	if err != nil {
		return nil, err
	}
	cobra.OnFinalize(closeLog)

	return projectConfig.NewProvider()
}

// parseVersionArg parses a solc version provided as a positional argument.
func parseVersionArg(arg string) (*semver.Version, error) {
	version, err := semver.NewVersion(arg)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid solc version '%s'", arg)
	}
	return version, nil
}

// cmdRunToolchainInstall executes the toolchain install command
func cmdRunToolchainInstall(cmd *cobra.Command, args []string) error {
	version, err := parseVersionArg(args[0])
	if err != nil {
		cmdLogger.Error("Failed to run the toolchain install command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}
	provider, err := newToolchainProvider(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the toolchain install command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}

	// Stop the install on keyboard interrupts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err = provider.Install(ctx, version); err != nil {
		cmdLogger.Error("Failed to install solc ", version, err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeToolchainError)
	}
	cmdLogger.Info("solc ", colors.Bold, version, colors.Reset, " is installed")
	return nil
}

// cmdRunToolchainUse executes the toolchain use command
func cmdRunToolchainUse(cmd *cobra.Command, args []string) error {
	version, err := parseVersionArg(args[0])
	if err != nil {
		cmdLogger.Error("Failed to run the toolchain use command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}
	provider, err := newToolchainProvider(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the toolchain use command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}

	if err = provider.Use(version); err != nil {
		cmdLogger.Error("Failed to select solc ", version, err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeToolchainError)
	}
	cmdLogger.Info("Using solc ", colors.Bold, version, colors.Reset)
	return nil
}

// cmdRunToolchainList executes the toolchain list command. The active version is marked with an asterisk.
func cmdRunToolchainList(cmd *cobra.Command, args []string) error {
	provider, err := newToolchainProvider(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the toolchain list command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}
	available, err := cmd.Flags().GetBool("available")
	if err != nil {
		cmdLogger.Error("Failed to run the toolchain list command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}

	var versions []*semver.Version
	if available {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		versions, err = provider.Available(ctx)
	} else {
		versions, err = provider.Installed()
	}
	if err != nil {
		cmdLogger.Error("Failed to list solc versions", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeToolchainError)
	}

	// A provider without a default version simply has nothing to mark
	active, _ := provider.Active()
	writeVersionList(cmd, versions, active)
	return nil
}

// writeVersionList prints one version per line to the command output, marking the active version.
func writeVersionList(cmd *cobra.Command, versions []*semver.Version, active *semver.Version) {
	for _, version := range versions {
		marker := " "
		if active != nil && active.Equal(version) {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, version)
	}
}
