package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/crytic/solcexport/cmd/exitcodes"
	"github.com/crytic/solcexport/export"
	"github.com/crytic/solcexport/logging/colors"
	"github.com/spf13/cobra"
)

// exportCmd represents the command provider for exporting artifacts
var exportCmd = &cobra.Command{
	Use:               "export",
	Short:             "Compiles the source and exports its ABI and bytecode",
	Long:              `Installs the configured solc version, compiles the source and exports the contract ABI and creation bytecode`,
	Args:              cmdValidateExportArgs,
	ValidArgsFunction: cmdValidExportArgs,
	RunE:              cmdRunExport,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	// Add all the flags allowed for the export command
	err := addExportFlags(exportCmd)
	if err != nil {
		cmdLogger.Panic("Failed to initialize the export command", err)
	}

	// Add the export command and its associated flags to the root command
	rootCmd.AddCommand(exportCmd)
}

// cmdValidExportArgs will return which flags are valid for dynamic completion for the export command
func cmdValidExportArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Provide a list of flags that can be used in the current command (but have not been used yet)
	// for autocompletion suggestions
	return validUnusedFlags(cmd), cobra.ShellCompDirectiveNoFileComp
}

// cmdValidateExportArgs makes sure that there are no positional arguments provided to the export command
func cmdValidateExportArgs(cmd *cobra.Command, args []string) error {
	// Make sure we have no positional args
	if err := cobra.NoArgs(cmd, args); err != nil {
		err = fmt.Errorf("%s does not accept any positional arguments, only flags and their associated values", cmd.Name())
		cmdLogger.Error("Failed to validate args to the export command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}
	return nil
}

// cmdRunExport executes the CLI export command: it resolves the project config, applies the flags and runs the
// exporter. Errors are mapped to the exit code of the stage they occurred in.
func cmdRunExport(cmd *cobra.Command, args []string) error {
	projectConfig, err := loadProjectConfig(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the export command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}

	// Update the project configuration given whatever flags were set using the CLI
	err = updateProjectConfigWithExportFlags(cmd, projectConfig)
	if err != nil {
		cmdLogger.Error("Failed to run the export command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}

	// Validate the configuration before anything is installed or written
	if err = projectConfig.Validate(); err != nil {
		cmdLogger.Error("Invalid project configuration", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}

	// Set up the global logger for the run
	runId, closeLog, err := setupGlobalLogger(projectConfig.Logging)
	if err != nil {
		cmdLogger.Error("Failed to set up logging", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}
	defer closeLog()
	cmdLogger.Debug("Starting export run ", runId)

	provider, err := projectConfig.NewProvider()
	if err != nil {
		cmdLogger.Error("Failed to create the toolchain provider", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeToolchainError)
	}
	exporter, err := export.NewExporter(projectConfig, provider)
	if err != nil {
		cmdLogger.Error("Failed to run the export command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeGeneralError)
	}

	exporter.Events.ArtifactsWritten.Subscribe(func(event export.ArtifactsWrittenEvent) error {
		for _, path := range event.Paths {
			cmdLogger.Debug("Wrote ", path)
		}
		return nil
	})

	// Stop installs and compilation on keyboard interrupts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := exporter.Run(ctx)
	if err != nil {
		cmdLogger.Error("Export failed", err)
		return exitcodes.NewErrorWithExitCode(err, exitCodeForStage(export.GetStage(err)))
	}

	if !result.ArtifactsChanged {
		cmdLogger.Info("Artifacts for ", colors.Bold, result.ContractName, colors.Reset, " are unchanged")
	}
	return nil
}

// exitCodeForStage returns the exit code for an export error which occurred in the provided stage.
func exitCodeForStage(stage export.Stage) int {
	switch stage {
	case export.StageToolchain:
		return exitcodes.ExitCodeToolchainError
	case export.StageCompilation:
		return exitcodes.ExitCodeCompilationError
	case export.StageExport:
		return exitcodes.ExitCodeExportError
	}
	return exitcodes.ExitCodeGeneralError
}
