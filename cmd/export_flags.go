package cmd

import (
	"fmt"

	"github.com/crytic/solcexport/export/config"
	"github.com/spf13/cobra"
)

// addExportFlags adds the various flags for the export command
func addExportFlags(cmd *cobra.Command) error {
	// Get the default project config and throw an error if we cant
	defaultConfig, err := config.GetDefaultProjectConfig()
	if err != nil {
		return err
	}

	// Prevent alphabetical sorting of usage message
	cmd.Flags().SortFlags = false

	// Config file, provider and cache directory
	addToolchainFlags(cmd, false)

	// Source
	cmd.Flags().String("source", "", SourceFlagDescription)

	// Compiler version
	cmd.Flags().String("solc-version", "",
		fmt.Sprintf("solc release version to compile with (unless a config file is provided, default is %s)", defaultConfig.Toolchain.Version))

	// Skip installs
	cmd.Flags().Bool("no-install", false, "fail instead of installing solc if the version is missing")

	// Contract name
	cmd.Flags().String("contract", "", "name of the contract to export when the source defines more than one")

	// Output directory and files
	cmd.Flags().String("out-dir", "",
		fmt.Sprintf("directory the artifacts are written to (unless a config file is provided, default is %q)", defaultConfig.Output.Directory))
	cmd.Flags().String("abi-file", "",
		fmt.Sprintf("file name of the ABI artifact (unless a config file is provided, default is %q)", defaultConfig.Output.AbiFileName))
	cmd.Flags().String("bytecode-file", "",
		fmt.Sprintf("file name of the bytecode artifact (unless a config file is provided, default is %q)", defaultConfig.Output.BytecodeFileName))

	// Deployment payload
	cmd.Flags().Bool("deployment", false,
		fmt.Sprintf("also write a deployment payload with encoded constructor arguments to %q", defaultConfig.Output.Deployment.FileName))

	// Logging
	cmd.Flags().String("log-dir", "", "directory structured log files are written to")
	cmd.Flags().Bool("no-color", false, "disable colored console output")
	return nil
}

// updateProjectConfigWithExportFlags will update the given projectConfig with any CLI arguments that were provided to
// the export command
func updateProjectConfigWithExportFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error

	// Update the provider and cache directory
	if err = updateToolchainConfig(cmd, projectConfig); err != nil {
		return err
	}

	// If --source was used
	if cmd.Flags().Changed("source") {
		// Get the new source
		newSource, err := cmd.Flags().GetString("source")
		if err != nil {
			return err
		}

		err = projectConfig.Compilation.SetTarget(newSource)
		if err != nil {
			return err
		}
	}

	// Update the compiler version
	if cmd.Flags().Changed("solc-version") {
		projectConfig.Toolchain.Version, err = cmd.Flags().GetString("solc-version")
		if err != nil {
			return err
		}
	}

	// Update whether installs are allowed
	if cmd.Flags().Changed("no-install") {
		noInstall, err := cmd.Flags().GetBool("no-install")
		if err != nil {
			return err
		}
		projectConfig.Toolchain.Install = !noInstall
	}

	// Update the contract name
	if cmd.Flags().Changed("contract") {
		projectConfig.Compilation.ContractName, err = cmd.Flags().GetString("contract")
		if err != nil {
			return err
		}
	}

	// Update the output directory
	if cmd.Flags().Changed("out-dir") {
		projectConfig.Output.Directory, err = cmd.Flags().GetString("out-dir")
		if err != nil {
			return err
		}
	}

	// Update the ABI file name
	if cmd.Flags().Changed("abi-file") {
		projectConfig.Output.AbiFileName, err = cmd.Flags().GetString("abi-file")
		if err != nil {
			return err
		}
	}

	// Update the bytecode file name
	if cmd.Flags().Changed("bytecode-file") {
		projectConfig.Output.BytecodeFileName, err = cmd.Flags().GetString("bytecode-file")
		if err != nil {
			return err
		}
	}

	// Update the deployment payload
	if cmd.Flags().Changed("deployment") {
		projectConfig.Output.Deployment.Enabled, err = cmd.Flags().GetBool("deployment")
		if err != nil {
			return err
		}
	}

	// Update the log directory
	if cmd.Flags().Changed("log-dir") {
		projectConfig.Logging.LogDirectory, err = cmd.Flags().GetString("log-dir")
		if err != nil {
			return err
		}
	}

	// Update console coloring
	if cmd.Flags().Changed("no-color") {
		projectConfig.Logging.NoColor, err = cmd.Flags().GetBool("no-color")
		if err != nil {
			return err
		}
	}
	return nil
}
