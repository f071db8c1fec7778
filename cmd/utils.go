package cmd

import (
	"os"
	"path/filepath"

	"github.com/crytic/solcexport/export/config"
	"github.com/crytic/solcexport/logging/colors"
	"github.com/crytic/solcexport/toolchain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// loadProjectConfig resolves the project config for a command and navigates through the following possibilities:
// #1: We will search for either a custom config file (via --config) or the default (solcexport.json).
// If we find it, read it. If we can't read it, throw an error.
// #2: If a custom file was provided (--config was used), and we can't find the file, throw an error.
// #3: If solcexport.json can't be found, use the default project configuration.
func loadProjectConfig(cmd *cobra.Command) (*config.ProjectConfig, error) {
	// Check to see if --config flag was used and store the value of --config flag
	configFlagUsed := cmd.Flags().Changed("config")
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If --config was not used, look for `solcexport.json` in the current work directory
	if !configFlagUsed {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(workingDirectory, config.DefaultConfigFileName)
	}

	// Check to see if the file exists at configPath
	_, existenceError := os.Stat(configPath)

	// Possibility #1: File was found
	if existenceError == nil {
		cmdLogger.Info("Reading the configuration file at: ", colors.Bold, configPath, colors.Reset)
		return config.ReadProjectConfigFromFile(configPath)
	}

	// Possibility #2: If the --config flag was used, and we couldn't find the file, we'll throw an error
	if configFlagUsed {
		return nil, existenceError
	}

	// Possibility #3: --config flag was not used and solcexport.json was not found, so use the default project config
	cmdLogger.Debug("No configuration file found at ", configPath, ", using the default project configuration")
	return config.GetDefaultProjectConfig()
}

// addToolchainFlags adds the flags which select and configure the toolchain provider to the provided command.
func addToolchainFlags(cmd *cobra.Command, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}

	// Config file
	flags.String("config", "", "path to config file")

	// Provider and its cache
	flags.String("provider", "", ProviderFlagDescription)
	flags.String("cache-dir", "", CacheDirFlagDescription)
}

// updateToolchainConfig will update the toolchain config in the projectConfig if the --provider or --cache-dir flags
// are used in the command
func updateToolchainConfig(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error

	// Update the provider
	if cmd.Flags().Changed("provider") {
		var provider string
		provider, err = cmd.Flags().GetString("provider")
		if err != nil {
			return err
		}
		projectConfig.Toolchain.Provider = toolchain.ProviderType(provider)
	}

	// Update the cache directory
	if cmd.Flags().Changed("cache-dir") {
		projectConfig.Toolchain.CacheDirectory, err = cmd.Flags().GetString("cache-dir")
		if err != nil {
			return err
		}
	}
	return nil
}

// validUnusedFlags returns the flags that have not been used yet in the current command line, for dynamic completion
func validUnusedFlags(cmd *cobra.Command) []string {
	var unusedFlags []string
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			// When adding a flag to a command, include the "--" prefix to indicate that it is a flag
			// and not a positional argument.
			unusedFlags = append(unusedFlags, "--"+flag.Name)
		}
	})
	return unusedFlags
}
