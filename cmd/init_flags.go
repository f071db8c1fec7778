package cmd

import (
	"github.com/crytic/solcexport/export/config"
	"github.com/spf13/cobra"
)

// addInitFlags adds the various flags for the init command
func addInitFlags() error {
	// Output path for configuration
	initCmd.Flags().String("out", "", "output path for the new project configuration file")

	// Source file
	initCmd.Flags().String("source", "", SourceFlagDescription)

	// Overwrite without prompting
	initCmd.Flags().Bool("force", false, "overwrite an existing configuration file without prompting")

	return nil
}

// updateProjectConfigWithInitFlags will update the given projectConfig with any CLI arguments that were provided to the init command
func updateProjectConfigWithInitFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	// Update source if necessary
	if cmd.Flags().Changed("source") {
		newSource, err := cmd.Flags().GetString("source")
		if err != nil {
			return err
		}
		return projectConfig.Compilation.SetTarget(newSource)
	}
	return nil
}
