package cmd

import (
	"os"

	"github.com/crytic/solcexport/logging"
	"github.com/crytic/solcexport/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootCmd exports the ERC-20 artifacts when it is run without a sub-command
var rootCmd = &cobra.Command{
	Use:   "solcexport",
	Short: "Compiles an ERC-20 token with a pinned solc and exports its ABI and bytecode",
	Long: "solcexport installs a pinned solc release, compiles an ERC-20 token contract and writes its ABI and " +
		"creation bytecode as JSON artifacts",
	Version:           version.GetInfo().Short(),
	Args:              cmdValidateExportArgs,
	ValidArgsFunction: cmdValidExportArgs,
	RunE:              cmdRunExport,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// cmdLogger is the logger that will be used for the cmd package
var cmdLogger = logging.NewLogger(zerolog.InfoLevel)

func init() {
	// The root command accepts the export flags so that running without a sub-command exports
	if err := addExportFlags(rootCmd); err != nil {
		cmdLogger.Panic("Failed to initialize the root command", err)
	}
}

// Execute provides an exportable function to invoke the CLI. Returns an error if one was encountered.
func Execute() error {
	// Add stdout as an unstructured, colorized output stream to the command logger
	cmdLogger.AddWriter(os.Stdout, logging.UNSTRUCTURED, true)

	return rootCmd.Execute()
}
