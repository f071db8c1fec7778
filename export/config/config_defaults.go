package config

import (
	"github.com/crytic/solcexport/compilation"
	"github.com/crytic/solcexport/toolchain"
	"github.com/crytic/solcexport/version"
	"github.com/rs/zerolog"
)

const (
	// DefaultConfigFileName is the name of the project config file read when none is specified.
	DefaultConfigFileName = "solcexport.json"

	// DefaultSolcVersion is the solc version used when none is configured.
	DefaultSolcVersion = version.SolcVersion

	// DefaultPlatform is the compilation platform used when none is configured.
	DefaultPlatform = "solc"
)

// GetDefaultProjectConfig obtains a default configuration which compiles the built-in ERC-20 source with solc
// 0.8.19 and writes erc20-abi.json and erc20-bytecode.json to the working directory.
func GetDefaultProjectConfig() (*ProjectConfig, error) {
	compilationConfig, err := compilation.NewCompilationConfig(DefaultPlatform)
	if err != nil {
		return nil, err
	}

	// Create a project configuration
	projectConfig := &ProjectConfig{
		Toolchain: ToolchainConfig{
			Version:        DefaultSolcVersion,
			Provider:       toolchain.ProviderTypeBinaries,
			CacheDirectory: toolchain.DefaultCacheDirectory,
			Install:        true,
			DownloadURL:    toolchain.DefaultDownloadURL,
		},
		Compilation: compilationConfig,
		Output: OutputConfig{
			Directory:        ".",
			AbiFileName:      "erc20-abi.json",
			BytecodeFileName: "erc20-bytecode.json",
			Indent:           2,
			Deployment: DeploymentConfig{
				Enabled:         false,
				FileName:        "erc20-deployment.json",
				ConstructorArgs: []string{"1000000"},
				Decimals:        18,
			},
		},
		Logging: LoggingConfig{
			Level:        zerolog.InfoLevel,
			LogDirectory: "",
			NoColor:      false,
		},
	}

	// Return the project configuration
	return projectConfig, nil
}
