package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crytic/solcexport/compilation/platforms"
	"github.com/crytic/solcexport/toolchain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultProjectConfig ensures the defaults describe the ERC-20 export and pass validation.
func TestDefaultProjectConfig(t *testing.T) {
	projectConfig, err := GetDefaultProjectConfig()
	require.NoError(t, err)
	require.NoError(t, projectConfig.Validate())

	assert.Equal(t, "0.8.19", projectConfig.Toolchain.Version)
	assert.Equal(t, toolchain.ProviderTypeBinaries, projectConfig.Toolchain.Provider)
	assert.Equal(t, "solc", projectConfig.Compilation.Platform)
	assert.Equal(t, filepath.Join(".", "erc20-abi.json"), projectConfig.AbiPath())
	assert.Equal(t, filepath.Join(".", "erc20-bytecode.json"), projectConfig.BytecodePath())
	assert.Equal(t, 2, projectConfig.Output.Indent)
	assert.False(t, projectConfig.Output.Deployment.Enabled)

	// The default platform config compiles the built-in source
	platformConfig, err := projectConfig.Compilation.GetPlatformConfig()
	require.NoError(t, err)
	assert.Empty(t, platformConfig.GetTarget())
	assert.Empty(t, platformConfig.GetSource())
}

// TestProjectConfigFileRoundTrip ensures configs written to disk are read back with missing values defaulted.
func TestProjectConfigFileRoundTrip(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, DefaultConfigFileName)

	projectConfig, err := GetDefaultProjectConfig()
	require.NoError(t, err)
	projectConfig.Toolchain.Version = "0.8.20"
	projectConfig.Logging.Level = zerolog.DebugLevel
	require.NoError(t, projectConfig.Compilation.SetTarget("token.sol"))
	require.NoError(t, projectConfig.WriteToFile(path))

	readConfig, err := ReadProjectConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.8.20", readConfig.Toolchain.Version)
	assert.Equal(t, zerolog.DebugLevel, readConfig.Logging.Level)
	platformConfig, err := readConfig.Compilation.GetPlatformConfig()
	require.NoError(t, err)
	assert.Equal(t, "token.sol", platformConfig.GetTarget())

	// A partial config keeps defaults for everything it omits
	partialPath := filepath.Join(directory, "partial.json")
	require.NoError(t, os.WriteFile(partialPath, []byte(`{"output": {"directory": "build"}}`), 0644))
	partialConfig, err := ReadProjectConfigFromFile(partialPath)
	require.NoError(t, err)
	assert.Equal(t, "build", partialConfig.Output.Directory)
	assert.Equal(t, "erc20-abi.json", partialConfig.Output.AbiFileName)
	assert.Equal(t, "0.8.19", partialConfig.Toolchain.Version)

	// Malformed and missing files are reported
	require.NoError(t, os.WriteFile(partialPath, []byte(`{`), 0644))
	_, err = ReadProjectConfigFromFile(partialPath)
	assert.Error(t, err)
	_, err = ReadProjectConfigFromFile(filepath.Join(directory, "missing.json"))
	assert.Error(t, err)
}

// TestProjectConfigValidate ensures invalid configs are rejected.
func TestProjectConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *ProjectConfig)
	}{
		{"invalid version", func(p *ProjectConfig) { p.Toolchain.Version = "latest" }},
		{"prerelease version", func(p *ProjectConfig) { p.Toolchain.Version = "0.8.19-nightly.2023.2.1" }},
		{"unknown provider", func(p *ProjectConfig) { p.Toolchain.Provider = "svm" }},
		{"missing compilation", func(p *ProjectConfig) { p.Compilation = nil }},
		{"unknown platform", func(p *ProjectConfig) { p.Compilation.Platform = "hardhat" }},
		{"empty abi file name", func(p *ProjectConfig) { p.Output.AbiFileName = "" }},
		{"nested bytecode file name", func(p *ProjectConfig) { p.Output.BytecodeFileName = filepath.Join("out", "b.json") }},
		{"duplicate file names", func(p *ProjectConfig) { p.Output.BytecodeFileName = p.Output.AbiFileName }},
		{"negative indent", func(p *ProjectConfig) { p.Output.Indent = -1 }},
		{"deployment file collides", func(p *ProjectConfig) {
			p.Output.Deployment.Enabled = true
			p.Output.Deployment.FileName = p.Output.AbiFileName
		}},
		{"deployment decimals", func(p *ProjectConfig) {
			p.Output.Deployment.Enabled = true
			p.Output.Deployment.Decimals = 78
		}},
		{"empty constructor argument", func(p *ProjectConfig) {
			p.Output.Deployment.Enabled = true
			p.Output.Deployment.ConstructorArgs = []string{" "}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projectConfig, err := GetDefaultProjectConfig()
			require.NoError(t, err)
			tt.modify(projectConfig)
			assert.Error(t, projectConfig.Validate())
		})
	}
}

// TestProjectConfigNewProvider ensures the configured provider type is constructed.
func TestProjectConfigNewProvider(t *testing.T) {
	projectConfig, err := GetDefaultProjectConfig()
	require.NoError(t, err)

	projectConfig.Toolchain.Provider = toolchain.ProviderTypeSystem
	provider, err := projectConfig.NewProvider()
	require.NoError(t, err)
	assert.IsType(t, &toolchain.System{}, provider)

	// The standard JSON platform is accepted as well
	compilationConfig := projectConfig.Compilation
	require.NoError(t, compilationConfig.SetPlatformConfig(platforms.NewSolcStandardJSONCompilationConfig("")))
	assert.NoError(t, projectConfig.Validate())
}
