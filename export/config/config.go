package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/crytic/solcexport/compilation"
	"github.com/crytic/solcexport/toolchain"
	"github.com/crytic/solcexport/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ProjectConfig describes the configuration of an export: the compiler to use, what to compile and where to write
// the artifacts.
type ProjectConfig struct {
	// Toolchain describes the solc version to use and how it is installed.
	Toolchain ToolchainConfig `json:"toolchain"`

	// Compilation describes the configuration used to compile the source.
	Compilation *compilation.CompilationConfig `json:"compilation"`

	// Output describes the artifacts which are written.
	Output OutputConfig `json:"output"`

	// Logging describes the configuration used for logging
	Logging LoggingConfig `json:"logging"`
}

// ToolchainConfig describes the solc version used for compilation and the provider which installs it.
type ToolchainConfig struct {
	// Version is the exact solc release version to compile with (e.g. "0.8.19").
	Version string `json:"version"`

	// Provider identifies the toolchain.Provider used to install and select the version.
	Provider toolchain.ProviderType `json:"provider"`

	// CacheDirectory is the directory the binaries provider stores solc builds in.
	CacheDirectory string `json:"cacheDirectory"`

	// Install describes whether the version is installed if it is missing. If false, the version must already be
	// installed.
	Install bool `json:"install"`

	// DownloadURL is the base URL of the solc binary repository used by the binaries provider.
	DownloadURL string `json:"downloadURL"`
}

// OutputConfig describes the artifacts written by an export.
type OutputConfig struct {
	// Directory is the directory the artifacts are written to. Relative paths are resolved against the working
	// directory.
	Directory string `json:"directory"`

	// AbiFileName is the name of the file the contract ABI is written to.
	AbiFileName string `json:"abiFileName"`

	// BytecodeFileName is the name of the file the contract creation bytecode is written to.
	BytecodeFileName string `json:"bytecodeFileName"`

	// Indent is the number of spaces each JSON nesting level is indented by.
	Indent int `json:"indent"`

	// Deployment describes the optional deployment payload artifact.
	Deployment DeploymentConfig `json:"deployment"`
}

// DeploymentConfig describes the deployment payload artifact, which holds the creation bytecode with ABI-encoded
// constructor arguments appended.
type DeploymentConfig struct {
	// Enabled describes whether the deployment payload is written.
	Enabled bool `json:"enabled"`

	// FileName is the name of the file the deployment payload is written to.
	FileName string `json:"fileName"`

	// ConstructorArgs are the constructor arguments in declaration order, as strings. Unsigned integers are decimal
	// token amounts scaled by Decimals (e.g. "1000000" with 18 decimals), or unscaled 0x-prefixed hex.
	ConstructorArgs []string `json:"constructorArgs"`

	// Decimals is the number of decimal places unsigned integer arguments are scaled by.
	Decimals int32 `json:"decimals"`
}

// LoggingConfig describes the configuration options used for logging
type LoggingConfig struct {
	// Level describes whether logs of certain severity levels (eg info, warning, etc.) will be emitted or discarded.
	// Increasing level values represent more severe logs
	Level zerolog.Level `json:"level"`

	// LogDirectory describes the directory where structured log _files_ will be outputted. If the string is empty, then
	// no log files are kept
	LogDirectory string `json:"logDirectory"`

	// NoColor disables colored console output.
	NoColor bool `json:"noColor"`
}

// ReadProjectConfigFromFile reads a JSON-serialized ProjectConfig from a provided file path. Values missing from the
// file keep their defaults.
// Returns the ProjectConfig if it succeeds, or an error if one occurs.
func ReadProjectConfigFromFile(path string) (*ProjectConfig, error) {
	// Read our project configuration file data
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Parse the project configuration
	projectConfig, err := GetDefaultProjectConfig()
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(b, projectConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse project config '%s'", path)
	}

	return projectConfig, nil
}

// WriteToFile writes the ProjectConfig to a provided file path in a JSON-serialized format.
// Returns an error if one occurs.
func (p *ProjectConfig) WriteToFile(path string) error {
	// Serialize the configuration
	b, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return errors.WithStack(err)
	}

	// Save it to the provided output path and return the result
	return utils.WriteFileAtomic(path, b, 0644)
}

// SolcVersion parses the configured toolchain version.
func (p *ProjectConfig) SolcVersion() (*semver.Version, error) {
	version, err := semver.NewVersion(p.Toolchain.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid solc version '%s'", p.Toolchain.Version)
	}
	return version, nil
}

// NewProvider creates the toolchain.Provider described by the toolchain config.
func (p *ProjectConfig) NewProvider() (toolchain.Provider, error) {
	return toolchain.NewProvider(p.Toolchain.Provider, toolchain.ProviderOptions{
		CacheDirectory: p.Toolchain.CacheDirectory,
		DownloadURL:    p.Toolchain.DownloadURL,
	})
}

// AbiPath returns the path the ABI artifact is written to.
func (p *ProjectConfig) AbiPath() string {
	return filepath.Join(p.Output.Directory, p.Output.AbiFileName)
}

// BytecodePath returns the path the bytecode artifact is written to.
func (p *ProjectConfig) BytecodePath() string {
	return filepath.Join(p.Output.Directory, p.Output.BytecodeFileName)
}

// DeploymentPath returns the path the deployment payload artifact is written to.
func (p *ProjectConfig) DeploymentPath() string {
	return filepath.Join(p.Output.Directory, p.Output.Deployment.FileName)
}

// Validate validates that the ProjectConfig meets certain requirements.
// Returns an error if one occurs.
func (p *ProjectConfig) Validate() error {
	// Verify the toolchain version is an exact release version
	version, err := p.SolcVersion()
	if err != nil {
		return err
	}
	if version.Prerelease() != "" || version.Metadata() != "" {
		return errors.Errorf("solc version '%s' must be a release version", p.Toolchain.Version)
	}

	// Verify the provider is known
	if !isSupportedProvider(p.Toolchain.Provider) {
		return errors.Errorf("toolchain provider '%s' is unsupported (supported: %v)", p.Toolchain.Provider, toolchain.SupportedProviderTypes())
	}

	// Verify the compilation config can be resolved
	if p.Compilation == nil {
		return errors.New("project config must specify a compilation config")
	}
	if _, err := p.Compilation.GetPlatformConfig(); err != nil {
		return err
	}

	// Verify the output files are plain, distinct file names
	fileNames := []string{p.Output.AbiFileName, p.Output.BytecodeFileName}
	if p.Output.Deployment.Enabled {
		fileNames = append(fileNames, p.Output.Deployment.FileName)
	}
	seen := make(map[string]bool, len(fileNames))
	for _, fileName := range fileNames {
		if err := validateFileName(fileName); err != nil {
			return err
		}
		if seen[fileName] {
			return errors.Errorf("output file name '%s' is used for more than one artifact", fileName)
		}
		seen[fileName] = true
	}

	// Verify the indent is reasonable
	if p.Output.Indent < 0 || p.Output.Indent > 8 {
		return errors.Errorf("output indent must be between 0 and 8, got %d", p.Output.Indent)
	}

	// Verify the deployment arguments are well-formed numbers or values
	if p.Output.Deployment.Enabled {
		if p.Output.Deployment.Decimals < 0 || p.Output.Deployment.Decimals > 77 {
			return errors.Errorf("deployment decimals must be between 0 and 77, got %d", p.Output.Deployment.Decimals)
		}
		for _, arg := range p.Output.Deployment.ConstructorArgs {
			if strings.TrimSpace(arg) == "" {
				return errors.New("deployment constructor arguments cannot be empty")
			}
		}
	}

	return nil
}

// isSupportedProvider returns whether the provided toolchain provider type is known.
func isSupportedProvider(providerType toolchain.ProviderType) bool {
	for _, supported := range toolchain.SupportedProviderTypes() {
		if providerType == supported {
			return true
		}
	}
	return false
}

// validateFileName verifies the provided output file name is non-empty and does not contain a directory.
func validateFileName(fileName string) error {
	if fileName == "" {
		return errors.New("output file names cannot be empty")
	}
	if filepath.Base(fileName) != fileName || fileName == "." || fileName == ".." {
		return errors.Errorf("output file name '%s' must not contain a directory", fileName)
	}
	return nil
}
