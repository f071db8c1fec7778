package compilation

import (
	"context"
	"encoding/json"

	"github.com/crytic/solcexport/compilation/platforms"
	"github.com/crytic/solcexport/compilation/types"
	"github.com/pkg/errors"
)

// CompilationConfig describes the configuration options used to compile a smart contract
// target.
type CompilationConfig struct {
	// Platform references an identifier indicating which compilation platform to use.
	// PlatformConfig is a structure dependent on the defined Platform.
	Platform string `json:"platform"`

	// PlatformConfig describes the Platform-specific configuration needed to compile.
	PlatformConfig *json.RawMessage `json:"platformConfig"`

	// ContractName optionally names the contract to export when the compilation produces more than one deployable
	// contract. It may be a bare name or a "<sourcePath>:<name>" qualified name.
	ContractName string `json:"contractName,omitempty"`
}

// NewCompilationConfig returns a CompilationConfig with default values for a given platform identifier.
// If an error occurs, it is returned instead.
func NewCompilationConfig(platform string) (*CompilationConfig, error) {
	// Verify the platform is valid
	if !IsSupportedCompilationPlatform(platform) {
		return nil, errors.Errorf("could not get default compilation configs: platform '%s' is unsupported", platform)
	}

	// Switch on our platform to deserialize our platform compilation configs
	platformConfig := GetDefaultPlatformConfig(platform)
	return NewCompilationConfigFromPlatformConfig(platformConfig)
}

// NewCompilationConfigFromPlatformConfig takes a platforms.PlatformConfig and wraps it in a generic
// CompilationConfig. This allows many platform config types to be serialized/deserialized to their appropriate
// types and supported generally.
func NewCompilationConfigFromPlatformConfig(platformConfig platforms.PlatformConfig) (*CompilationConfig, error) {
	compilationConfig := &CompilationConfig{}
	if err := compilationConfig.SetPlatformConfig(platformConfig); err != nil {
		return nil, err
	}
	return compilationConfig, nil
}

// GetPlatformConfig deserializes the inner platforms.PlatformConfig into the concrete type registered for Platform.
func (c *CompilationConfig) GetPlatformConfig() (platforms.PlatformConfig, error) {
	// Verify the platform is valid
	if !IsSupportedCompilationPlatform(c.Platform) {
		return nil, errors.Errorf("platform '%s' is unsupported (supported: %v)", c.Platform, GetSupportedCompilationPlatforms())
	}

	// Allocate a platform config given our platform string in our compilation config
	// It is necessary to do so as json.Unmarshal needs a concrete structure to populate
	platformConfig := GetDefaultPlatformConfig(c.Platform)
	if c.PlatformConfig != nil {
		if err := json.Unmarshal(*c.PlatformConfig, platformConfig); err != nil {
			return nil, errors.Wrapf(err, "could not parse '%s' platform config", c.Platform)
		}
	}
	return platformConfig, nil
}

// SetPlatformConfig serializes the provided platforms.PlatformConfig into this config and updates Platform.
func (c *CompilationConfig) SetPlatformConfig(platformConfig platforms.PlatformConfig) error {
	// Marshal our config to a raw message
	b, err := json.Marshal(platformConfig)
	if err != nil {
		return errors.WithStack(err)
	}
	platformConfigMsg := json.RawMessage(b)

	c.Platform = platformConfig.Platform()
	c.PlatformConfig = &platformConfigMsg
	return nil
}

// SetTarget updates the compilation target of the inner platform config.
func (c *CompilationConfig) SetTarget(target string) error {
	platformConfig, err := c.GetPlatformConfig()
	if err != nil {
		return err
	}
	platformConfig.SetTarget(target)
	return c.SetPlatformConfig(platformConfig)
}

// Compile takes a generic CompilationConfig and deserializes the inner platforms.PlatformConfig, which
// is then used to compile the underlying targets with the solc executable at solcPath. If the platform config has no
// target or source, defaultSource is compiled. Returns a list of compilations returned by the platform provider or
// an error. Command-line output may also be returned in either case.
func (c *CompilationConfig) Compile(ctx context.Context, solcPath string, defaultSource string) ([]types.Compilation, string, error) {
	platformConfig, err := c.GetPlatformConfig()
	if err != nil {
		return nil, "", err
	}
	if platformConfig.GetTarget() == "" && platformConfig.GetSource() == "" {
		platformConfig.SetSource(defaultSource)
	}

	// Compile using our platform configs
	return platformConfig.Compile(ctx, solcPath)
}
