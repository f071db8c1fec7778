package toolchain

import (
	"context"
	"sort"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

// ProviderType identifies a Provider implementation.
type ProviderType string

const (
	// ProviderTypeBinaries downloads official static solc builds into a local cache.
	ProviderTypeBinaries ProviderType = "binaries"
	// ProviderTypeSolcSelect drives an existing solc-select installation.
	ProviderTypeSolcSelect ProviderType = "solc-select"
	// ProviderTypeSystem uses the solc executable found on the PATH.
	ProviderTypeSystem ProviderType = "system"
)

// SupportedProviderTypes returns the identifiers of every Provider implementation.
func SupportedProviderTypes() []ProviderType {
	return []ProviderType{ProviderTypeBinaries, ProviderTypeSolcSelect, ProviderTypeSystem}
}

// Provider installs and selects solc compiler versions.
type Provider interface {
	// Install makes the given version available locally. Installing a version which is already installed is a no-op.
	Install(ctx context.Context, version *semver.Version) error

	// Use selects the given version as the default. The version must be installed.
	Use(version *semver.Version) error

	// Active returns the version currently selected as the default. Returns ErrNotInstalled if none is selected.
	Active() (*semver.Version, error)

	// BinaryPath returns the path to the solc executable for the given version. Returns ErrNotInstalled if the
	// version is not installed.
	BinaryPath(version *semver.Version) (string, error)

	// Installed returns the locally installed versions, sorted in ascending order.
	Installed() ([]*semver.Version, error)

	// Available returns the versions this provider can install, sorted in ascending order.
	Available(ctx context.Context) ([]*semver.Version, error)
}

// ProviderOptions describes the options used to construct a Provider through NewProvider.
type ProviderOptions struct {
	// CacheDirectory is the directory binaries and the install index are stored in (binaries provider only).
	CacheDirectory string

	// DownloadURL is the base URL of the solc binary repository (binaries provider only).
	DownloadURL string
}

// NewProvider creates the Provider identified by providerType.
func NewProvider(providerType ProviderType, options ProviderOptions) (Provider, error) {
	switch providerType {
	case ProviderTypeBinaries, "":
		return NewRepository(options.CacheDirectory, options.DownloadURL)
	case ProviderTypeSolcSelect:
		return NewSolcSelect(""), nil
	case ProviderTypeSystem:
		return NewSystem(""), nil
	}
	return nil, errors.Errorf("toolchain provider '%s' is unsupported (supported: %v)", providerType, SupportedProviderTypes())
}

// EnsureVersion installs the given version if required and selects it as the default, returning the path to its
// solc executable. If install is false, the version must already be installed.
func EnsureVersion(ctx context.Context, provider Provider, version *semver.Version, install bool) (string, error) {
	if install {
		if err := provider.Install(ctx, version); err != nil {
			return "", err
		}
	}
	if err := provider.Use(version); err != nil {
		return "", err
	}
	return provider.BinaryPath(version)
}

// sortVersions sorts the provided versions in ascending order and removes duplicates.
func sortVersions(versions []*semver.Version) []*semver.Version {
	sort.Sort(semver.Collection(versions))
	unique := make([]*semver.Version, 0, len(versions))
	for _, v := range versions {
		if len(unique) == 0 || !unique[len(unique)-1].Equal(v) {
			unique = append(unique, v)
		}
	}
	return unique
}
