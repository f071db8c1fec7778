package toolchain

import (
	"context"

	"github.com/Masterminds/semver"
	"github.com/crytic/solcexport/compilation/platforms"
	"github.com/crytic/solcexport/utils"
	"github.com/pkg/errors"
)

// System is a Provider which uses an existing solc executable (by default, the one on the PATH). It cannot install
// or switch versions, so operations only succeed for the version of that executable.
type System struct {
	// Executable is the solc executable name or path.
	Executable string
}

// NewSystem creates a System provider for the given executable ("solc" if empty).
func NewSystem(executable string) *System {
	if executable == "" {
		executable = "solc"
	}
	return &System{Executable: executable}
}

// version resolves the executable and reports its version.
func (s *System) version(ctx context.Context) (string, *semver.Version, error) {
	path, err := utils.ResolveExecutablePath(s.Executable)
	if err != nil {
		return "", nil, errors.Wrapf(ErrNotInstalled, "'%s' could not be found: %v", s.Executable, err)
	}
	version, err := platforms.GetSolcVersion(ctx, path)
	if err != nil {
		return "", nil, err
	}
	return path, version, nil
}

// checkVersion returns the executable path if its version matches the requested one.
func (s *System) checkVersion(ctx context.Context, requested *semver.Version) (string, error) {
	path, version, err := s.version(ctx)
	if err != nil {
		return "", err
	}
	if !version.Equal(requested) {
		return "", errors.Wrapf(ErrVersionNotFound, "'%s' is solc %s, not %s", path, version, requested)
	}
	return path, nil
}

// Install verifies the executable is the requested version.
func (s *System) Install(ctx context.Context, version *semver.Version) error {
	_, err := s.checkVersion(ctx, version)
	return err
}

// Use verifies the executable is the requested version.
func (s *System) Use(version *semver.Version) error {
	_, err := s.checkVersion(context.Background(), version)
	return err
}

// Active returns the version of the executable.
func (s *System) Active() (*semver.Version, error) {
	_, version, err := s.version(context.Background())
	return version, err
}

// BinaryPath returns the path of the executable if it is the requested version.
func (s *System) BinaryPath(version *semver.Version) (string, error) {
	return s.checkVersion(context.Background(), version)
}

// Installed returns the version of the executable.
func (s *System) Installed() ([]*semver.Version, error) {
	version, err := s.Active()
	if err != nil {
		return nil, err
	}
	return []*semver.Version{version}, nil
}

// Available returns the version of the executable, the only one this provider can offer.
func (s *System) Available(ctx context.Context) ([]*semver.Version, error) {
	_, version, err := s.version(ctx)
	if err != nil {
		return nil, err
	}
	return []*semver.Version{version}, nil
}
