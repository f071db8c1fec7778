package toolchain

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/crytic/solcexport/utils"
	"github.com/pkg/errors"
)

// versionPattern matches release versions in command output.
var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// SolcSelect is a Provider which drives an existing solc-select installation.
type SolcSelect struct {
	// Executable is the solc-select executable to run.
	Executable string

	// ArtifactsDirectory is the directory solc-select stores binaries in. Defaults to ~/.solc-select/artifacts.
	ArtifactsDirectory string
}

// NewSolcSelect creates a SolcSelect provider running the given executable ("solc-select" if empty).
func NewSolcSelect(executable string) *SolcSelect {
	if executable == "" {
		executable = "solc-select"
	}
	return &SolcSelect{
		Executable:         executable,
		ArtifactsDirectory: filepath.Join("~", ".solc-select", "artifacts"),
	}
}

// run executes solc-select with the given arguments and returns its standard output.
func (s *SolcSelect) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, s.Executable, args...)
	stdout, _, combined, err := utils.RunCommandWithOutputAndError(cmd, nil)
	if err != nil {
		return "", utils.CommandError(cmd, err, combined)
	}
	return string(stdout), nil
}

// Install runs "solc-select install <version>", which does nothing if the version is already installed.
func (s *SolcSelect) Install(ctx context.Context, version *semver.Version) error {
	_, err := s.run(ctx, "install", version.String())
	return err
}

// Use runs "solc-select use <version>".
func (s *SolcSelect) Use(version *semver.Version) error {
	if _, err := s.BinaryPath(version); err != nil {
		return err
	}
	_, err := s.run(context.Background(), "use", version.String())
	return err
}

// Active parses the current version out of "solc-select versions".
func (s *SolcSelect) Active() (*semver.Version, error) {
	output, err := s.run(context.Background(), "versions")
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "current") {
			if versionStr := versionPattern.FindString(line); versionStr != "" {
				return semver.NewVersion(versionStr)
			}
		}
	}
	return nil, errors.Wrap(ErrNotInstalled, "solc-select has no current solc version")
}

// BinaryPath returns the path of the binary solc-select installed for the given version.
func (s *SolcSelect) BinaryPath(version *semver.Version) (string, error) {
	artifactsDirectory, err := utils.ExpandHomeDirectory(s.ArtifactsDirectory)
	if err != nil {
		return "", err
	}
	name := "solc-" + version.String()
	path := filepath.Join(artifactsDirectory, name, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", errors.Wrapf(ErrNotInstalled, "solc %s was not installed by solc-select", version)
	}
	return path, nil
}

// Installed parses the installed versions out of "solc-select versions".
func (s *SolcSelect) Installed() ([]*semver.Version, error) {
	output, err := s.run(context.Background(), "versions")
	if err != nil {
		return nil, err
	}
	return parseVersions(output), nil
}

// Available parses the installable versions out of "solc-select install", which lists them when given no version.
func (s *SolcSelect) Available(ctx context.Context) ([]*semver.Version, error) {
	output, err := s.run(ctx, "install")
	if err != nil {
		return nil, err
	}
	return parseVersions(output), nil
}

// parseVersions returns every version found at the start of a line of the provided output.
func parseVersions(output string) []*semver.Version {
	versions := make([]*semver.Version, 0)
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || versionPattern.FindString(fields[0]) != fields[0] {
			continue
		}
		if v, err := semver.NewVersion(fields[0]); err == nil {
			versions = append(versions, v)
		}
	}
	return sortVersions(versions)
}
