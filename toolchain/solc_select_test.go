package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver"
	"github.com/crytic/solcexport/utils/testutils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeSolcSelect writes a script which mimics the solc-select CLI and records the commands it was given.
func writeFakeSolcSelect(t *testing.T, directory string) string {
	body := `echo "$@" >> "` + filepath.Join(directory, "commands.txt") + `"
case "$1" in
  versions)
    echo "0.8.19 (current, set by /root/.solc-select/global-version)"
    echo "0.8.17"
    ;;
  install)
    if [ -z "$2" ]; then
      echo "Available versions to install:"
      echo "0.8.17"
      echo "0.8.19"
      echo "0.8.20"
    else
      echo "Installing solc '$2'..."
    fi
    ;;
  use)
    echo "Switched global version to $2"
    ;;
esac
`
	return testutils.WriteExecutableScript(t, directory, "solc-select", body)
}

// TestSolcSelect ensures solc-select output is parsed and commands are issued.
func TestSolcSelect(t *testing.T) {
	directory := t.TempDir()
	provider := NewSolcSelect(writeFakeSolcSelect(t, directory))
	provider.ArtifactsDirectory = filepath.Join(directory, "artifacts")
	version := semver.MustParse("0.8.19")

	installed, err := provider.Installed()
	require.NoError(t, err)
	require.Len(t, installed, 2)
	assert.Equal(t, "0.8.17", installed[0].String())
	assert.Equal(t, "0.8.19", installed[1].String())

	active, err := provider.Active()
	require.NoError(t, err)
	assert.True(t, active.Equal(version))

	available, err := provider.Available(context.Background())
	require.NoError(t, err)
	assert.Len(t, available, 3)

	// The binary is resolved from the artifacts directory
	require.NoError(t, provider.Install(context.Background(), version))
	_, err = provider.BinaryPath(version)
	assert.True(t, errors.Is(err, ErrNotInstalled))
	assert.True(t, errors.Is(provider.Use(version), ErrNotInstalled))

	binaryPath := filepath.Join(provider.ArtifactsDirectory, "solc-0.8.19", "solc-0.8.19")
	require.NoError(t, os.MkdirAll(filepath.Dir(binaryPath), 0755))
	require.NoError(t, os.WriteFile(binaryPath, nil, 0755))
	path, err := provider.BinaryPath(version)
	require.NoError(t, err)
	assert.Equal(t, binaryPath, path)
	require.NoError(t, provider.Use(version))

	commands, err := os.ReadFile(filepath.Join(directory, "commands.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(commands), "install 0.8.19\n")
	assert.Contains(t, string(commands), "use 0.8.19\n")
}

// TestSolcSelectMissingExecutable ensures a missing solc-select is reported.
func TestSolcSelectMissingExecutable(t *testing.T) {
	provider := NewSolcSelect(filepath.Join(t.TempDir(), "solc-select"))
	assert.Error(t, provider.Install(context.Background(), semver.MustParse("0.8.19")))
}

// TestSystem ensures the system provider only accepts the version of its executable.
func TestSystem(t *testing.T) {
	directory := t.TempDir()
	solcPath := testutils.WriteExecutableScript(t, directory, "solc", `echo "solc, the solidity compiler commandline interface"
echo "Version: 0.8.19+commit.7dd6d404.Linux.g++"
`)
	provider := NewSystem(solcPath)

	version := semver.MustParse("0.8.19")
	require.NoError(t, provider.Install(context.Background(), version))
	require.NoError(t, provider.Use(version))
	path, err := provider.BinaryPath(version)
	require.NoError(t, err)
	assert.Equal(t, solcPath, path)

	active, err := provider.Active()
	require.NoError(t, err)
	assert.True(t, active.Equal(version))

	// Other versions cannot be provided
	other := semver.MustParse("0.8.20")
	assert.True(t, errors.Is(provider.Install(context.Background(), other), ErrVersionNotFound))
	assert.True(t, errors.Is(provider.Use(other), ErrVersionNotFound))

	// A missing executable is reported as not installed
	missing := NewSystem(filepath.Join(directory, "missing"))
	_, err = missing.Active()
	assert.True(t, errors.Is(err, ErrNotInstalled))
}
