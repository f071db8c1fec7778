package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/crytic/solcexport/utils"
	"github.com/stretchr/testify/require"
)

// CopyToTestDirectory copies a file from the provided filePath (relative to the working directory) to an ephemeral
// directory used for unit tests. Returns the absolute path of the copy.
func CopyToTestDirectory(t *testing.T, filePath string) string {
	// Construct our file path relative to our working directory
	cwd, err := os.Getwd()
	require.NoError(t, err)
	sourcePath := filepath.Join(cwd, filePath)

	// Verify the file path exists
	sourcePathInfo, err := os.Stat(sourcePath)
	require.NoError(t, err)
	require.False(t, sourcePathInfo.IsDir())

	// Copy our source to an isolated test directory
	targetPath := filepath.Join(t.TempDir(), "solcexportTest", sourcePathInfo.Name())
	require.NoError(t, utils.CopyFile(sourcePath, targetPath))

	// Get a normalized absolute path
	targetPath, err = filepath.Abs(targetPath)
	require.NoError(t, err)
	return targetPath
}

// ExecuteInDirectory executes the given method in a given test directory. It changes the current working directory
// to the directory specified, runs the provided method, then restores the working directory. This wraps tests so
// any file artifacts generated do not end up in the codebase directories.
func ExecuteInDirectory(t *testing.T, testPath string, method func()) {
	// Backup our old working directory
	cwd, err := os.Getwd()
	require.NoError(t, err)

	// Check if the test path refers to a file or directory, as we'll want to change our working directory to a
	// directory path.
	testPathInfo, err := os.Stat(testPath)
	require.NoError(t, err)

	// Ensure we obtained a directory from our path
	testDirectory := testPath
	if !testPathInfo.IsDir() {
		testDirectory = filepath.Dir(testPath)
	}

	// Change our working directory to the test directory
	err = os.Chdir(testDirectory)
	require.NoError(t, err)

	// Restore our working directory (we must leave the test directory or else clean up will fail post testing)
	defer func() {
		require.NoError(t, os.Chdir(cwd))
	}()

	// Execute the given method
	method()
}

// WriteExecutableScript writes a POSIX shell script with the provided body to the given directory and marks it
// executable. Tests that rely on it are skipped on Windows. Returns the path to the script.
func WriteExecutableScript(t *testing.T, directory string, name string, body string) string {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures are not supported on windows")
	}
	path := filepath.Join(directory, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}
