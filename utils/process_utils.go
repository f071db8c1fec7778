package utils

import (
	"bytes"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// RunCommandWithOutputAndError runs a given exec.Cmd and returns the stdout, stderr, and
// combined output as bytes, or an error if one occurred. If stdin is non-nil, it is provided to the command as its
// standard input.
func RunCommandWithOutputAndError(command *exec.Cmd, stdin []byte) ([]byte, []byte, []byte, error) {
	// Create our buffers to capture output and errors.
	var bStdout, bStderr, bCombined bytes.Buffer

	// Create a synchronized writer over bCombined to avoid data race.
	var combinedWriter io.Writer = &synchronizedWriter{writer: &bCombined}

	// Create multi writers to capture output into individual and combined buffers
	stdoutMulti := io.MultiWriter(&bStdout, combinedWriter)
	stderrMulti := io.MultiWriter(&bStderr, combinedWriter)

	// Set our writers
	command.Stdout = stdoutMulti
	command.Stderr = stderrMulti
	if stdin != nil {
		command.Stdin = bytes.NewReader(stdin)
	}

	// Execute the command
	err := command.Run()

	// Return our results
	return bStdout.Bytes(), bStderr.Bytes(), bCombined.Bytes(), err
}

// CommandError wraps an error returned by a command with the command line and its trimmed combined output, so
// failures from external tools are reported with the diagnostics they printed.
func CommandError(command *exec.Cmd, err error, combinedOutput []byte) error {
	output := strings.TrimSpace(string(combinedOutput))
	commandLine := strings.Join(command.Args, " ")
	if output == "" {
		return errors.Wrapf(err, "error while executing '%s'", commandLine)
	}
	return errors.Wrapf(err, "error while executing '%s':\n%s\n", commandLine, output)
}

// ResolveExecutablePath looks up the named executable (either a path or a name to search for in the PATH) and returns
// its absolute path.
func ResolveExecutablePath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.WithStack(err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return absPath, nil
}

// IsWindowsEnvironment returns a boolean indicating whether the current execution environment is a Windows platform.
func IsWindowsEnvironment() bool {
	return runtime.GOOS == "windows"
}

// synchronizedWriter wraps an io.Writer to avoid a data race when writing.
type synchronizedWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

func (s *synchronizedWriter) Write(p []byte) (n int, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.writer.Write(p)
}
