package main

import (
	"fmt"
	"os"

	"github.com/crytic/solcexport/cmd"
	"github.com/crytic/solcexport/cmd/exitcodes"
	"github.com/pkg/errors"
)

func main() {
	// Run our root CLI command, which contains all underlying command logic and will handle parsing/invocation.
	err := cmd.Execute()

	// Errors with an exit code were already logged by the command that returned them
	var errWithExitCode *exitcodes.ErrorWithExitCode
	handled := errors.As(err, &errWithExitCode)

	// Obtain the actual error and exit code from the error, if any.
	var exitCode int
	err, exitCode = exitcodes.GetInnerErrorAndExitCode(err)

	// If we have an error, print it.
	if err != nil && !handled {
		fmt.Fprintln(os.Stderr, err)
	}

	// If we have a non-success exit code, exit with it.
	if exitCode != exitcodes.ExitCodeSuccess {
		os.Exit(exitCode)
	}
}
