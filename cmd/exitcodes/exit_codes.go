package exitcodes

const (
	// ================================
	// Platform-universal exit codes
	// ================================

	// ExitCodeSuccess indicates no errors or failures had occurred.
	ExitCodeSuccess = 0

	// ExitCodeGeneralError indicates some type of general error occurred.
	ExitCodeGeneralError = 1

	// ================================
	// Application-specific exit codes
	// ================================
	// Note: Despite not being standardized, exit codes 2-5 are often used for common use cases, so we avoid them.

	// ExitCodeToolchainError indicates that the compiler could not be installed or selected.
	ExitCodeToolchainError = 6

	// ExitCodeCompilationError indicates that the source failed to compile, or that no single contract could be
	// selected from the compilation.
	ExitCodeCompilationError = 7

	// ExitCodeExportError indicates that the artifacts could not be rendered or written.
	ExitCodeExportError = 8
)
