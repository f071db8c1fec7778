package toolchain

import "github.com/pkg/errors"

var (
	// ErrUnsupportedPlatform is returned when no solc builds are published for the host operating system and
	// architecture.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrVersionNotFound is returned when a requested solc version is not available from a provider.
	ErrVersionNotFound = errors.New("solc version not found")

	// ErrChecksumMismatch is returned when a downloaded solc binary does not match its published checksums.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrNotInstalled is returned when an operation requires a solc version which has not been installed, or when no
	// version has been selected.
	ErrNotInstalled = errors.New("solc version not installed")
)
