package toolchain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// verifyChecksums checks the downloaded data against the sha256 and keccak256 hashes published for the build. A
// build without any published hash is rejected.
func verifyChecksums(data []byte, build *Build) error {
	if build.Sha256 == "" && build.Keccak256 == "" {
		return errors.Wrapf(ErrChecksumMismatch, "no checksums were published for '%s'", build.Path)
	}

	if build.Sha256 != "" {
		sum := sha256.Sum256(data)
		if !checksumEqual(build.Sha256, sum[:]) {
			return errors.Wrapf(ErrChecksumMismatch, "sha256 of '%s' is 0x%x, expected %s", build.Path, sum, build.Sha256)
		}
	}

	if build.Keccak256 != "" {
		hasher := sha3.NewLegacyKeccak256()
		hasher.Write(data)
		sum := hasher.Sum(nil)
		if !checksumEqual(build.Keccak256, sum) {
			return errors.Wrapf(ErrChecksumMismatch, "keccak256 of '%s' is 0x%x, expected %s", build.Path, sum, build.Keccak256)
		}
	}
	return nil
}

// checksumEqual compares a published (optionally 0x-prefixed) hex hash against a computed digest.
func checksumEqual(expected string, actual []byte) bool {
	return strings.EqualFold(strings.TrimPrefix(expected, "0x"), hex.EncodeToString(actual))
}
