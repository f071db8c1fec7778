package toolchain

import (
	"runtime"

	"github.com/crytic/solcexport/utils"
	"github.com/pkg/errors"
)

// Platform identifies a directory of static solc builds in the binary repository.
type Platform string

const (
	// PlatformLinuxAmd64 contains static builds for 64-bit linux.
	PlatformLinuxAmd64 Platform = "linux-amd64"
	// PlatformMacOSAmd64 contains universal builds for macOS. Newer releases run natively on arm64.
	PlatformMacOSAmd64 Platform = "macosx-amd64"
	// PlatformWindowsAmd64 contains builds for 64-bit windows.
	PlatformWindowsAmd64 Platform = "windows-amd64"
)

// CurrentPlatform returns the Platform for the host this process is running on.
func CurrentPlatform() (Platform, error) {
	return platformFor(runtime.GOOS, runtime.GOARCH)
}

// platformFor returns the Platform for the provided operating system and architecture.
func platformFor(goos string, goarch string) (Platform, error) {
	switch {
	case goos == "linux" && goarch == "amd64":
		return PlatformLinuxAmd64, nil
	case goos == "darwin" && (goarch == "amd64" || goarch == "arm64"):
		return PlatformMacOSAmd64, nil
	case goos == "windows" && goarch == "amd64":
		return PlatformWindowsAmd64, nil
	}
	return "", errors.Wrapf(ErrUnsupportedPlatform, "%s/%s", goos, goarch)
}

// binaryName returns the file name a solc binary of the given version is stored under.
func binaryName(version string) string {
	if utils.IsWindowsEnvironment() {
		return "solc-" + version + ".exe"
	}
	return "solc-" + version
}
