package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver"
	"github.com/crytic/solcexport/logging"
	"github.com/crytic/solcexport/logging/colors"
	"github.com/crytic/solcexport/utils"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// DefaultCacheDirectory is the directory solc binaries are cached in when none is configured.
const DefaultCacheDirectory = "~/.solcexport/solc"

// lockFileName is the name of the file locked while a cache directory is being modified.
const lockFileName = "LOCK"

// Repository is a Provider which downloads official static solc builds from the binary repository into a cache
// directory shared by every process on the machine.
type Repository struct {
	// cacheDirectory is the absolute path of the directory binaries and the index are stored in.
	cacheDirectory string

	// client fetches release lists and builds.
	client *repositoryClient

	// index records installed versions and the default version.
	index *installIndex

	// lock serializes modifications of the cache directory across processes.
	lock *flock.Flock

	// logger logs install progress.
	logger *logging.Logger
}

// NewRepository creates a Repository caching binaries in cacheDirectory (DefaultCacheDirectory if empty) and
// downloading them from downloadURL (DefaultDownloadURL if empty).
func NewRepository(cacheDirectory string, downloadURL string) (*Repository, error) {
	platform, err := CurrentPlatform()
	if err != nil {
		return nil, err
	}
	return newRepositoryForPlatform(cacheDirectory, downloadURL, platform)
}

// newRepositoryForPlatform creates a Repository which installs builds for the given platform.
func newRepositoryForPlatform(cacheDirectory string, downloadURL string, platform Platform) (*Repository, error) {
	if cacheDirectory == "" {
		cacheDirectory = DefaultCacheDirectory
	}
	cacheDirectory, err := utils.ExpandHomeDirectory(cacheDirectory)
	if err != nil {
		return nil, err
	}
	cacheDirectory, err = filepath.Abs(cacheDirectory)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := utils.MakeDirectory(cacheDirectory); err != nil {
		return nil, errors.Wrap(err, "could not create toolchain cache directory")
	}

	return &Repository{
		cacheDirectory: cacheDirectory,
		client:         newRepositoryClient(downloadURL, platform),
		index:          newInstallIndex(cacheDirectory),
		lock:           flock.New(filepath.Join(cacheDirectory, lockFileName)),
		logger:         logging.GlobalLogger.NewSubLogger(logging.SERVICE_KEY, logging.TOOLCHAIN_SERVICE),
	}, nil
}

// CacheDirectory returns the directory binaries are cached in.
func (r *Repository) CacheDirectory() string {
	return r.cacheDirectory
}

// acquireLock takes the cache lock, waiting until it is released by other processes or ctx is done. Returns a function
// which releases the lock.
func (r *Repository) acquireLock(ctx context.Context) (func(), error) {
	locked, err := r.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, errors.Wrap(err, "could not lock toolchain cache directory")
	}
	if !locked {
		return nil, errors.Errorf("could not lock toolchain cache directory '%s'", r.cacheDirectory)
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("Failed to unlock toolchain cache directory", err)
		}
	}, nil
}

// installedPath returns the absolute path of the installed binary described by record, or an empty string if the
// binary is missing from disk.
func (r *Repository) installedPath(record *installRecord) string {
	if record == nil {
		return ""
	}
	path := filepath.Join(r.cacheDirectory, record.Path)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return ""
	}
	return path
}

// Install downloads, verifies and caches the given solc version. Returns immediately if it is already installed.
func (r *Repository) Install(ctx context.Context, version *semver.Version) error {
	unlock, err := r.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	// Another process may have installed the version while we waited for the lock
	record, err := r.index.Get(version)
	if err != nil {
		return err
	}
	if r.installedPath(record) != "" {
		r.logger.Debug("solc ", version, " is already installed")
		return nil
	}

	r.logger.Info("Installing ", colors.Bold, "solc ", version, colors.Reset, " from ", r.client.baseURL)
	list, err := r.client.FetchReleaseList(ctx)
	if err != nil {
		return err
	}
	build, err := list.Find(version)
	if err != nil {
		return err
	}
	data, err := r.client.FetchBuild(ctx, build)
	if err != nil {
		return err
	}

	// Write the binary atomically so an interrupted install never leaves a truncated executable behind
	relativePath := filepath.Join(version.String(), binaryName(version.String()))
	if err := utils.WriteFileAtomic(filepath.Join(r.cacheDirectory, relativePath), data, 0755); err != nil {
		return errors.Wrap(err, "could not store solc binary")
	}

	err = r.index.Put(installRecord{
		Version:     version.String(),
		LongVersion: build.LongVersion,
		Path:        relativePath,
		Sha256:      build.Sha256,
		InstalledAt: time.Now(),
	})
	if err != nil {
		return err
	}
	r.logger.Info("Installed ", colors.GreenBold, "solc ", build.LongVersion, colors.Reset)
	return nil
}

// Use selects the given installed version as the default.
func (r *Repository) Use(version *semver.Version) error {
	if _, err := r.BinaryPath(version); err != nil {
		return err
	}
	return r.index.SetDefault(version)
}

// Active returns the default version.
func (r *Repository) Active() (*semver.Version, error) {
	version, err := r.index.Default()
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, errors.Wrap(ErrNotInstalled, "no default solc version has been selected")
	}
	return version, nil
}

// BinaryPath returns the path of the cached binary for the given version.
func (r *Repository) BinaryPath(version *semver.Version) (string, error) {
	record, err := r.index.Get(version)
	if err != nil {
		return "", err
	}
	path := r.installedPath(record)
	if path == "" {
		return "", errors.Wrapf(ErrNotInstalled, "solc %s", version)
	}
	return path, nil
}

// Installed returns the versions with a cached binary. Index records whose binary was removed from disk are dropped,
// along with the default version if it was one of them.
func (r *Repository) Installed() ([]*semver.Version, error) {
	records, err := r.index.List()
	if err != nil {
		return nil, err
	}
	versions := make([]*semver.Version, 0, len(records))
	for _, record := range records {
		v, err := semver.NewVersion(record.Version)
		if err != nil {
			continue
		}
		if r.installedPath(&record) == "" {
			r.logger.Debug("Dropping solc ", v, " from the toolchain index because its binary is missing")
			if err := r.index.Delete(v); err != nil {
				return nil, err
			}
			continue
		}
		versions = append(versions, v)
	}
	return sortVersions(versions), nil
}

// Available returns the versions released for this platform.
func (r *Repository) Available(ctx context.Context) ([]*semver.Version, error) {
	list, err := r.client.FetchReleaseList(ctx)
	if err != nil {
		return nil, err
	}
	return list.Versions(), nil
}
