package toolchain

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// indexFileName is the name of the install index database within the cache directory.
const indexFileName = "index.db"

var (
	// installedBucket maps version strings to their serialized installRecord.
	installedBucket = []byte("installed")
	// settingsBucket holds toolchain-wide settings such as the default version.
	settingsBucket = []byte("settings")
	// defaultVersionKey is the settingsBucket key storing the selected default version.
	defaultVersionKey = []byte("default")
)

// installRecord describes an installed solc binary.
type installRecord struct {
	// Version is the release version (e.g. "0.8.19").
	Version string `json:"version"`
	// LongVersion is the full version string including the build commit.
	LongVersion string `json:"longVersion"`
	// Path is the path of the binary, relative to the cache directory.
	Path string `json:"path"`
	// Sha256 is the verified sha256 hash of the binary.
	Sha256 string `json:"sha256"`
	// InstalledAt records when the binary was installed.
	InstalledAt time.Time `json:"installedAt"`
}

// installIndex records installed solc versions and the selected default in a bbolt database. The database is only held
// open for the duration of each operation, so other processes sharing the cache are blocked for as little time as
// possible.
type installIndex struct {
	path string
}

// newInstallIndex returns an installIndex stored in the given cache directory.
func newInstallIndex(cacheDirectory string) *installIndex {
	return &installIndex{path: filepath.Join(cacheDirectory, indexFileName)}
}

// withDB opens the database, creates the buckets if needed and runs fn in a transaction.
func (i *installIndex) withDB(writable bool, fn func(tx *bbolt.Tx) error) error {
	db, err := bbolt.Open(i.path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return errors.Wrapf(err, "could not open toolchain index '%s'", i.path)
	}
	defer db.Close()

	// create default buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{installedBucket, settingsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if writable {
		return db.Update(fn)
	}
	return db.View(fn)
}

// Get returns the install record for the given version, or nil if it is not installed.
func (i *installIndex) Get(version *semver.Version) (*installRecord, error) {
	var record *installRecord
	err := i.withDB(false, func(tx *bbolt.Tx) error {
		data := tx.Bucket(installedBucket).Get([]byte(version.String()))
		if data == nil {
			return nil
		}
		record = &installRecord{}
		return json.Unmarshal(data, record)
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not read toolchain index")
	}
	return record, nil
}

// Put records an installed version.
func (i *installIndex) Put(record installRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.WithStack(err)
	}
	err = i.withDB(true, func(tx *bbolt.Tx) error {
		return tx.Bucket(installedBucket).Put([]byte(record.Version), data)
	})
	return errors.Wrap(err, "could not update toolchain index")
}

// Delete removes the record of an installed version, clearing the default if it referenced the version.
func (i *installIndex) Delete(version *semver.Version) error {
	err := i.withDB(true, func(tx *bbolt.Tx) error {
		key := []byte(version.String())
		if err := tx.Bucket(installedBucket).Delete(key); err != nil {
			return err
		}
		settings := tx.Bucket(settingsBucket)
		if string(settings.Get(defaultVersionKey)) == string(key) {
			return settings.Delete(defaultVersionKey)
		}
		return nil
	})
	return errors.Wrap(err, "could not update toolchain index")
}

// List returns the records of every installed version.
func (i *installIndex) List() ([]installRecord, error) {
	records := make([]installRecord, 0)
	err := i.withDB(false, func(tx *bbolt.Tx) error {
		return tx.Bucket(installedBucket).ForEach(func(_, data []byte) error {
			var record installRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not read toolchain index")
	}
	return records, nil
}

// SetDefault records the given version as the default.
func (i *installIndex) SetDefault(version *semver.Version) error {
	err := i.withDB(true, func(tx *bbolt.Tx) error {
		return tx.Bucket(settingsBucket).Put(defaultVersionKey, []byte(version.String()))
	})
	return errors.Wrap(err, "could not update toolchain index")
}

// Default returns the default version, or nil if none was selected.
func (i *installIndex) Default() (*semver.Version, error) {
	var versionStr string
	err := i.withDB(false, func(tx *bbolt.Tx) error {
		versionStr = string(tx.Bucket(settingsBucket).Get(defaultVersionKey))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not read toolchain index")
	}
	if versionStr == "" {
		return nil, nil
	}
	version, err := semver.NewVersion(versionStr)
	if err != nil {
		return nil, errors.Wrap(err, "toolchain index contains an invalid default version")
	}
	return version, nil
}
