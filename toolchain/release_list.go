package toolchain

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver"
	"github.com/cenkalti/backoff/v4"
	"github.com/crytic/solcexport/utils"
	"github.com/pkg/errors"
)

// DefaultDownloadURL is the base URL of the official solc binary repository.
const DefaultDownloadURL = "https://binaries.soliditylang.org"

// maxRetries is the number of attempts made for each request to the binary repository.
const maxRetries = 3

// Build describes a single solc build listed in a platform's list.json.
type Build struct {
	// Path is the file name of the build, relative to the platform directory.
	Path string `json:"path"`
	// Version is the release version of the build (e.g. "0.8.19").
	Version string `json:"version"`
	// Prerelease is set for nightly builds.
	Prerelease string `json:"prerelease,omitempty"`
	// Build is the build metadata (e.g. "commit.7dd6d404").
	Build string `json:"build"`
	// LongVersion is the full version string (e.g. "0.8.19+commit.7dd6d404").
	LongVersion string `json:"longVersion"`
	// Keccak256 is the 0x-prefixed keccak256 hash of the build.
	Keccak256 string `json:"keccak256"`
	// Sha256 is the 0x-prefixed sha256 hash of the build.
	Sha256 string `json:"sha256"`
}

// ReleaseList describes a platform's list.json in the binary repository.
type ReleaseList struct {
	// Builds lists every build published for the platform.
	Builds []Build `json:"builds"`
	// Releases maps release versions to the path of their build.
	Releases map[string]string `json:"releases"`
	// LatestRelease is the most recent release version.
	LatestRelease string `json:"latestRelease"`
}

// Find returns the build of the given release version. Returns ErrVersionNotFound if it was not released for the
// platform.
func (l *ReleaseList) Find(version *semver.Version) (*Build, error) {
	path, ok := l.Releases[version.String()]
	if !ok {
		return nil, errors.Wrapf(ErrVersionNotFound, "solc %s", version)
	}
	for i := range l.Builds {
		if l.Builds[i].Path == path {
			return &l.Builds[i], nil
		}
	}
	return nil, errors.Wrapf(ErrVersionNotFound, "solc %s is listed as a release but its build '%s' is missing", version, path)
}

// Versions returns the released versions, sorted in ascending order. Unparseable entries are skipped.
func (l *ReleaseList) Versions() []*semver.Version {
	versions := make([]*semver.Version, 0, len(l.Releases))
	for release := range l.Releases {
		if v, err := semver.NewVersion(release); err == nil {
			versions = append(versions, v)
		}
	}
	return sortVersions(versions)
}

// repositoryClient fetches files from a solc binary repository.
type repositoryClient struct {
	baseURL    string
	platform   Platform
	httpClient *http.Client
	retryDelay time.Duration
}

// newRepositoryClient creates a repositoryClient for the given base URL and platform.
func newRepositoryClient(baseURL string, platform Platform) *repositoryClient {
	if baseURL == "" {
		baseURL = DefaultDownloadURL
	}
	return &repositoryClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		platform:   platform,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		retryDelay: 100 * time.Millisecond,
	}
}

// url returns the URL of a file in the platform directory.
func (c *repositoryClient) url(file string) string {
	return c.baseURL + "/" + string(c.platform) + "/" + file
}

// FetchReleaseList downloads and parses the platform's list.json.
func (c *repositoryClient) FetchReleaseList(ctx context.Context) (*ReleaseList, error) {
	data, err := c.fetch(ctx, c.url("list.json"))
	if err != nil {
		return nil, err
	}
	var list ReleaseList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, "could not parse solc release list")
	}
	return &list, nil
}

// FetchBuild downloads the given build and verifies it against its published checksums.
func (c *repositoryClient) FetchBuild(ctx context.Context, build *Build) ([]byte, error) {
	data, err := c.fetch(ctx, c.url(build.Path))
	if err != nil {
		return nil, err
	}
	if err := verifyChecksums(data, build); err != nil {
		return nil, err
	}
	return data, nil
}

// fetch performs a GET request, retrying transient failures with an exponential backoff.
func (c *repositoryClient) fetch(ctx context.Context, url string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryDelay
	policy.MaxElapsedTime = 0
	retryPolicy := backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries-1), ctx)

	return backoff.RetryWithData(func() ([]byte, error) {
		if utils.CheckContextDone(ctx) {
			return nil, backoff.Permanent(errors.WithStack(ctx.Err()))
		}
		data, retry, err := c.fetchOnce(ctx, url)
		if err != nil && !retry {
			return nil, backoff.Permanent(err)
		}
		return data, err
	}, retryPolicy)
}

// fetchOnce performs a single GET request. Returns whether a failure is worth retrying.
func (c *repositoryClient) fetchOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, errors.Wrapf(err, "could not download '%s'", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Server errors and throttling are transient, anything else is not
		retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retry, errors.Errorf("could not download '%s': %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ctx.Err() == nil, errors.Wrapf(err, "could not read '%s'", url)
	}
	return data, false, nil
}
