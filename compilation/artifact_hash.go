package compilation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/crytic/solcexport/compilation/types"
	"github.com/crytic/solcexport/logging"
	"github.com/crytic/solcexport/logging/colors"
	"github.com/crytic/solcexport/utils"
	"github.com/pkg/errors"
)

// ArtifactHashCacheFileName is the name of the file used to store the artifact hash.
const ArtifactHashCacheFileName = ".solcexport-artifact-hash"

// ArtifactHashCache stores the hash of compilation artifacts along with metadata.
type ArtifactHashCache struct {
	// Hash is the SHA-256 hash of the compiled artifacts.
	Hash string `json:"hash"`
	// CompilerVersion is the solc version which produced the artifacts.
	CompilerVersion string `json:"compilerVersion,omitempty"`
	// Timestamp is when the hash was computed.
	Timestamp time.Time `json:"timestamp"`
}

// ComputeArtifactHash computes a SHA-256 hash of the ABI and bytecode of every contract in the provided compilations.
// Contracts are hashed in order of their qualified names, so the hash does not depend on map ordering.
func ComputeArtifactHash(compilations []types.Compilation) string {
	hasher := sha256.New()

	// ListContracts returns contracts ordered by source path and name
	for _, ref := range types.ListContracts(compilations) {
		hasher.Write([]byte(ref.QualifiedName()))
		hasher.Write(ref.Contract.RawAbi)
		hasher.Write([]byte(ref.Contract.InitBytecode))
		hasher.Write([]byte(ref.Contract.RuntimeBytecode))
	}

	return hex.EncodeToString(hasher.Sum(nil))
}

// LoadArtifactHashCache loads the artifact hash cache from the specified directory.
// Returns nil if the cache file does not exist or cannot be parsed.
func LoadArtifactHashCache(directory string) *ArtifactHashCache {
	cachePath := filepath.Join(directory, ArtifactHashCacheFileName)
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil
	}

	var cache ArtifactHashCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil
	}

	return &cache
}

// SaveArtifactHashCache saves the artifact hash cache to the specified directory, creating it if needed.
func SaveArtifactHashCache(directory string, cache *ArtifactHashCache) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal artifact hash cache")
	}

	cachePath := filepath.Join(directory, ArtifactHashCacheFileName)
	if err := utils.WriteFileAtomic(cachePath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write artifact hash cache")
	}
	return nil
}

// NotifyArtifactHashStatus compares the current artifact hash with the hash cached in cacheDirectory, logs whether
// the artifacts changed since the previous run, and updates the cache. Returns true if the artifacts are new or
// changed.
func NotifyArtifactHashStatus(
	compilations []types.Compilation,
	compilerVersion string,
	cacheDirectory string,
	logger *logging.Logger,
) bool {
	if len(compilations) == 0 {
		return false
	}

	// Compute the current hash
	currentHash := ComputeArtifactHash(compilations)

	// Load the cached hash
	cachedHash := LoadArtifactHashCache(cacheDirectory)

	// Compare and log the appropriate message
	changed := cachedHash == nil || cachedHash.Hash != currentHash
	if changed {
		logger.Info(
			colors.Bold, "artifacts: ", colors.Reset,
			"exported a ", colors.GreenBold, "new", colors.Reset, " set of build artifacts",
		)
	} else {
		// Same artifacts as before
		timeSince := time.Since(cachedHash.Timestamp)
		logger.Info(
			colors.Bold, "artifacts: ", colors.Reset,
			"the build artifacts are the ", colors.YellowBold, "same", colors.Reset,
			" as the previous export (last run: ", formatDuration(timeSince), " ago)",
		)
	}

	// Surface compiler changes between runs
	if cachedHash != nil && cachedHash.CompilerVersion != "" && cachedHash.CompilerVersion != compilerVersion {
		logger.Warn("artifacts were previously produced by solc ", cachedHash.CompilerVersion, ", now by solc ", compilerVersion)
	}

	// Update the cache with the current hash
	newCache := &ArtifactHashCache{
		Hash:            currentHash,
		CompilerVersion: compilerVersion,
		Timestamp:       time.Now(),
	}
	if err := SaveArtifactHashCache(cacheDirectory, newCache); err != nil {
		logger.Warn("Failed to save artifact hash cache", err)
	}
	return changed
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
