package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriteFileAtomic ensures files are created, overwritten, and that no temporary files are left behind.
func TestWriteFileAtomic(t *testing.T) {
	directory := filepath.Join(t.TempDir(), "nested", "out")
	target := filepath.Join(directory, "erc20-abi.json")

	// The parent directories do not exist yet and should be created
	require.NoError(t, WriteFileAtomic(target, []byte("first"), 0644))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	// Writing again overwrites the previous contents
	require.NoError(t, WriteFileAtomic(target, []byte("second"), 0644))
	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// Only the target should remain in the directory
	entries, err := os.ReadDir(directory)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestWriteFileAtomicTargetIsDirectory ensures a failed rename does not leave temporary files behind.
func TestWriteFileAtomicTargetIsDirectory(t *testing.T) {
	directory := t.TempDir()
	target := filepath.Join(directory, "occupied")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0755))

	err := WriteFileAtomic(target, []byte("data"), 0644)
	assert.Error(t, err)

	entries, err := os.ReadDir(directory)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestMakeDirectoryOverFile ensures MakeDirectory refuses to treat a regular file as a directory.
func TestMakeDirectoryOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	assert.Error(t, MakeDirectory(path))
}

// TestExpandHomeDirectory ensures only a leading tilde is expanded.
func TestExpandHomeDirectory(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandHomeDirectory("~/.solcexport")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".solcexport"), expanded)

	unchanged, err := ExpandHomeDirectory("/opt/~solc")
	require.NoError(t, err)
	assert.Equal(t, "/opt/~solc", unchanged)
}

// TestGetFileNameWithoutExtension ensures directories and extensions are stripped.
func TestGetFileNameWithoutExtension(t *testing.T) {
	assert.Equal(t, "erc20", GetFileNameWithoutExtension(filepath.Join("contracts", "erc20.sol")))
	assert.Equal(t, filepath.Join("contracts", "erc20"), GetFilePathWithoutExtension(filepath.Join("contracts", "erc20.sol")))
}

// TestWriteFilesAtomic ensures a group of files is created and then replaced, leaving no staged or backup files.
func TestWriteFilesAtomic(t *testing.T) {
	directory := filepath.Join(t.TempDir(), "out")
	files := []PendingFile{
		{Path: filepath.Join(directory, "erc20-abi.json"), Data: []byte("[]")},
		{Path: filepath.Join(directory, "erc20-bytecode.json"), Data: []byte("{}")},
	}
	require.NoError(t, WriteFilesAtomic(files, 0644))

	files[0].Data = []byte("[1]")
	files[1].Data = []byte("{\"a\":1}")
	require.NoError(t, WriteFilesAtomic(files, 0644))

	for _, file := range files {
		data, err := os.ReadFile(file.Path)
		require.NoError(t, err)
		assert.Equal(t, file.Data, data)
	}
	entries, err := os.ReadDir(directory)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// TestWriteFilesAtomicLeavesTargetsOnFailure ensures no target is replaced when any file of the group cannot be written.
func TestWriteFilesAtomicLeavesTargetsOnFailure(t *testing.T) {
	directory := t.TempDir()
	abiPath := filepath.Join(directory, "erc20-abi.json")
	bytecodePath := filepath.Join(directory, "erc20-bytecode.json")
	require.NoError(t, os.WriteFile(abiPath, []byte("previous"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(bytecodePath, "child"), 0755))

	files := []PendingFile{
		{Path: abiPath, Data: []byte("[]")},
		{Path: bytecodePath, Data: []byte("{}")},
	}
	assert.Error(t, WriteFilesAtomic(files, 0644))

	data, err := os.ReadFile(abiPath)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
	entries, err := os.ReadDir(directory)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// TestPendingReplacementRestore ensures a replaced target is put back when a later replacement fails.
func TestPendingReplacementRestore(t *testing.T) {
	directory := t.TempDir()
	target := filepath.Join(directory, "erc20-abi.json")
	require.NoError(t, os.WriteFile(target, []byte("previous"), 0644))
	staged, err := stageFile(target, []byte("next"), 0644)
	require.NoError(t, err)

	replacement := &pendingReplacement{target: target, staged: staged}
	require.NoError(t, replacement.replace())
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "next", string(data))

	replacement.restore()
	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
	entries, err := os.ReadDir(directory)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// A target that did not exist before is removed again
	fresh := filepath.Join(directory, "erc20-bytecode.json")
	staged, err = stageFile(fresh, []byte("{}"), 0644)
	require.NoError(t, err)
	replacement = &pendingReplacement{target: fresh, staged: staged}
	require.NoError(t, replacement.replace())
	replacement.restore()
	_, err = os.Stat(fresh)
	assert.True(t, os.IsNotExist(err))
}
