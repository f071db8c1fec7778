package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// CreateFile will create a file at the given path and file name combination. If the path is the empty string, the
// file will be created in the current working directory
func CreateFile(path string, fileName string) (*os.File, error) {
	// By default, the path will be the name of the file
	filePath := fileName

	// Check to see if the file needs to be created in another directory or the working directory
	if path != "" {
		// Make the directory, if it does not exist already
		err := MakeDirectory(path)
		if err != nil {
			return nil, err
		}
		// Since the path is non-empty, concatenate the path with the name of the file
		filePath = filepath.Join(path, fileName)
	}

	// Create the file
	file, err := os.Create(filePath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return file, nil
}

// CopyFile copies a file from a source path to a destination path. File permissions are retained. Returns an error
// if one occurs.
func CopyFile(sourcePath string, targetPath string) error {
	// Obtain file info for the source file
	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}

	// If the path refers to a directory, return an error
	if sourceInfo.IsDir() {
		return fmt.Errorf("could not copy file from '%s' to '%s' because the source path refers to a directory", sourcePath, targetPath)
	}

	// Ensure the existence of the directory we wish to copy to.
	targetDirectory := filepath.Dir(targetPath)
	err = os.MkdirAll(targetDirectory, 0755)
	if err != nil {
		return err
	}

	// Open a handle to the source file
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	// Get a handle to the created target file
	targetFile, err := os.Create(targetPath)
	if err != nil {
		return err
	}
	defer targetFile.Close()

	// Copy contents from one file handle to the other
	_, err = io.Copy(targetFile, sourceFile)
	if err != nil {
		return err
	}

	// Modify the permissions of the file
	return os.Chmod(targetPath, sourceInfo.Mode())
}

// WriteFileAtomic writes data to the provided path by first writing a temporary file in the same directory and then
// renaming it over the target. Readers therefore observe either the previous file or the complete new one, never a
// partially written file. Returns an error if one occurred.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tempPath, err := stageFile(path, data, perm)
	if err != nil {
		return err
	}
	if err = os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errors.WithStack(err)
	}
	return nil
}

// PendingFile describes a file to be written by WriteFilesAtomic.
type PendingFile struct {
	// Path is the path of the file.
	Path string

	// Data is the content of the file.
	Data []byte
}

// pendingReplacement tracks the progress of replacing a single target in WriteFilesAtomic.
type pendingReplacement struct {
	target   string
	staged   string
	backup   string
	movedOut bool
	placed   bool
}

// WriteFilesAtomic writes a group of files so that either every target is replaced or none of them are. All files are
// staged next to their targets before any target is touched. Existing targets are moved aside while the staged files
// are renamed into place, and are moved back if any rename fails. Returns an error if one occurred.
func WriteFilesAtomic(files []PendingFile, perm os.FileMode) error {
	replacements := make([]*pendingReplacement, 0, len(files))
	defer func() {
		for _, r := range replacements {
			if !r.placed {
				_ = os.Remove(r.staged)
			}
		}
	}()

	// Stage every file first. A failure here leaves every target untouched.
	for _, file := range files {
		if info, err := os.Stat(file.Path); err == nil && info.IsDir() {
			return errors.Errorf("could not write '%s' because the path refers to a directory", file.Path)
		}
		stagedPath, err := stageFile(file.Path, file.Data, perm)
		if err != nil {
			return err
		}
		replacements = append(replacements, &pendingReplacement{target: file.Path, staged: stagedPath})
	}

	for i, r := range replacements {
		if err := r.replace(); err != nil {
			for j := i; j >= 0; j-- {
				replacements[j].restore()
			}
			return err
		}
	}

	// Every target was replaced, so the previous contents are no longer needed
	for _, r := range replacements {
		if r.movedOut {
			_ = os.Remove(r.backup)
		}
	}
	return nil
}

// replace moves an existing target aside and renames the staged file into its place.
func (r *pendingReplacement) replace() error {
	if _, err := os.Lstat(r.target); err == nil {
		backup, err := reserveTempPath(r.target, ".bak-*")
		if err != nil {
			return err
		}
		r.backup = backup
		if err := os.Rename(r.target, r.backup); err != nil {
			_ = os.Remove(r.backup)
			return errors.WithStack(err)
		}
		r.movedOut = true
	}
	if err := os.Rename(r.staged, r.target); err != nil {
		return errors.WithStack(err)
	}
	r.placed = true
	return nil
}

// restore undoes replace, putting the previous target (if any) back in place.
func (r *pendingReplacement) restore() {
	if r.placed {
		_ = os.Remove(r.target)
		r.placed = false
	}
	if r.movedOut {
		_ = os.Rename(r.backup, r.target)
		r.movedOut = false
	}
}

// reserveTempPath creates an empty file next to path whose name is derived from path and pattern, and returns its path.
func reserveTempPath(path string, pattern string) (string, error) {
	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+pattern)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if err = tempFile.Close(); err != nil {
		_ = os.Remove(tempFile.Name())
		return "", errors.WithStack(err)
	}
	return tempFile.Name(), nil
}

// stageFile writes data to a temporary file in the directory of path, creating the directory if needed, and returns
// the temporary file's path. The temporary file must live on the same filesystem as the target for a rename to be
// atomic.
func stageFile(path string, data []byte, perm os.FileMode) (string, error) {
	directory := filepath.Dir(path)
	if err := MakeDirectory(directory); err != nil {
		return "", err
	}

	tempFile, err := os.CreateTemp(directory, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", errors.WithStack(err)
	}
	tempPath := tempFile.Name()

	// Clean up the temporary file if anything below fails
	staged := false
	defer func() {
		if !staged {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err = tempFile.Write(data); err != nil {
		tempFile.Close()
		return "", errors.WithStack(err)
	}
	if err = tempFile.Sync(); err != nil {
		tempFile.Close()
		return "", errors.WithStack(err)
	}
	if err = tempFile.Close(); err != nil {
		return "", errors.WithStack(err)
	}
	if err = os.Chmod(tempPath, perm); err != nil {
		return "", errors.WithStack(err)
	}
	staged = true
	return tempPath, nil
}

// GetFileNameWithoutExtension obtains a filename without the extension. This does not contain any preceding directory
// paths.
func GetFileNameWithoutExtension(filePath string) string {
	return GetFilePathWithoutExtension(filepath.Base(filePath))
}

// GetFilePathWithoutExtension obtains a file path without the extension. This retains all preceding directory paths.
func GetFilePathWithoutExtension(filePath string) string {
	return filePath[:len(filePath)-len(filepath.Ext(filePath))]
}

// ExpandHomeDirectory replaces a leading "~" in the provided path with the current user's home directory.
func ExpandHomeDirectory(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WithStack(err)
	}
	return filepath.Join(home, path[1:]), nil
}

// MakeDirectory creates a directory at the given path, including any parent directories which do not exist.
// Returns an error, if one occurred.
func MakeDirectory(dirToMake string) error {
	dirInfo, err := os.Stat(dirToMake)
	if err != nil {
		// Directory does not exist, as expected.
		if os.IsNotExist(err) {
			err = os.MkdirAll(dirToMake, 0755)
			if err != nil {
				return errors.WithStack(err)
			}

			// Successfully made the directory
			return nil
		}
		// Some other sort of error, throw it
		return errors.WithStack(err)
	}

	// dirToMake is a file, throw an error accordingly
	if !dirInfo.IsDir() {
		return fmt.Errorf("there is a file with the same name as %s", dirToMake)
	}

	// Directory already exists, good to go
	return nil
}
