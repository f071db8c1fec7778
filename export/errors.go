package export

import "github.com/pkg/errors"

// Stage identifies the step of an export which failed.
type Stage string

const (
	// StageToolchain covers installing and selecting the compiler.
	StageToolchain Stage = "toolchain"
	// StageCompilation covers compiling the source and selecting the contract.
	StageCompilation Stage = "compilation"
	// StageExport covers rendering and writing the artifacts.
	StageExport Stage = "export"
)

// StageError is returned by Exporter.Run and records the stage the export failed in.
type StageError struct {
	// Stage is the step which failed.
	Stage Stage
	// Err is the underlying error.
	Err error
}

// newStageError wraps err with the stage it occurred in, or returns nil if err is nil.
func newStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// Error returns the error message of the underlying error, prefixed with the stage.
func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error, for use with errors.Cause.
func (e *StageError) Cause() error {
	return e.Err
}

// GetStage returns the stage an export error occurred in, or an empty string if err did not come from an export.
func GetStage(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
