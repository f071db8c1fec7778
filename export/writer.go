package export

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/crytic/solcexport/utils"
	"github.com/pkg/errors"
)

// BytecodeArtifact describes the contents of the bytecode artifact.
type BytecodeArtifact struct {
	// Bytecode is the hex-encoded creation bytecode, exactly as emitted by the compiler.
	Bytecode string `json:"bytecode"`
}

// artifact is a file which is written once every artifact of an export has been rendered.
type artifact struct {
	path string
	data []byte
}

// indentString returns the indentation used for each nesting level.
func indentString(indent int) string {
	return strings.Repeat(" ", indent)
}

// FormatABI renders the raw ABI JSON array indented by the given number of spaces per level. Descriptor order and
// fields are preserved exactly as the compiler emitted them. An indent of zero renders compact JSON.
func FormatABI(rawAbi json.RawMessage, indent int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if indent == 0 {
		err = json.Compact(&buf, rawAbi)
	} else {
		err = json.Indent(&buf, rawAbi, "", indentString(indent))
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not format abi")
	}
	return buf.Bytes(), nil
}

// FormatJSON renders a value as JSON indented by the given number of spaces per level. An indent of zero renders
// compact JSON.
func FormatJSON(value any, indent int) ([]byte, error) {
	var b []byte
	var err error
	if indent == 0 {
		b, err = json.Marshal(value)
	} else {
		b, err = json.MarshalIndent(value, "", indentString(indent))
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}

// FormatBytecode renders the bytecode artifact for the given hex-encoded creation bytecode.
func FormatBytecode(bytecode string, indent int) ([]byte, error) {
	if bytecode == "" {
		return nil, errors.New("contract has no creation bytecode")
	}
	return FormatJSON(BytecodeArtifact{Bytecode: bytecode}, indent)
}

// writeArtifacts writes every artifact, overwriting existing files. Either all artifacts are replaced or none are.
func writeArtifacts(artifacts []artifact) error {
	files := utils.SliceSelect(artifacts, func(a artifact) utils.PendingFile {
		return utils.PendingFile{Path: a.path, Data: a.data}
	})
	return errors.Wrap(utils.WriteFilesAtomic(files, 0644), "could not write artifacts")
}
