package platforms

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/crytic/solcexport/compilation/types"
	"github.com/crytic/solcexport/utils"
	"github.com/pkg/errors"
)

// SolcStandardJSONCompilationConfig compiles a single source with solc's --standard-json interface, which allows
// optimizer and EVM version settings to be provided.
type SolcStandardJSONCompilationConfig struct {
	// Target is the path of the Solidity source file to compile. If empty, Source is compiled instead.
	Target string `json:"target"`

	// Source is Solidity source text which is compiled when no Target is set.
	Source string `json:"source,omitempty"`

	// SourceName is the source unit name used for an inline Source. Defaults to StdinSourcePath.
	SourceName string `json:"sourceName,omitempty"`

	// Optimizer describes solc's optimizer settings.
	Optimizer OptimizerConfig `json:"optimizer"`

	// EVMVersion is the target EVM version (e.g. "paris"). If empty, the compiler default is used.
	EVMVersion string `json:"evmVersion,omitempty"`

	// FailOnWarnings causes warnings reported by the compiler to fail the compilation.
	FailOnWarnings bool `json:"failOnWarnings"`
}

// OptimizerConfig describes the optimizer settings provided to solc.
type OptimizerConfig struct {
	// Enabled indicates whether the optimizer is enabled.
	Enabled bool `json:"enabled"`

	// Runs is the number of runs the optimizer tunes for.
	Runs int `json:"runs"`
}

// NewSolcStandardJSONCompilationConfig returns a SolcStandardJSONCompilationConfig for the given target path, with
// the optimizer disabled.
func NewSolcStandardJSONCompilationConfig(target string) *SolcStandardJSONCompilationConfig {
	return &SolcStandardJSONCompilationConfig{
		Target: target,
		Optimizer: OptimizerConfig{
			Enabled: false,
			Runs:    200,
		},
	}
}

// Platform returns the platform identifier.
func (s *SolcStandardJSONCompilationConfig) Platform() string {
	return "solc-standard-json"
}

// GetTarget returns the target for compilation
func (s *SolcStandardJSONCompilationConfig) GetTarget() string {
	return s.Target
}

// SetTarget sets the new target for compilation
func (s *SolcStandardJSONCompilationConfig) SetTarget(newTarget string) {
	s.Target = newTarget
}

// GetSource returns the inline source for compilation
func (s *SolcStandardJSONCompilationConfig) GetSource() string {
	return s.Source
}

// SetSource sets the inline source for compilation
func (s *SolcStandardJSONCompilationConfig) SetSource(source string) {
	s.Source = source
}

// standardJSONInput describes the solc standard JSON input structure.
type standardJSONInput struct {
	Language string                        `json:"language"`
	Sources  map[string]standardJSONSource `json:"sources"`
	Settings standardJSONSettings          `json:"settings"`
}

type standardJSONSource struct {
	Content string `json:"content"`
}

type standardJSONSettings struct {
	Optimizer       OptimizerConfig                `json:"optimizer"`
	EVMVersion      string                         `json:"evmVersion,omitempty"`
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

// standardJSONError describes an error or warning reported in the standard JSON output.
type standardJSONError struct {
	Severity         string `json:"severity"`
	Type             string `json:"type"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage"`
}

// String returns the most descriptive message available for the error.
func (e standardJSONError) String() string {
	if e.FormattedMessage != "" {
		return strings.TrimSpace(e.FormattedMessage)
	}
	return e.Type + ": " + e.Message
}

// standardJSONOutput describes the subset of the solc standard JSON output which is consumed.
type standardJSONOutput struct {
	Errors    []standardJSONError `json:"errors"`
	Contracts map[string]map[string]struct {
		Abi json.RawMessage `json:"abi"`
		Evm struct {
			Bytecode struct {
				Object string `json:"object"`
			} `json:"bytecode"`
			DeployedBytecode struct {
				Object string `json:"object"`
			} `json:"deployedBytecode"`
		} `json:"evm"`
	} `json:"contracts"`
	Sources map[string]struct {
		AST any `json:"ast"`
	} `json:"sources"`
}

// buildInput creates the standard JSON input for the configured target or source.
func (s *SolcStandardJSONCompilationConfig) buildInput() ([]byte, error) {
	var sourceName, content string
	if s.Target != "" {
		data, err := os.ReadFile(s.Target)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read compilation target '%s'", s.Target)
		}
		sourceName, content = filepath.Base(s.Target), string(data)
	} else {
		if strings.TrimSpace(s.Source) == "" {
			return nil, errors.New("solc-standard-json compilation requires either a target or source")
		}
		sourceName, content = s.SourceName, s.Source
		if sourceName == "" {
			sourceName = StdinSourcePath
		}
	}

	input := standardJSONInput{
		Language: "Solidity",
		Sources:  map[string]standardJSONSource{sourceName: {Content: content}},
		Settings: standardJSONSettings{
			Optimizer:  s.Optimizer,
			EVMVersion: s.EVMVersion,
			OutputSelection: map[string]map[string][]string{
				"*": {
					"*": {"abi", "evm.bytecode.object", "evm.deployedBytecode.object"},
					"":  {"ast"},
				},
			},
		},
	}
	b, err := json.Marshal(input)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}

// Compile compiles the configured target or source with solc --standard-json and parses its output. Warnings are
// returned as command output unless FailOnWarnings is set.
func (s *SolcStandardJSONCompilationConfig) Compile(ctx context.Context, solcPath string) ([]types.Compilation, string, error) {
	if solcPath == "" {
		solcPath = defaultSolcExecutable
	}

	input, err := s.buildInput()
	if err != nil {
		return nil, "", err
	}

	// solc exits successfully in standard JSON mode even when compilation fails, errors are reported in the output
	cmd := exec.CommandContext(ctx, solcPath, "--standard-json")
	cmdStdout, _, cmdCombined, err := utils.RunCommandWithOutputAndError(cmd, input)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", errors.WithStack(ctx.Err())
		}
		return nil, "", utils.CommandError(cmd, err, cmdCombined)
	}

	return ParseStandardJSON(cmdStdout, s.FailOnWarnings)
}

// ParseStandardJSON parses solc standard JSON output into a compilation. Errors reported by the compiler fail the
// parse, as do warnings if failOnWarnings is set. Returns the compilation and the joined warnings that were reported.
func ParseStandardJSON(output []byte, failOnWarnings bool) ([]types.Compilation, string, error) {
	var results standardJSONOutput
	if err := json.Unmarshal(output, &results); err != nil {
		return nil, "", errors.Wrap(err, "could not parse solc standard JSON output")
	}

	// Sort diagnostics by severity
	var failures, warnings []string
	for _, diagnostic := range results.Errors {
		switch diagnostic.Severity {
		case "error":
			failures = append(failures, diagnostic.String())
		case "warning":
			if failOnWarnings {
				failures = append(failures, diagnostic.String())
			} else {
				warnings = append(warnings, diagnostic.String())
			}
		default:
			warnings = append(warnings, diagnostic.String())
		}
	}
	warningOutput := strings.Join(warnings, "\n")
	if len(failures) > 0 {
		return nil, warningOutput, errors.Errorf("solc reported %d error(s):\n%s", len(failures), strings.Join(failures, "\n"))
	}

	compilation := types.NewCompilation()
	for sourcePath, source := range results.Sources {
		compilation.SourcePathToArtifact[sourcePath] = types.SourceArtifact{
			Ast:       source.AST,
			Contracts: make(map[string]types.CompiledContract),
		}
	}
	for sourcePath, contracts := range results.Contracts {
		for contractName, contract := range contracts {
			compiledContract, err := types.NewCompiledContract(contract.Abi, contract.Evm.Bytecode.Object, contract.Evm.DeployedBytecode.Object)
			if err != nil {
				return nil, warningOutput, errors.Wrapf(err, "unable to parse artifacts for contract '%s:%s'", sourcePath, contractName)
			}
			compilation.AddContract(sourcePath, contractName, *compiledContract)
		}
	}
	return []types.Compilation{*compilation}, warningOutput, nil
}
