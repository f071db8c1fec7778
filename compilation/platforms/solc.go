package platforms

import (
	"context"
	"encoding/json"
	"os/exec"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/crytic/solcexport/compilation/types"
	"github.com/crytic/solcexport/utils"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// StdinSourcePath is the source path solc reports for sources it read from standard input.
const StdinSourcePath = "<stdin>"

// defaultSolcExecutable is the executable used when no explicit solc path was resolved by a toolchain provider.
const defaultSolcExecutable = "solc"

// requiredOutputValues are the combined-json output kinds that must always be requested.
var requiredOutputValues = []string{"abi", "bin"}

// SolcCompilationConfig compiles a single source with solc's --combined-json output.
type SolcCompilationConfig struct {
	// Target is the path of the Solidity source file to compile. If empty, Source is compiled instead.
	Target string `json:"target"`

	// Source is Solidity source text which is provided to solc via standard input when no Target is set.
	Source string `json:"source,omitempty"`

	// OutputValues are the combined-json output kinds requested from solc. "abi" and "bin" are always requested.
	OutputValues []string `json:"outputValues"`

	// ExtraArgs are additional arguments passed to solc verbatim (e.g. "--optimize").
	ExtraArgs []string `json:"extraArgs,omitempty"`
}

// NewSolcCompilationConfig returns a SolcCompilationConfig for the given target path, requesting the default output
// values.
func NewSolcCompilationConfig(target string) *SolcCompilationConfig {
	return &SolcCompilationConfig{
		Target:       target,
		OutputValues: slices.Clone(requiredOutputValues),
	}
}

// Platform returns the platform identifier.
func (s *SolcCompilationConfig) Platform() string {
	return "solc"
}

// GetTarget returns the target for compilation
func (s *SolcCompilationConfig) GetTarget() string {
	return s.Target
}

// SetTarget sets the new target for compilation
func (s *SolcCompilationConfig) SetTarget(newTarget string) {
	s.Target = newTarget
}

// GetSource returns the inline source for compilation
func (s *SolcCompilationConfig) GetSource() string {
	return s.Source
}

// SetSource sets the inline source for compilation
func (s *SolcCompilationConfig) SetSource(source string) {
	s.Source = source
}

// GetSolcVersion runs "<solcPath> --version" and parses the compiler version out of its output.
func GetSolcVersion(ctx context.Context, solcPath string) (*semver.Version, error) {
	if solcPath == "" {
		solcPath = defaultSolcExecutable
	}

	// Run solc --version to obtain our compiler version.
	cmd := exec.CommandContext(ctx, solcPath, "--version")
	out, _, combined, err := utils.RunCommandWithOutputAndError(cmd, nil)
	if err != nil {
		return nil, utils.CommandError(cmd, err, combined)
	}

	// Parse the compiler version out of the output
	exp := regexp.MustCompile(`\d+\.\d+\.\d+`)
	versionStr := exp.FindString(string(out))
	if versionStr == "" {
		return nil, errors.Errorf("could not parse solc version using '%s --version'", solcPath)
	}

	// Parse our semver string and return it
	version, err := semver.NewVersion(versionStr)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return version, nil
}

// SetSolcOutputOptions determines the --combined-json argument to provide to solc given a semver.Version.
// Older releases need 'compact-format' to emit the ABI in a single line and do not understand 'hashes'.
func (s *SolcCompilationConfig) SetSolcOutputOptions(v *semver.Version) string {
	// Always request the required values, followed by any additional values in a stable order
	values := slices.Clone(requiredOutputValues)
	extra := make([]string, 0, len(s.OutputValues))
	for _, value := range s.OutputValues {
		value = strings.TrimSpace(value)
		if value == "" || slices.Contains(values, value) || slices.Contains(extra, value) {
			continue
		}
		extra = append(extra, value)
	}
	sort.Strings(extra)
	values = append(values, extra...)

	// if version is 0.3.0-0.3.6 or 0.4.0-0.4.11 no 'hashes' outputOption
	if (v.Major() == 0 && v.Minor() == 4 && v.Patch() <= 11) || (v.Major() == 0 && v.Minor() <= 3) {
		values = utils.SliceWhere(values, func(x string) bool { return x != "hashes" })
	}

	// useCompactFormat will add the compact-format output option
	// if version is 0.4.12-0.4.26 or 0.5.0-0.5.17 or 0.6.0-0.6.12 or 0.7.0-0.7.6 or 0.8.0-0.8.9
	useCompactFormat := (v.Major() == 0 && v.Minor() == 4 && v.Patch() >= 12 && v.Patch() <= 26) ||
		(v.Major() == 0 && v.Minor() == 5 && v.Patch() <= 17) ||
		(v.Major() == 0 && v.Minor() == 6 && v.Patch() <= 12) ||
		(v.Major() == 0 && v.Minor() == 7 && v.Patch() <= 6) ||
		(v.Major() == 0 && v.Minor() == 8 && v.Patch() <= 9)
	if useCompactFormat && !slices.Contains(values, "compact-format") {
		values = append(values, "compact-format")
	}
	return strings.Join(values, ",")
}

// buildArgs returns the solc arguments and standard input for the configured target or source.
func (s *SolcCompilationConfig) buildArgs(outputOptions string) ([]string, []byte, error) {
	args := []string{"--combined-json", outputOptions}
	args = append(args, s.ExtraArgs...)
	if s.Target != "" {
		return append(args, s.Target), nil, nil
	}
	if strings.TrimSpace(s.Source) == "" {
		return nil, nil, errors.New("solc compilation requires either a target or source")
	}
	return append(args, "-"), []byte(s.Source), nil
}

// Compile compiles the configured target or source with solc and parses its combined-json output.
func (s *SolcCompilationConfig) Compile(ctx context.Context, solcPath string) ([]types.Compilation, string, error) {
	if solcPath == "" {
		solcPath = defaultSolcExecutable
	}

	// Obtain our solc version string
	v, err := GetSolcVersion(ctx, solcPath)
	if err != nil {
		return nil, "", err
	}

	// Determine which compiler options we need.
	args, stdin, err := s.buildArgs(s.SetSolcOutputOptions(v))
	if err != nil {
		return nil, "", err
	}

	// Create our command
	cmd := exec.CommandContext(ctx, solcPath, args...)
	cmdStdout, cmdStderr, cmdCombined, err := utils.RunCommandWithOutputAndError(cmd, stdin)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", errors.WithStack(ctx.Err())
		}
		return nil, "", utils.CommandError(cmd, err, cmdCombined)
	}

	compilation, err := ParseCombinedJSON(cmdStdout)
	if err != nil {
		return nil, "", err
	}
	return []types.Compilation{*compilation}, string(cmdStderr), nil
}

// combinedJSONOutput describes the subset of solc's --combined-json output which is consumed.
type combinedJSONOutput struct {
	Contracts map[string]struct {
		Abi        json.RawMessage `json:"abi"`
		Bin        string          `json:"bin"`
		BinRuntime string          `json:"bin-runtime"`
	} `json:"contracts"`
	Sources map[string]struct {
		AST any `json:"AST"`
	} `json:"sources"`
	Version string `json:"version"`
}

// ParseCombinedJSON parses solc --combined-json output into a compilation. Contract keys are expected in the
// "<sourcePath>:<contractName>" form solc emits.
func ParseCombinedJSON(output []byte) (*types.Compilation, error) {
	// Our compilation succeeded, load the JSON
	var results combinedJSONOutput
	if err := json.Unmarshal(output, &results); err != nil {
		return nil, errors.Wrap(err, "could not parse solc combined-json output")
	}

	// Create a compilation unit out of this.
	compilation := types.NewCompilation()
	for sourcePath, source := range results.Sources {
		compilation.SourcePathToArtifact[sourcePath] = types.SourceArtifact{
			Ast:       source.AST,
			Contracts: make(map[string]types.CompiledContract),
		}
	}

	for name, contract := range results.Contracts {
		// Split our name which should be of form "filename:contractname"
		separator := strings.LastIndex(name, ":")
		if separator < 0 {
			return nil, errors.Errorf("unexpected contract key '%s' in solc output", name)
		}
		sourcePath, contractName := name[:separator], name[separator+1:]

		compiledContract, err := types.NewCompiledContract(contract.Abi, contract.Bin, contract.BinRuntime)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse artifacts for contract '%s'", name)
		}
		compilation.AddContract(sourcePath, contractName, *compiledContract)
	}

	return compilation, nil
}
