package export

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Masterminds/semver"
	"github.com/crytic/solcexport/compilation"
	"github.com/crytic/solcexport/compilation/abiutils"
	"github.com/crytic/solcexport/compilation/types"
	"github.com/crytic/solcexport/export/config"
	"github.com/crytic/solcexport/export/contracts"
	"github.com/crytic/solcexport/toolchain"
	"github.com/crytic/solcexport/utils/testutils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider is a toolchain.Provider which serves a single solc executable for every version.
type stubProvider struct {
	solcPath   string
	installErr error
	installs   []string
	active     *semver.Version
}

func (s *stubProvider) Install(_ context.Context, version *semver.Version) error {
	s.installs = append(s.installs, version.String())
	return s.installErr
}

func (s *stubProvider) Use(version *semver.Version) error {
	s.active = version
	return nil
}

func (s *stubProvider) Active() (*semver.Version, error) {
	if s.active == nil {
		return nil, toolchain.ErrNotInstalled
	}
	return s.active, nil
}

func (s *stubProvider) BinaryPath(_ *semver.Version) (string, error) {
	return s.solcPath, nil
}

func (s *stubProvider) Installed() ([]*semver.Version, error) {
	return []*semver.Version{semver.MustParse(config.DefaultSolcVersion)}, nil
}

func (s *stubProvider) Available(_ context.Context) ([]*semver.Version, error) {
	return s.Installed()
}

// writeFakeSolc writes a script which behaves like solc 0.8.19, recording the source it receives on standard input
// and printing the given fixture from the testdata directory. If fixture is empty, it fails like a compile error.
func writeFakeSolc(t *testing.T, directory string, fixture string) string {
	body := `case "$1" in
  --version)
    echo "solc, the solidity compiler commandline interface"
    echo "Version: 0.8.19+commit.7dd6d404.Linux.g++"
    exit 0;;
esac
cat > "` + filepath.Join(directory, "stdin.sol") + `"
`
	if fixture == "" {
		body += `echo "Error: Expected ';' but got '}'" >&2
exit 1
`
	} else {
		fixturePath, err := filepath.Abs(filepath.Join("testdata", fixture))
		require.NoError(t, err)
		body += `cat "` + fixturePath + `"
`
	}
	return testutils.WriteExecutableScript(t, directory, "solc", body)
}

// newTestExport creates a default project config writing to a temporary directory and a stub provider serving a
// fake solc which prints the given fixture.
func newTestExport(t *testing.T, fixture string) (*config.ProjectConfig, *stubProvider) {
	projectConfig, err := config.GetDefaultProjectConfig()
	require.NoError(t, err)
	projectConfig.Output.Directory = filepath.Join(t.TempDir(), "out")

	provider := &stubProvider{solcPath: writeFakeSolc(t, t.TempDir(), fixture)}
	return projectConfig, provider
}

// runExport creates an Exporter for the config and runs it.
func runExport(t *testing.T, projectConfig *config.ProjectConfig, provider toolchain.Provider) (*Result, error) {
	exporter, err := NewExporter(projectConfig, provider)
	require.NoError(t, err)
	return exporter.Run(context.Background())
}

// TestExportDefaultSource ensures the built-in ERC-20 source is compiled and both artifacts are written.
func TestExportDefaultSource(t *testing.T) {
	projectConfig, provider := newTestExport(t, "rifs_token_combined.json")

	result, err := runExport(t, projectConfig, provider)
	require.NoError(t, err)

	// The toolchain was installed and selected
	assert.Equal(t, []string{"0.8.19"}, provider.installs)
	require.NotNil(t, provider.active)
	assert.Equal(t, "0.8.19", provider.active.String())

	// The built-in source was provided to the compiler
	received, err := os.ReadFile(filepath.Join(filepath.Dir(provider.solcPath), "stdin.sol"))
	require.NoError(t, err)
	assert.Equal(t, contracts.ERC20Source, string(received))

	assert.Equal(t, contracts.ERC20ContractName, result.ContractName)
	assert.Equal(t, "<stdin>", result.SourcePath)
	assert.Equal(t, "0.8.19", result.SolcVersion.String())
	assert.Empty(t, result.DeploymentPath)
	assert.True(t, result.ArtifactsChanged)
	assert.NotEmpty(t, result.ArtifactHash)

	// The ABI artifact is an array describing the full token interface
	abiData, err := os.ReadFile(result.AbiPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(abiData), "[\n  {\n    \"inputs\": ["))
	var descriptors []map[string]any
	require.NoError(t, json.Unmarshal(abiData, &descriptors))
	functions := make([]string, 0)
	events := make([]string, 0)
	for _, descriptor := range descriptors {
		switch descriptor["type"] {
		case "function":
			functions = append(functions, descriptor["name"].(string))
		case "event":
			events = append(events, descriptor["name"].(string))
		}
	}
	assert.ElementsMatch(t, []string{
		"transfer", "approve", "transferFrom", "name", "symbol", "decimals", "totalSupply", "balanceOf", "allowance",
	}, functions)
	assert.ElementsMatch(t, []string{"Transfer", "Approval"}, events)
	assert.Len(t, result.Summary.Methods, 9)
	assert.Equal(t, "constructor(uint256)", result.Summary.Constructor)

	// The bytecode artifact is an object with a single non-empty hex string
	bytecodeData, err := os.ReadFile(result.BytecodePath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(bytecodeData), "{\n  \"bytecode\": \""))
	var bytecodeArtifact map[string]any
	require.NoError(t, json.Unmarshal(bytecodeData, &bytecodeArtifact))
	require.Len(t, bytecodeArtifact, 1)
	bytecode, ok := bytecodeArtifact["bytecode"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, bytecode)
	assert.Regexp(t, "^[0-9a-f]+$", bytecode)
	assert.True(t, strings.HasPrefix(bytecode, "6080604052"))
}

// TestExportRerunIsDeterministic ensures rerunning an export overwrites the artifacts with identical content.
func TestExportRerunIsDeterministic(t *testing.T) {
	projectConfig, provider := newTestExport(t, "rifs_token_combined.json")

	first, err := runExport(t, projectConfig, provider)
	require.NoError(t, err)
	firstAbi, err := os.ReadFile(first.AbiPath)
	require.NoError(t, err)
	firstBytecode, err := os.ReadFile(first.BytecodePath)
	require.NoError(t, err)

	second, err := runExport(t, projectConfig, provider)
	require.NoError(t, err)
	secondAbi, err := os.ReadFile(second.AbiPath)
	require.NoError(t, err)
	secondBytecode, err := os.ReadFile(second.BytecodePath)
	require.NoError(t, err)

	assert.Equal(t, firstAbi, secondAbi)
	assert.Equal(t, firstBytecode, secondBytecode)
	assert.Equal(t, first.ArtifactHash, second.ArtifactHash)
	assert.False(t, second.ArtifactsChanged)

	// Only the artifacts and the hash cache are in the output directory
	entries, err := os.ReadDir(projectConfig.Output.Directory)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{"erc20-abi.json", "erc20-bytecode.json", compilation.ArtifactHashCacheFileName}, names)
}

// TestExportCompileFailureWritesNothing ensures a failed compilation leaves no artifacts behind and does not touch
// existing ones.
func TestExportCompileFailureWritesNothing(t *testing.T) {
	projectConfig, provider := newTestExport(t, "")

	_, err := runExport(t, projectConfig, provider)
	require.Error(t, err)
	assert.Equal(t, StageCompilation, GetStage(err))
	assert.Contains(t, err.Error(), "Expected ';'")
	assert.NoDirExists(t, projectConfig.Output.Directory)

	// Existing artifacts are left untouched
	require.NoError(t, os.MkdirAll(projectConfig.Output.Directory, 0755))
	require.NoError(t, os.WriteFile(projectConfig.AbiPath(), []byte("previous"), 0644))
	_, err = runExport(t, projectConfig, provider)
	require.Error(t, err)
	data, err := os.ReadFile(projectConfig.AbiPath())
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
	assert.NoFileExists(t, projectConfig.BytecodePath())
}

// TestExportToolchainFailure ensures install failures are reported as toolchain errors before compiling.
func TestExportToolchainFailure(t *testing.T) {
	projectConfig, provider := newTestExport(t, "rifs_token_combined.json")
	provider.installErr = errors.Wrap(toolchain.ErrChecksumMismatch, "solc 0.8.19")

	_, err := runExport(t, projectConfig, provider)
	require.Error(t, err)
	assert.Equal(t, StageToolchain, GetStage(err))
	assert.True(t, errors.Is(err, toolchain.ErrChecksumMismatch))
	assert.NoDirExists(t, projectConfig.Output.Directory)
}

// TestExportWithoutInstall ensures installs are skipped when disabled.
func TestExportWithoutInstall(t *testing.T) {
	projectConfig, provider := newTestExport(t, "rifs_token_combined.json")
	projectConfig.Toolchain.Install = false

	_, err := runExport(t, projectConfig, provider)
	require.NoError(t, err)
	assert.Empty(t, provider.installs)
	assert.NotNil(t, provider.active)
}

// TestExportMultipleContracts ensures ambiguous compilations fail unless a contract is named.
func TestExportMultipleContracts(t *testing.T) {
	projectConfig, provider := newTestExport(t, "multiple_contracts_combined.json")

	_, err := runExport(t, projectConfig, provider)
	require.Error(t, err)
	assert.Equal(t, StageCompilation, GetStage(err))
	assert.True(t, errors.Is(err, types.ErrMultipleContracts))
	assert.NoDirExists(t, projectConfig.Output.Directory)

	projectConfig.Compilation.ContractName = "RifsToken"
	result, err := runExport(t, projectConfig, provider)
	require.NoError(t, err)
	assert.Equal(t, "RifsToken", result.ContractName)

	// Interfaces compile to no bytecode and cannot be exported
	projectConfig.Compilation.ContractName = "IERC20"
	_, err = runExport(t, projectConfig, provider)
	assert.Error(t, err)

	projectConfig.Compilation.ContractName = "Missing"
	_, err = runExport(t, projectConfig, provider)
	assert.True(t, errors.Is(err, types.ErrContractNotFound))
}

// TestExportDeploymentPayload ensures the deployment payload holds the scaled initial supply.
func TestExportDeploymentPayload(t *testing.T) {
	projectConfig, provider := newTestExport(t, "rifs_token_combined.json")
	projectConfig.Output.Deployment.Enabled = true

	result, err := runExport(t, projectConfig, provider)
	require.NoError(t, err)
	require.Equal(t, projectConfig.DeploymentPath(), result.DeploymentPath)

	bytecodeData, err := os.ReadFile(result.BytecodePath)
	require.NoError(t, err)
	var bytecodeArtifact BytecodeArtifact
	require.NoError(t, json.Unmarshal(bytecodeData, &bytecodeArtifact))

	deploymentData, err := os.ReadFile(result.DeploymentPath)
	require.NoError(t, err)
	var payload DeploymentPayload
	require.NoError(t, json.Unmarshal(deploymentData, &payload))
	assert.Equal(t, bytecodeArtifact.Bytecode, payload.Bytecode)
	assert.Equal(t, []string{"1000000000000000000000000"}, payload.ConstructorArgs)

	// 1e24 is 0xd3c21bcecceda1000000, left padded to a 32 byte word
	expectedArgs := strings.Repeat("0", 64-20) + "d3c21bcecceda1000000"
	assert.Equal(t, "0x"+payload.Bytecode+expectedArgs, payload.Data)

	// Invalid arguments fail the export before anything is written
	projectConfig.Output.Directory = filepath.Join(t.TempDir(), "invalid")
	projectConfig.Output.Deployment.ConstructorArgs = []string{"-1"}
	_, err = runExport(t, projectConfig, provider)
	require.Error(t, err)
	assert.Equal(t, StageExport, GetStage(err))
	assert.NoDirExists(t, projectConfig.Output.Directory)
}

// TestNewExporterValidation ensures invalid configs are rejected up front.
func TestNewExporterValidation(t *testing.T) {
	projectConfig, provider := newTestExport(t, "rifs_token_combined.json")

	_, err := NewExporter(nil, provider)
	assert.Error(t, err)
	_, err = NewExporter(projectConfig, nil)
	assert.Error(t, err)

	projectConfig.Toolchain.Version = "not-a-version"
	_, err = NewExporter(projectConfig, provider)
	assert.Error(t, err)
}

// TestExportWithSystemSolc compiles the built-in source with a solc 0.8.19 found on the PATH, if any.
func TestExportWithSystemSolc(t *testing.T) {
	if _, err := exec.LookPath("solc"); err != nil {
		t.Skip("solc is not installed")
	}
	provider := toolchain.NewSystem("solc")
	if active, err := provider.Active(); err != nil || active.String() != config.DefaultSolcVersion {
		t.Skip("solc on the PATH is not version " + config.DefaultSolcVersion)
	}

	projectConfig, err := config.GetDefaultProjectConfig()
	require.NoError(t, err)
	projectConfig.Toolchain.Provider = toolchain.ProviderTypeSystem
	projectConfig.Output.Directory = t.TempDir()

	result, err := runExport(t, projectConfig, provider)
	require.NoError(t, err)
	assert.Equal(t, contracts.ERC20ContractName, result.ContractName)
	assert.Len(t, result.Summary.Events, 2)
	assert.FileExists(t, result.AbiPath)
	assert.FileExists(t, result.BytecodePath)
}

// TestExporterEvents ensures events are published around the writes and that a failing handler blocks them.
func TestExporterEvents(t *testing.T) {
	projectConfig, provider := newTestExport(t, "rifs_token_combined.json")
	exporter, err := NewExporter(projectConfig, provider)
	require.NoError(t, err)

	var selected []string
	var written []string
	exporter.Events.ContractSelected.Subscribe(func(event ContractSelectedEvent) error {
		selected = append(selected, event.Contract.QualifiedName())
		return nil
	})
	exporter.Events.ArtifactsWritten.Subscribe(func(event ArtifactsWrittenEvent) error {
		written = append(written, event.Paths...)
		return nil
	})

	_, err = exporter.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"<stdin>:RifsToken"}, selected)
	assert.Equal(t, []string{projectConfig.AbiPath(), projectConfig.BytecodePath()}, written)

	// A failing selection handler stops the export before anything is written
	projectConfig.Output.Directory = filepath.Join(t.TempDir(), "rejected")
	exporter, err = NewExporter(projectConfig, provider)
	require.NoError(t, err)
	exporter.Events.ContractSelected.Subscribe(func(ContractSelectedEvent) error {
		return errors.New("contract rejected")
	})
	_, err = exporter.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageCompilation, GetStage(err))
	assert.NoDirExists(t, projectConfig.Output.Directory)
}

// TestSummaryLogBuffer ensures the ABI summary lists the constructor, methods with their selectors and events with
// their topics.
func TestSummaryLogBuffer(t *testing.T) {
	summary := abiutils.ABISummary{
		Constructor: "constructor(uint256)",
		Methods: []abiutils.MethodSummary{
			{Name: "transfer", Signature: "transfer(address,uint256)", Selector: "a9059cbb", StateMutability: "nonpayable"},
		},
		Events: []abiutils.EventSummary{
			{Name: "Transfer", Signature: "Transfer(address,address,uint256)", Topic: "ddf252ad"},
		},
	}

	buffer := summaryLogBuffer("RifsToken", summary)
	expected := "ABI of RifsToken:\n  constructor(uint256)\n  a9059cbb transfer(address,uint256) nonpayable" +
		"\n  ddf252ad Transfer(address,address,uint256)"
	assert.Equal(t, expected, buffer.String())
	assert.Contains(t, buffer.ColorString(), "ddf252ad")
}
