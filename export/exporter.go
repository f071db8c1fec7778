package export

import (
	"context"
	"path/filepath"

	"github.com/Masterminds/semver"
	"github.com/crytic/solcexport/compilation"
	"github.com/crytic/solcexport/compilation/abiutils"
	"github.com/crytic/solcexport/compilation/types"
	"github.com/crytic/solcexport/export/config"
	"github.com/crytic/solcexport/export/contracts"
	"github.com/crytic/solcexport/logging"
	"github.com/crytic/solcexport/logging/colors"
	"github.com/crytic/solcexport/toolchain"
	"github.com/crytic/solcexport/utils"
	"github.com/pkg/errors"
)

// Exporter installs the configured solc version, compiles a source and writes the selected contract's ABI and
// bytecode artifacts.
type Exporter struct {
	// config describes the export.
	config *config.ProjectConfig

	// provider installs and selects the compiler.
	provider toolchain.Provider

	// logger logs the progress of the export.
	logger *logging.Logger

	// Events describes the event system for the Exporter.
	Events ExporterEvents
}

// Result describes a successful export.
type Result struct {
	// ContractName is the name of the exported contract.
	ContractName string

	// SourcePath is the source path the compiler reported for the exported contract.
	SourcePath string

	// SolcVersion is the compiler version used.
	SolcVersion *semver.Version

	// SolcPath is the path of the compiler executable used.
	SolcPath string

	// AbiPath is the path the ABI artifact was written to.
	AbiPath string

	// BytecodePath is the path the bytecode artifact was written to.
	BytecodePath string

	// DeploymentPath is the path the deployment payload was written to, or empty if it is disabled.
	DeploymentPath string

	// ArtifactHash is the hash of the exported contract's artifacts.
	ArtifactHash string

	// ArtifactsChanged indicates whether the artifacts differ from the previous export to the same directory.
	ArtifactsChanged bool

	// Summary summarizes the exported contract's ABI.
	Summary abiutils.ABISummary

	// CompilerOutput holds any diagnostics the compiler printed for a successful compilation.
	CompilerOutput string
}

// NewExporter validates the provided config and returns an Exporter which installs compilers with provider.
func NewExporter(projectConfig *config.ProjectConfig, provider toolchain.Provider) (*Exporter, error) {
	if projectConfig == nil {
		return nil, errors.New("project config must not be nil")
	}
	if provider == nil {
		return nil, errors.New("toolchain provider must not be nil")
	}
	if err := projectConfig.Validate(); err != nil {
		return nil, err
	}
	return &Exporter{
		config:   projectConfig,
		provider: provider,
		logger:   logging.GlobalLogger.NewSubLogger(logging.SERVICE_KEY, logging.EXPORT_SERVICE),
	}, nil
}

// Run installs and selects the compiler, compiles the source, selects the contract and writes its artifacts.
// Artifacts are only written once every step before them has succeeded. Errors are returned as a *StageError.
func (e *Exporter) Run(ctx context.Context) (*Result, error) {
	version, err := e.config.SolcVersion()
	if err != nil {
		return nil, newStageError(StageToolchain, err)
	}

	// Install the compiler and make it the default
	solcPath, err := toolchain.EnsureVersion(ctx, e.provider, version, e.config.Toolchain.Install)
	if err != nil {
		return nil, newStageError(StageToolchain, err)
	}
	e.logger.Debug("Using solc ", version, " at ", solcPath)

	// Compile and select the contract
	ref, compilerOutput, err := e.compile(ctx, solcPath)
	if err != nil {
		return nil, newStageError(StageCompilation, err)
	}
	e.checkMetadata(ref, version)
	err = e.Events.ContractSelected.Publish(ContractSelectedEvent{Exporter: e, Contract: ref, CompilerOutput: compilerOutput})
	if err != nil {
		return nil, newStageError(StageCompilation, err)
	}

	// Render every artifact before writing any of them
	artifacts, deploymentPath, err := e.renderArtifacts(ref)
	if err != nil {
		return nil, newStageError(StageExport, err)
	}
	if err := writeArtifacts(artifacts); err != nil {
		return nil, newStageError(StageExport, err)
	}
	paths := utils.SliceSelect(artifacts, func(a artifact) string { return a.path })
	if err := e.Events.ArtifactsWritten.Publish(ArtifactsWrittenEvent{Exporter: e, Paths: paths}); err != nil {
		return nil, newStageError(StageExport, err)
	}

	// Record the artifacts so reruns can report whether they changed
	selected := types.NewCompilation()
	selected.AddContract(ref.SourcePath, ref.Name, ref.Contract)
	selectedCompilations := []types.Compilation{*selected}
	changed := compilation.NotifyArtifactHashStatus(selectedCompilations, version.String(), e.config.Output.Directory, e.logger)

	result := &Result{
		ContractName:     ref.Name,
		SourcePath:       ref.SourcePath,
		SolcVersion:      version,
		SolcPath:         solcPath,
		AbiPath:          e.config.AbiPath(),
		BytecodePath:     e.config.BytecodePath(),
		DeploymentPath:   deploymentPath,
		ArtifactHash:     compilation.ComputeArtifactHash(selectedCompilations),
		ArtifactsChanged: changed,
		Summary:          abiutils.Summarize(ref.Contract.Abi),
		CompilerOutput:   compilerOutput,
	}
	e.logger.Debug(summaryLogBuffer(ref.Name, result.Summary))
	e.logger.Info(
		"Exported ", colors.Bold, ref.Name, colors.Reset,
		" (", len(result.Summary.Methods), " methods, ", len(result.Summary.Events), " events) to ",
		colors.Bold, result.AbiPath, colors.Reset, " and ", colors.Bold, result.BytecodePath, colors.Reset,
	)
	return result, nil
}

// compile compiles the configured source (the built-in ERC-20 source if none is configured) and selects the
// contract to export.
func (e *Exporter) compile(ctx context.Context, solcPath string) (*types.ContractRef, string, error) {
	e.logger.Info("Compiling with ", colors.Bold, e.config.Compilation.Platform, colors.Reset)
	compilations, compilerOutput, err := e.config.Compilation.Compile(ctx, solcPath, contracts.ERC20Source)
	if err != nil {
		return nil, compilerOutput, err
	}
	if compilerOutput != "" {
		e.logger.Warn("Compiler output:\n", compilerOutput)
	}

	ref, err := types.SelectContract(compilations, e.config.Compilation.ContractName)
	if err != nil {
		return nil, compilerOutput, err
	}
	if !ref.Contract.IsDeployable() {
		return nil, compilerOutput, errors.Errorf("contract '%s' has no creation bytecode (is it abstract or an interface?)", ref.QualifiedName())
	}
	if ref.Contract.HasUnlinkedLibraries() {
		e.logger.Warn("Contract ", ref.Name, " references unlinked libraries: ", ref.Contract.UnlinkedLibraries())
	}
	return ref, compilerOutput, nil
}

// checkMetadata logs the compiler version and metadata hash embedded in the contract bytecode, warning if the
// embedded version does not match the version which was requested.
func (e *Exporter) checkMetadata(ref *types.ContractRef, version *semver.Version) {
	metadata := ref.Contract.Metadata()
	if metadata == nil {
		e.logger.Debug("Contract ", ref.Name, " bytecode does not embed compiler metadata")
		return
	}
	embeddedVersion := metadata.ExtractCompilerVersion()
	if embeddedVersion != "" && embeddedVersion != version.String() {
		e.logger.Warn("Contract ", ref.Name, " bytecode was produced by solc ", embeddedVersion, ", not ", version)
	}
	if ipfsHash := metadata.ExtractIPFSHash(); ipfsHash != "" {
		e.logger.Debug("Contract ", ref.Name, " metadata: ipfs://", ipfsHash)
	}
}

// renderArtifacts renders the ABI, bytecode and (if enabled) deployment payload artifacts. Returns the artifacts and
// the deployment payload path, if any.
func (e *Exporter) renderArtifacts(ref *types.ContractRef) ([]artifact, string, error) {
	output := e.config.Output

	abiData, err := FormatABI(ref.Contract.RawAbi, output.Indent)
	if err != nil {
		return nil, "", err
	}
	bytecodeData, err := FormatBytecode(ref.Contract.InitBytecode, output.Indent)
	if err != nil {
		return nil, "", err
	}
	artifacts := []artifact{
		{path: e.config.AbiPath(), data: abiData},
		{path: e.config.BytecodePath(), data: bytecodeData},
	}

	if !output.Deployment.Enabled {
		return artifacts, "", nil
	}
	payload, err := BuildDeploymentPayload(&ref.Contract, output.Deployment.ConstructorArgs, output.Deployment.Decimals)
	if err != nil {
		return nil, "", errors.Wrap(err, "could not build deployment payload")
	}
	deploymentData, err := FormatJSON(payload, output.Indent)
	if err != nil {
		return nil, "", err
	}
	deploymentPath := e.config.DeploymentPath()
	return append(artifacts, artifact{path: deploymentPath, data: deploymentData}), deploymentPath, nil
}

// OutputDirectory returns the absolute path of the directory artifacts are written to.
func (e *Exporter) OutputDirectory() (string, error) {
	directory, err := filepath.Abs(e.config.Output.Directory)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return directory, nil
}

// summaryLogBuffer lists the methods and events of an exported contract with their selectors and topics.
func summaryLogBuffer(contractName string, summary abiutils.ABISummary) *logging.LogBuffer {
	buffer := logging.NewLogBuffer()
	buffer.Append("ABI of ", colors.Bold, contractName, colors.Reset, ":")
	if summary.Constructor != "" {
		buffer.Append("\n  ", summary.Constructor)
	}
	for _, method := range summary.Methods {
		buffer.Append("\n  ", colors.Cyan, method.Selector, colors.Reset, " ", method.Signature, " ", method.StateMutability)
	}
	for _, event := range summary.Events {
		buffer.Append("\n  ", colors.Magenta, event.Topic, colors.Reset, " ", event.Signature)
	}
	return buffer
}
