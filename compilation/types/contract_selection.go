package types

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNoContracts is returned when a compilation did not produce any contract that can be selected.
	ErrNoContracts = errors.New("compilation produced no contracts")

	// ErrMultipleContracts is returned when a compilation produced more than one candidate contract and no contract
	// name was provided to disambiguate.
	ErrMultipleContracts = errors.New("compilation produced more than one contract")

	// ErrContractNotFound is returned when a requested contract name is not part of the compilation.
	ErrContractNotFound = errors.New("contract not found in compilation")
)

// ContractRef describes a single contract selected out of a set of compilations.
type ContractRef struct {
	// SourcePath describes the source path the contract was compiled from.
	SourcePath string

	// Name describes the name of the contract.
	Name string

	// Contract describes the compiled contract artifacts.
	Contract CompiledContract
}

// QualifiedName returns the "<sourcePath>:<name>" identifier compilers use for the contract.
func (r ContractRef) QualifiedName() string {
	return r.SourcePath + ":" + r.Name
}

// ListContracts returns a reference to every contract in the provided compilations, ordered by source path and
// contract name.
func ListContracts(compilations []Compilation) []ContractRef {
	refs := make([]ContractRef, 0)
	for _, compilation := range compilations {
		for _, sourcePath := range compilation.SourcePaths() {
			artifact := compilation.SourcePathToArtifact[sourcePath]
			for _, name := range sortedContractNames(artifact.Contracts) {
				refs = append(refs, ContractRef{SourcePath: sourcePath, Name: name, Contract: artifact.Contracts[name]})
			}
		}
	}
	return refs
}

// SelectContract returns the single contract the caller wants out of the provided compilations.
// If contractName is non-empty, the contract with that name (or "<sourcePath>:<name>" qualified name) is returned.
// Otherwise the compilations must contain exactly one deployable contract: interfaces and abstract contracts (empty
// bytecode) are not considered candidates when at least one deployable contract exists.
func SelectContract(compilations []Compilation, contractName string) (*ContractRef, error) {
	refs := ListContracts(compilations)
	if len(refs) == 0 {
		return nil, errors.WithStack(ErrNoContracts)
	}

	// An explicit name resolves the ambiguity, so look it up directly
	if contractName != "" {
		var matches []ContractRef
		for _, ref := range refs {
			if ref.Name == contractName || ref.QualifiedName() == contractName {
				matches = append(matches, ref)
			}
		}
		switch len(matches) {
		case 0:
			return nil, errors.Wrapf(ErrContractNotFound, "contract '%s' (available: %s)", contractName, joinNames(refs))
		case 1:
			return &matches[0], nil
		default:
			return nil, errors.Wrapf(ErrMultipleContracts, "contract name '%s' is ambiguous (matches: %s)", contractName, joinNames(matches))
		}
	}

	// Otherwise prefer deployable contracts, falling back to everything if nothing is deployable
	candidates := make([]ContractRef, 0, len(refs))
	for _, ref := range refs {
		if ref.Contract.IsDeployable() {
			candidates = append(candidates, ref)
		}
	}
	if len(candidates) == 0 {
		candidates = refs
	}
	if len(candidates) > 1 {
		return nil, errors.Wrapf(ErrMultipleContracts, "%s; specify which contract to export", joinNames(candidates))
	}
	return &candidates[0], nil
}

// joinNames returns a comma separated list of the qualified names of the provided contract references.
func joinNames(refs []ContractRef) string {
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = fmt.Sprintf("'%s'", ref.QualifiedName())
	}
	return strings.Join(names, ", ")
}
