package types

import "sort"

// Compilation represents the artifacts of a smart contract compilation.
type Compilation struct {
	// SourcePathToArtifact maps a source path (as reported by the compiler) to the SourceArtifact produced for it.
	SourcePathToArtifact map[string]SourceArtifact
}

// NewCompilation returns a new, empty Compilation object.
func NewCompilation() *Compilation {
	// Create our compilation
	compilation := &Compilation{
		SourcePathToArtifact: make(map[string]SourceArtifact),
	}

	// Return the compilation.
	return compilation
}

// SourcePaths returns the source paths contained in this compilation, sorted lexicographically.
func (c *Compilation) SourcePaths() []string {
	sourcePaths := make([]string, 0, len(c.SourcePathToArtifact))
	for sourcePath := range c.SourcePathToArtifact {
		sourcePaths = append(sourcePaths, sourcePath)
	}
	sort.Strings(sourcePaths)
	return sourcePaths
}

// AddContract adds a compiled contract under the provided source path, creating the SourceArtifact if needed.
func (c *Compilation) AddContract(sourcePath string, contractName string, contract CompiledContract) {
	artifact, ok := c.SourcePathToArtifact[sourcePath]
	if !ok {
		artifact = SourceArtifact{Contracts: make(map[string]CompiledContract)}
	}
	if artifact.Contracts == nil {
		artifact.Contracts = make(map[string]CompiledContract)
	}
	artifact.Contracts[contractName] = contract
	c.SourcePathToArtifact[sourcePath] = artifact
}

// sortedContractNames returns the keys of the provided contract mapping, sorted lexicographically.
func sortedContractNames(contracts map[string]CompiledContract) []string {
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
