package types

// SourceArtifact represents a source descriptor for a smart contract compilation, including the AST (when requested)
// and contained CompiledContract instances.
type SourceArtifact struct {
	// Ast describes the abstract syntax tree artifact of a source file compilation, if the compiler was asked for it.
	Ast any

	// Contracts describes a mapping of contract names to contract definition structures which are contained within
	// the source.
	Contracts map[string]CompiledContract
}
