package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"golang.org/x/exp/slices"
)

// CompiledContract represents a single contract unit from a smart contract compilation.
type CompiledContract struct {
	// Abi describes a contract's application binary interface, a structure used to describe information needed
	// to interact with the contract such as constructor and function definitions with input/output variable
	// information, event declarations, and fallback and receive methods.
	Abi abi.ABI

	// RawAbi is the ABI exactly as the compiler emitted it. Exported artifacts are written from this value so that
	// descriptor ordering and fields the ABI parser does not model (e.g. internalType) are preserved.
	RawAbi json.RawMessage

	// InitBytecode describes the hex-encoded bytecode used to deploy a contract, without a 0x prefix. It is kept in
	// hex form because unlinked library placeholders cannot be decoded to bytes.
	InitBytecode string

	// RuntimeBytecode represents the hex-encoded bytecode to be expected once the contract has been successfully
	// deployed, without a 0x prefix. It may be empty if the compiler was not asked for it.
	RuntimeBytecode string

	// LibraryPlaceholders maps placeholder strings found in the bytecode to library names (if known).
	// When a contract has placeholders, these need to be resolved before deployment.
	LibraryPlaceholders map[string]any
}

// NewCompiledContract constructs a CompiledContract from the raw ABI and hex bytecode strings emitted by a compiler.
// The ABI may be provided either as a JSON array or as a JSON string wrapping an array (older solc releases).
func NewCompiledContract(rawAbi json.RawMessage, initBytecode string, runtimeBytecode string) (*CompiledContract, error) {
	normalizedAbi, err := NormalizeRawABI(rawAbi)
	if err != nil {
		return nil, err
	}

	// Parse the ABI so malformed descriptors are rejected before anything is exported
	contractAbi, err := abi.JSON(bytes.NewReader(normalizedAbi))
	if err != nil {
		return nil, fmt.Errorf("unable to parse contract abi: %v", err)
	}

	initBytecode = strings.TrimPrefix(strings.TrimSpace(initBytecode), "0x")
	runtimeBytecode = strings.TrimPrefix(strings.TrimSpace(runtimeBytecode), "0x")

	return &CompiledContract{
		Abi:                 contractAbi,
		RawAbi:              normalizedAbi,
		InitBytecode:        initBytecode,
		RuntimeBytecode:     runtimeBytecode,
		LibraryPlaceholders: ParseBytecodeForPlaceholders(initBytecode),
	}, nil
}

// NormalizeRawABI returns the ABI JSON array contained in the provided message. solc emits the ABI as an array since
// 0.8.10 and as a string-encoded array before that.
func NormalizeRawABI(rawAbi json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(rawAbi)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("compiler output did not contain an abi")
	}

	// Unwrap a string-encoded ABI
	if trimmed[0] == '"' {
		var abiString string
		if err := json.Unmarshal(trimmed, &abiString); err != nil {
			return nil, fmt.Errorf("unable to decode string-encoded abi: %v", err)
		}
		trimmed = bytes.TrimSpace([]byte(abiString))
	}

	// The ABI must be an array of descriptors
	if len(trimmed) == 0 || trimmed[0] != '[' || !json.Valid(trimmed) {
		return nil, fmt.Errorf("compiler output contained an abi that is not a JSON array")
	}
	return json.RawMessage(slices.Clone(trimmed)), nil
}

// IsDeployable indicates whether the contract has creation bytecode. Interfaces and abstract contracts compile to
// empty bytecode.
func (c *CompiledContract) IsDeployable() bool {
	return len(c.InitBytecode) > 0
}

// HasUnlinkedLibraries indicates whether the init bytecode still contains library placeholders.
func (c *CompiledContract) HasUnlinkedLibraries() bool {
	return len(c.LibraryPlaceholders) > 0
}

// UnlinkedLibraries returns the sorted list of library placeholders that still need to be linked.
func (c *CompiledContract) UnlinkedLibraries() []string {
	placeholders := make([]string, 0, len(c.LibraryPlaceholders))
	for placeholder := range c.LibraryPlaceholders {
		placeholders = append(placeholders, placeholder)
	}
	sort.Strings(placeholders)
	return placeholders
}

// InitBytecodeBytes decodes the init bytecode. Returns an error if the bytecode still contains library placeholders.
func (c *CompiledContract) InitBytecodeBytes() ([]byte, error) {
	if c.HasUnlinkedLibraries() {
		return nil, fmt.Errorf("init bytecode contains unlinked libraries: %s", strings.Join(c.UnlinkedLibraries(), ", "))
	}
	return hex.DecodeString(c.InitBytecode)
}

// RuntimeBytecodeBytes decodes the runtime bytecode. Returns an error if the bytecode could not be decoded.
func (c *CompiledContract) RuntimeBytecodeBytes() ([]byte, error) {
	return hex.DecodeString(c.RuntimeBytecode)
}

// Metadata extracts the CBOR contract metadata the compiler appended to the runtime bytecode, falling back to the init
// bytecode. Returns nil if no metadata could be found.
func (c *CompiledContract) Metadata() *ContractMetadata {
	if runtimeBytecode, err := c.RuntimeBytecodeBytes(); err == nil && len(runtimeBytecode) > 0 {
		if metadata := ExtractContractMetadata(runtimeBytecode); metadata != nil {
			return metadata
		}
	}
	if initBytecode, err := c.InitBytecodeBytes(); err == nil {
		return ExtractContractMetadata(initBytecode)
	}
	return nil
}

// GetDeploymentMessageData is a helper method used create contract deployment message data for the given contract.
// This data can be set in transaction/message structs "data" field to indicate the packed init bytecode and constructor
// argument data to use.
func (c *CompiledContract) GetDeploymentMessageData(args []any) ([]byte, error) {
	initBytecode, err := c.InitBytecodeBytes()
	if err != nil {
		return nil, err
	}

	// ABI encode constructor arguments and append them to the end of the bytecode
	initBytecodeWithArgs := slices.Clone(initBytecode)
	if len(c.Abi.Constructor.Inputs) != len(args) {
		return nil, fmt.Errorf("constructor expects %d argument(s) but %d were provided", len(c.Abi.Constructor.Inputs), len(args))
	}
	if len(c.Abi.Constructor.Inputs) > 0 {
		data, err := c.Abi.Pack("", args...)
		if err != nil {
			return nil, fmt.Errorf("could not encode constructor arguments due to error: %v", err)
		}
		initBytecodeWithArgs = append(initBytecodeWithArgs, data...)
	}
	return initBytecodeWithArgs, nil
}

// ParseBytecodeForPlaceholders analyzes the given bytecode string to identify and extract all library placeholder
// patterns embedded within it. Placeholders follow the format "__$<placeholder>$__" or "__<identifier>__".
// Returns a map keyed by the placeholder identifiers with nil values (library names are populated when known).
func ParseBytecodeForPlaceholders(bytecode string) map[string]any {
	// Identify all library placeholder substrings
	exp := regexp.MustCompile(`__(\$[0-9a-zA-Z]*\$|\w*)__`)
	substrings := exp.FindAllString(bytecode, -1)

	substringSet := make(map[string]any, 0)

	// If we have no matches, then no linking is required, so return an empty set
	if substrings == nil {
		return substringSet
	}

	// Identify all unique library substrings
	for _, substring := range substrings {
		// Strip all `_` and `$` from the substring
		substring = strings.ReplaceAll(strings.ReplaceAll(substring, "_", ""), "$", "")

		// Only add it to the set if it is not already in it
		if _, exists := substringSet[substring]; !exists {
			substringSet[substring] = nil
		}
	}

	return substringSet
}
