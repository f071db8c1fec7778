package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenAbi is a reduced token ABI used across the tests in this package.
const testTokenAbi = `[
  {"inputs":[{"internalType":"uint256","name":"initialSupply","type":"uint256"}],"stateMutability":"nonpayable","type":"constructor"},
  {"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"from","type":"address"},{"indexed":true,"internalType":"address","name":"to","type":"address"},{"indexed":false,"internalType":"uint256","name":"value","type":"uint256"}],"name":"Transfer","type":"event"},
  {"inputs":[{"internalType":"address","name":"recipient","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// newTestContract creates a CompiledContract from the test ABI and the provided bytecode, failing the test on error.
func newTestContract(t *testing.T, initBytecode string) CompiledContract {
	contract, err := NewCompiledContract(json.RawMessage(testTokenAbi), initBytecode, "")
	require.NoError(t, err)
	return *contract
}

// newTestCompilation creates a compilation holding the provided contracts under a single source path.
func newTestCompilation(sourcePath string, contracts map[string]CompiledContract) Compilation {
	compilation := NewCompilation()
	for name, contract := range contracts {
		compilation.AddContract(sourcePath, name, contract)
	}
	return *compilation
}

// TestNormalizeRawABI ensures ABIs are accepted as arrays or string-wrapped arrays and rejected otherwise.
func TestNormalizeRawABI(t *testing.T) {
	arrayAbi, err := NormalizeRawABI(json.RawMessage(testTokenAbi))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(arrayAbi, []byte("[")))

	encoded, err := json.Marshal(testTokenAbi)
	require.NoError(t, err)
	stringAbi, err := NormalizeRawABI(encoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(arrayAbi), string(stringAbi))

	for _, invalid := range []string{"", "{}", `"not json"`, "[", "null"} {
		_, err := NormalizeRawABI(json.RawMessage(invalid))
		assert.Error(t, err, "input %q should be rejected", invalid)
	}
}

// TestNewCompiledContract ensures the ABI is parsed and bytecode is normalized.
func TestNewCompiledContract(t *testing.T) {
	contract := newTestContract(t, "0x6080604052")

	assert.Equal(t, "6080604052", contract.InitBytecode)
	assert.True(t, contract.IsDeployable())
	assert.False(t, contract.HasUnlinkedLibraries())
	assert.Contains(t, contract.Abi.Methods, "transfer")
	assert.Contains(t, contract.Abi.Events, "Transfer")
	assert.Len(t, contract.Abi.Constructor.Inputs, 1)

	// Malformed descriptors are rejected
	_, err := NewCompiledContract(json.RawMessage(`[{"type":"function","name":"f","inputs":[{"type":"foo"}]}]`), "00", "")
	assert.Error(t, err)
}

// TestLibraryPlaceholders ensures placeholders are detected and block decoding of the bytecode.
func TestLibraryPlaceholders(t *testing.T) {
	contract := newTestContract(t, "6080__$1f2e3d4c5b6a79880f1e2d3c4b5a6978a1$__6080")

	assert.True(t, contract.HasUnlinkedLibraries())
	assert.Equal(t, []string{"1f2e3d4c5b6a79880f1e2d3c4b5a6978a1"}, contract.UnlinkedLibraries())

	_, err := contract.InitBytecodeBytes()
	assert.Error(t, err)
}

// TestGetDeploymentMessageData ensures constructor arguments are ABI encoded after the init bytecode.
func TestGetDeploymentMessageData(t *testing.T) {
	contract := newTestContract(t, "6080604052")

	data, err := contract.GetDeploymentMessageData([]any{big.NewInt(1000)})
	require.NoError(t, err)
	require.Len(t, data, 5+32)
	assert.Equal(t, "6080604052", hex.EncodeToString(data[:5]))
	assert.Equal(t, int64(1000), new(big.Int).SetBytes(data[5:]).Int64())

	// The argument count must match the constructor
	_, err = contract.GetDeploymentMessageData(nil)
	assert.Error(t, err)
}

// TestSelectContract verifies the exactly-one selection rules.
func TestSelectContract(t *testing.T) {
	token := newTestContract(t, "6080604052")
	other := newTestContract(t, "60806040")
	iface := newTestContract(t, "")

	// No contracts at all
	_, err := SelectContract(nil, "")
	assert.True(t, errors.Is(err, ErrNoContracts))
	_, err = SelectContract([]Compilation{*NewCompilation()}, "")
	assert.True(t, errors.Is(err, ErrNoContracts))

	// A single contract is selected without a name
	single := newTestCompilation("<stdin>", map[string]CompiledContract{"RifsToken": token})
	ref, err := SelectContract([]Compilation{single}, "")
	require.NoError(t, err)
	assert.Equal(t, "RifsToken", ref.Name)
	assert.Equal(t, "<stdin>:RifsToken", ref.QualifiedName())

	// Interfaces are ignored when a deployable contract exists
	withInterface := newTestCompilation("<stdin>", map[string]CompiledContract{"RifsToken": token, "IERC20": iface})
	ref, err = SelectContract([]Compilation{withInterface}, "")
	require.NoError(t, err)
	assert.Equal(t, "RifsToken", ref.Name)

	// Two deployable contracts are ambiguous
	ambiguous := newTestCompilation("<stdin>", map[string]CompiledContract{"RifsToken": token, "Other": other})
	_, err = SelectContract([]Compilation{ambiguous}, "")
	assert.True(t, errors.Is(err, ErrMultipleContracts))

	// A name resolves the ambiguity, qualified or not
	ref, err = SelectContract([]Compilation{ambiguous}, "Other")
	require.NoError(t, err)
	assert.Equal(t, "Other", ref.Name)
	ref, err = SelectContract([]Compilation{ambiguous}, "<stdin>:RifsToken")
	require.NoError(t, err)
	assert.Equal(t, "RifsToken", ref.Name)

	// Unknown names are reported
	_, err = SelectContract([]Compilation{ambiguous}, "Missing")
	assert.True(t, errors.Is(err, ErrContractNotFound))

	// The same name in two sources is ambiguous unless qualified
	a := newTestCompilation("a.sol", map[string]CompiledContract{"RifsToken": token})
	b := newTestCompilation("b.sol", map[string]CompiledContract{"RifsToken": other})
	_, err = SelectContract([]Compilation{a, b}, "RifsToken")
	assert.True(t, errors.Is(err, ErrMultipleContracts))
	ref, err = SelectContract([]Compilation{a, b}, "b.sol:RifsToken")
	require.NoError(t, err)
	assert.Equal(t, "60806040", ref.Contract.InitBytecode)
}

// TestExtractContractMetadata ensures the CBOR metadata trailer is decoded into compiler version and IPFS hash.
func TestExtractContractMetadata(t *testing.T) {
	// Build the trailer solc >= 0.6.0 emits: {"ipfs": <34 byte multihash>, "solc": <3 byte version>}
	multihash := append([]byte{0x12, 0x20}, bytes.Repeat([]byte{0xab}, 32)...)
	trailer := []byte{0xa2, 0x64, 'i', 'p', 'f', 's', 0x58, 0x22}
	trailer = append(trailer, multihash...)
	trailer = append(trailer, 0x64, 's', 'o', 'l', 'c', 0x43, 0x00, 0x08, 0x13)
	bytecode := append([]byte{0x60, 0x80, 0x60, 0x40, 0x52, 0xfe}, trailer...)

	metadata := ExtractContractMetadata(bytecode)
	require.NotNil(t, metadata)
	assert.Equal(t, "0.8.19", metadata.ExtractCompilerVersion())
	assert.Equal(t, multihash, metadata.ExtractBytecodeHash())
	assert.True(t, len(metadata.ExtractIPFSHash()) > 0)
	assert.Equal(t, "Qm", metadata.ExtractIPFSHash()[:2])

	// The metadata is reachable from a compiled contract's runtime bytecode too
	contract := newTestContract(t, "6080604052")
	contract.RuntimeBytecode = hex.EncodeToString(bytecode)
	require.NotNil(t, contract.Metadata())
	assert.Equal(t, "0.8.19", contract.Metadata().ExtractCompilerVersion())

	// The length suffix solc appends after the metadata is skipped
	withLength := append(append([]byte{}, bytecode...), 0x00, byte(len(trailer)))
	metadata = ExtractContractMetadata(withLength)
	require.NotNil(t, metadata)
	assert.Equal(t, "0.8.19", metadata.ExtractCompilerVersion())

	// Bytecode without metadata yields nothing
	assert.Nil(t, ExtractContractMetadata([]byte{0x60, 0x80}))
}
