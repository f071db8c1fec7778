package export

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/solcexport/compilation/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustNewType creates an ABI type from its canonical name, failing the test on error.
func mustNewType(t *testing.T, typeName string) abi.Type {
	abiType, err := abi.NewType(typeName, "", nil)
	require.NoError(t, err)
	return abiType
}

// TestParseTokenAmount ensures decimal amounts are scaled and fractional remainders are rejected.
func TestParseTokenAmount(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int32
		expected string
	}{
		{"1000000", 18, "1000000000000000000000000"},
		{"1.5", 18, "1500000000000000000"},
		{"1.5e6", 0, "1500000"},
		{" 42 ", 0, "42"},
		{"0", 18, "0"},
	}
	for _, c := range cases {
		value, err := ParseTokenAmount(c.amount, c.decimals)
		require.NoError(t, err, c.amount)
		assert.Equal(t, c.expected, value.String(), c.amount)
	}

	_, err := ParseTokenAmount("0.5", 0)
	assert.Error(t, err)
	_, err = ParseTokenAmount("one", 18)
	assert.Error(t, err)
}

// TestParseConstructorArg ensures arguments are converted to the Go types the ABI encoder expects.
func TestParseConstructorArg(t *testing.T) {
	// Unsigned integers are scaled token amounts, hex values are not
	value, err := ParseConstructorArg("2", mustNewType(t, "uint256"), 18)
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", value.(*big.Int).String())
	value, err = ParseConstructorArg("0x00ff", mustNewType(t, "uint256"), 18)
	require.NoError(t, err)
	assert.Equal(t, int64(255), value.(*big.Int).Int64())

	// Small integer types use native Go types
	value, err = ParseConstructorArg("200", mustNewType(t, "uint8"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(200), value)
	value, err = ParseConstructorArg("-5", mustNewType(t, "int32"), 18)
	require.NoError(t, err)
	assert.Equal(t, int32(-5), value)

	// Out of range values are rejected
	for _, invalid := range []struct {
		arg      string
		typeName string
	}{
		{"256", "uint8"},
		{"-1", "uint256"},
		{"128", "int8"},
		{"0x1" + strings.Repeat("0", 64), "uint256"},
		{"true", "uint256"},
	} {
		_, err := ParseConstructorArg(invalid.arg, mustNewType(t, invalid.typeName), 0)
		assert.Error(t, err, "%s should not parse as %s", invalid.arg, invalid.typeName)
	}

	// Other supported types
	value, err = ParseConstructorArg("true", mustNewType(t, "bool"), 0)
	require.NoError(t, err)
	assert.Equal(t, true, value)
	value, err = ParseConstructorArg("RIFS", mustNewType(t, "string"), 0)
	require.NoError(t, err)
	assert.Equal(t, "RIFS", value)
	value, err = ParseConstructorArg("0x00000000000000000000000000000000000000aa", mustNewType(t, "address"), 0)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xaa"), value)
	value, err = ParseConstructorArg("0x0102", mustNewType(t, "bytes"), 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, value)
	value, err = ParseConstructorArg("0x0102", mustNewType(t, "bytes2"), 0)
	require.NoError(t, err)
	assert.Equal(t, [2]byte{1, 2}, value)
	assert.Equal(t, "0x0102", formatConstructorArg(value))

	_, err = ParseConstructorArg("0x01", mustNewType(t, "bytes2"), 0)
	assert.Error(t, err)
	_, err = ParseConstructorArg("0x1234", mustNewType(t, "address"), 0)
	assert.Error(t, err)
	_, err = ParseConstructorArg("1", mustNewType(t, "uint256[]"), 0)
	assert.Error(t, err)
}

// TestBuildDeploymentPayload ensures constructor arguments are encoded after the creation bytecode.
func TestBuildDeploymentPayload(t *testing.T) {
	rawAbi := json.RawMessage(`[{"inputs":[{"internalType":"uint256","name":"initialSupply","type":"uint256"}],"stateMutability":"nonpayable","type":"constructor"}]`)
	contract, err := types.NewCompiledContract(rawAbi, "6080604052", "")
	require.NoError(t, err)

	payload, err := BuildDeploymentPayload(contract, []string{"0x10"}, 18)
	require.NoError(t, err)
	assert.Equal(t, "6080604052", payload.Bytecode)
	assert.Equal(t, []string{"16"}, payload.ConstructorArgs)
	assert.Equal(t, "0x6080604052"+strings.Repeat("0", 62)+"10", payload.Data)

	// The argument count must match the constructor
	_, err = BuildDeploymentPayload(contract, nil, 18)
	assert.Error(t, err)

	// Unlinked libraries cannot be deployed
	linked, err := types.NewCompiledContract(rawAbi, "6080__$1f2e3d4c5b6a79880f1e2d3c4b5a6978a1$__", "")
	require.NoError(t, err)
	_, err = BuildDeploymentPayload(linked, []string{"1"}, 18)
	assert.Error(t, err)
}
