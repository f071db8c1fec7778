package export

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/common/hexutil"
	"github.com/crytic/solcexport/compilation/types"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DeploymentPayload describes the deployment payload artifact.
type DeploymentPayload struct {
	// Bytecode is the creation bytecode, exactly as written to the bytecode artifact.
	Bytecode string `json:"bytecode"`

	// ConstructorArgs are the resolved constructor arguments, with integers rendered in base 10.
	ConstructorArgs []string `json:"constructorArgs"`

	// Data is the 0x-prefixed creation bytecode followed by the ABI-encoded constructor arguments. It can be used as
	// the data of a contract creation transaction.
	Data string `json:"data"`
}

// ParseTokenAmount parses a decimal token amount (e.g. "1000000" or "1.5e6") and scales it by the given number of
// decimals. It is an error for the scaled amount to have a fractional part.
func ParseTokenAmount(amount string, decimals int32) (*big.Int, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid token amount '%s'", amount)
	}
	scaled := value.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, errors.Errorf("token amount '%s' has more than %d decimal places", amount, decimals)
	}
	return scaled.BigInt(), nil
}

// parseInteger parses an integer argument. 0x-prefixed values are read as hex and never scaled. Unsigned decimal
// values are token amounts scaled by decimals.
func parseInteger(arg string, unsigned bool, decimals int32) (*big.Int, error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "0x") || strings.HasPrefix(arg, "0X") {
		value, ok := new(big.Int).SetString(arg[2:], 16)
		if !ok {
			return nil, errors.Errorf("invalid hex integer '%s'", arg)
		}
		return value, nil
	}
	if !unsigned {
		decimals = 0
	}
	return ParseTokenAmount(arg, decimals)
}

// convertInteger range checks an integer against its ABI type and converts it to the Go type the ABI encoder expects.
func convertInteger(value *big.Int, argType abi.Type) (any, error) {
	if argType.T == abi.UintTy {
		if value.Sign() < 0 {
			return nil, errors.Errorf("value %s is negative but %s is unsigned", value, argType)
		}
		// Every unsigned type fits in 256 bits, so reject anything wider before checking the type's own size
		word, overflow := uint256.FromBig(value)
		if overflow || word.BitLen() > argType.Size {
			return nil, errors.Errorf("value %s does not fit in %s", value, argType)
		}
		switch argType.Size {
		case 8:
			return uint8(word.Uint64()), nil
		case 16:
			return uint16(word.Uint64()), nil
		case 32:
			return uint32(word.Uint64()), nil
		case 64:
			return word.Uint64(), nil
		}
		return word.ToBig(), nil
	}

	// Signed values must fit in the two's complement range of the type
	limit := new(big.Int).Lsh(big.NewInt(1), uint(argType.Size-1))
	if value.Cmp(limit) >= 0 || value.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, errors.Errorf("value %s does not fit in %s", value, argType)
	}
	switch argType.Size {
	case 8:
		return int8(value.Int64()), nil
	case 16:
		return int16(value.Int64()), nil
	case 32:
		return int32(value.Int64()), nil
	case 64:
		return value.Int64(), nil
	}
	return value, nil
}

// ParseConstructorArg converts a string argument into the Go value the ABI encoder expects for the given type.
func ParseConstructorArg(arg string, argType abi.Type, decimals int32) (any, error) {
	switch argType.T {
	case abi.UintTy, abi.IntTy:
		value, err := parseInteger(arg, argType.T == abi.UintTy, decimals)
		if err != nil {
			return nil, err
		}
		return convertInteger(value, argType)
	case abi.BoolTy:
		value, err := strconv.ParseBool(strings.TrimSpace(arg))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid bool '%s'", arg)
		}
		return value, nil
	case abi.StringTy:
		return arg, nil
	case abi.AddressTy:
		if !common.IsHexAddress(arg) {
			return nil, errors.Errorf("invalid address '%s'", arg)
		}
		return common.HexToAddress(arg), nil
	case abi.BytesTy:
		value, err := hexutil.Decode(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid bytes '%s'", arg)
		}
		return value, nil
	case abi.FixedBytesTy:
		value, err := hexutil.Decode(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s '%s'", argType, arg)
		}
		if len(value) != argType.Size {
			return nil, errors.Errorf("%s value '%s' has %d bytes", argType, arg, len(value))
		}
		// Fixed bytes are encoded from a [N]byte array
		array := reflect.New(argType.GetType()).Elem()
		reflect.Copy(array, reflect.ValueOf(value))
		return array.Interface(), nil
	}
	return nil, errors.Errorf("constructor arguments of type %s are not supported", argType)
}

// BuildDeploymentPayload parses the constructor arguments for the contract and returns its deployment payload.
func BuildDeploymentPayload(contract *types.CompiledContract, args []string, decimals int32) (*DeploymentPayload, error) {
	inputs := contract.Abi.Constructor.Inputs
	if len(inputs) != len(args) {
		return nil, errors.Errorf("constructor expects %d argument(s) but %d were configured", len(inputs), len(args))
	}

	values := make([]any, len(args))
	formatted := make([]string, len(args))
	for i, input := range inputs {
		value, err := ParseConstructorArg(args[i], input.Type, decimals)
		if err != nil {
			return nil, errors.Wrapf(err, "constructor argument %d ('%s')", i, input.Name)
		}
		values[i] = value
		formatted[i] = formatConstructorArg(value)
	}

	data, err := contract.GetDeploymentMessageData(values)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &DeploymentPayload{
		Bytecode:        contract.InitBytecode,
		ConstructorArgs: formatted,
		Data:            hexutil.Encode(data),
	}, nil
}

// formatConstructorArg renders a parsed constructor argument for the deployment payload.
func formatConstructorArg(value any) string {
	switch v := value.(type) {
	case *big.Int:
		return v.String()
	case common.Address:
		return v.Hex()
	case []byte:
		return hexutil.Encode(v)
	case string:
		return v
	}
	// Fixed bytes arrays
	reflected := reflect.ValueOf(value)
	if reflected.Kind() == reflect.Array && reflected.Type().Elem().Kind() == reflect.Uint8 {
		data := make([]byte, reflected.Len())
		reflect.Copy(reflect.ValueOf(data), reflected)
		return hexutil.Encode(data)
	}
	return fmt.Sprintf("%v", value)
}
