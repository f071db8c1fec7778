package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor"
	"github.com/mr-tron/base58"
)

// ContractMetadata is an CBOR-encoded structure describing contract information which is embedded within smart contract
// bytecode by the Solidity compiler (unless explicitly directed not to).
// Reference: https://docs.soliditylang.org/en/v0.8.19/metadata.html
type ContractMetadata map[string]any

// metadataHashPrefixes defines patterns to use in search for CBOR-encoded contract metadata appended to the end of
// bytecode.
var metadataHashPrefixes = [][]byte{
	{0xa1, 0x65, 98, 122, 122, 114, 48, 0x58, 0x20},  // a1 65 "bzzr0" 0x58 0x20 (solc <= 0.5.8)
	{0xa2, 0x65, 98, 122, 122, 114, 48, 0x58, 0x20},  // a2 65 "bzzr0" 0x58 0x20 (solc >= 0.5.9)
	{0xa2, 0x65, 98, 122, 122, 114, 49, 0x58, 0x20},  // a2 65 "bzzr1" 0x58 0x20 (solc >= 0.5.11)
	{0xa2, 0x64, 0x69, 0x70, 0x66, 0x73, 0x58, 0x22}, // a2 64 "ipfs" 0x58 0x22 (solc >= 0.6.0)
}

// byteCodeHashMetadataKeys defines the keys in the CBOR-encoded ContractMetadata which contain bytecode hashes.
var byteCodeHashMetadataKeys = [...]string{
	"bzzr0",
	"bzzr1",
	"ipfs",
}

// ExtractContractMetadata extracts contract metadata from provided byte code and returns it. If contract metadata
// could not be extracted, nil is returned.
func ExtractContractMetadata(bytecode []byte) *ContractMetadata {
	// Try matching each metadata hash prefix in the file. Metadata is appended to the end of the file.
	for _, metadataHashPrefix := range metadataHashPrefixes {
		metadataOffset := bytes.LastIndex(bytecode, metadataHashPrefix)

		// If we found a match, decode the embedded metadata and return it.
		if metadataOffset != -1 {
			var metadata ContractMetadata
			err := cbor.Unmarshal(metadataSlice(bytecode, metadataOffset), &metadata)
			if err != nil {
				continue
			}
			return &metadata
		}
	}
	return nil
}

// metadataSlice returns the CBOR data starting at offset. solc follows the CBOR data with its length as a two byte
// big-endian integer, which is excluded when it matches.
func metadataSlice(bytecode []byte, offset int) []byte {
	if len(bytecode) >= offset+2 {
		length := int(binary.BigEndian.Uint16(bytecode[len(bytecode)-2:]))
		if offset+length+2 == len(bytecode) {
			return bytecode[offset : offset+length]
		}
	}
	return bytecode[offset:]
}

// ExtractBytecodeHash extracts the bytecode hash from given contract metadata and returns the bytes representing the
// hash. If it could not be detected or extracted, nil is returned.
func (m ContractMetadata) ExtractBytecodeHash() []byte {
	// Try every known metadata key to see if we can resolve the bytecode hash
	for _, possibleMetadataKey := range byteCodeHashMetadataKeys {
		if bytecodeHashData, keyExists := m[possibleMetadataKey]; keyExists {
			// Try to cast it to a byte array and return it if we succeeded.
			if bytecodeHash, ok := bytecodeHashData.([]byte); ok {
				return bytecodeHash
			}
		}
	}
	return nil
}

// ExtractCompilerVersion returns the solc version recorded in the metadata (e.g. "0.8.19"), or an empty string if the
// compiler did not record one. Release builds store the version as three raw bytes.
func (m ContractMetadata) ExtractCompilerVersion() string {
	versionData, ok := m["solc"]
	if !ok {
		return ""
	}
	switch v := versionData.(type) {
	case []byte:
		if len(v) == 3 {
			return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
		}
	case string:
		// Pre-release builds store the full version string
		return v
	}
	return ""
}

// ExtractIPFSHash returns the base58-encoded IPFS multihash of the contract's metadata file, or an empty string if
// the metadata does not reference IPFS.
func (m ContractMetadata) ExtractIPFSHash() string {
	if hash, ok := m["ipfs"].([]byte); ok && len(hash) > 0 {
		return base58.Encode(hash)
	}
	return ""
}
