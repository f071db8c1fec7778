// Package contracts holds the Solidity sources compiled when no other source is configured.
package contracts

import _ "embed"

// ERC20Source is the source of the RifsToken ERC-20 contract ("Sponge Token", SPG, 18 decimals). Its constructor takes
// the initial supply, which is minted to the deployer.
//
//go:embed erc20.sol
var ERC20Source string

// ERC20ContractName is the name of the contract declared in ERC20Source.
const ERC20ContractName = "RifsToken"
