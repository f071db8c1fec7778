package cmd

// SourceFlagDescription describes the --source flag
const SourceFlagDescription = "path to a Solidity source file to compile instead of the built-in ERC-20 token"

// ProviderFlagDescription describes the --provider flag
const ProviderFlagDescription = "toolchain provider used to install and select solc (binaries, solc-select, system)"

// CacheDirFlagDescription describes the --cache-dir flag
const CacheDirFlagDescription = "directory the binaries provider stores solc builds in"
