package models

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is a compiled contract ready for deployment
type Artifact struct {
	ContractName    string
	Path            string // artifact file the bytecode was read from
	ABI             abi.ABI
	RawABI          json.RawMessage
	Bytecode        []byte
	BytecodeHash    string // keccak256 of the creation bytecode
	CompilerVersion string
}

// AccountInfo describes the signing account configured for a network
type AccountInfo struct {
	Network string
	ChainID uint64
	Address string
	Balance *big.Int
	// BalanceErr is set when the balance could not be fetched; the address
	// is derived offline and stays valid.
	BalanceErr string
}
