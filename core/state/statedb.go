package state

import (
	"math/big"

	"github.com/lumenforge/execlayer/core/types"
)

// StateDB is an interface for managing Ethereum world state. The surface
// is deliberately narrow: this host has no opcode interpreter, so it
// exposes only the account/storage/log/refund operations the transaction
// processor and execution-result finalization actually drive.
type StateDB interface {
	// Account operations
	CreateAccount(addr types.Address)
	SubBalance(addr types.Address, amount *big.Int)
	AddBalance(addr types.Address, amount *big.Int)
	GetBalance(addr types.Address) *big.Int
	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)
	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	// Storage operations
	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key types.Hash, value types.Hash)

	// Account existence
	Exist(addr types.Address) bool

	// Snapshot and revert for tx-level atomicity
	Snapshot() int
	RevertToSnapshot(id int)

	// Logs
	AddLog(log *types.Log)
	GetLogs(txHash types.Hash) []*types.Log

	// Refund counter
	AddRefund(gas uint64)
	SubRefund(gas uint64)
	GetRefund() uint64

	// Commit
	Commit() (types.Hash, error)

	// SetTxContext records the hash and index of the transaction about to
	// run, so that subsequent AddLog calls attribute logs correctly.
	SetTxContext(txHash types.Hash, txIndex int)
}
