package vm

import (
	"errors"
	"math/big"

	"github.com/lumenforge/execlayer/core/state"
	"github.com/lumenforge/execlayer/core/types"
)

var (
	ErrOutOfGas             = errors.New("out of gas")
	ErrExecutionReverted    = errors.New("execution reverted")
	ErrMaxCallDepthExceeded = errors.New("max call depth exceeded")
	ErrInsufficientBalance  = errors.New("insufficient balance for call value")
	ErrExecutionFailed      = errors.New("execution failed")
)

// MaxCallDepth is the protocol call-depth cap (every nested CALL/CREATE
// increases depth by one; depth 0 is the top-level transaction frame).
const MaxCallDepth = 1024

// GetHashFunc returns the hash of a recent ancestor block by number, for
// the BLOCKHASH opcode.
type GetHashFunc func(uint64) types.Hash

// BlockContext carries the block-level values the host needs but does not
// own (coinbase, gas limit, base fee, ...).
type BlockContext struct {
	GetHash     GetHashFunc
	Coinbase    types.Address
	BlockNumber *big.Int
	Time        uint64
	GasLimit    uint64
	BaseFee     *big.Int
	PrevRandao  types.Hash
}

// TxContext carries the transaction-level values visible to ORIGIN and
// GASPRICE.
type TxContext struct {
	Origin   types.Address
	GasPrice *big.Int
}

// EVM is the execution-machine host: it owns no state itself, only the
// read-only block/tx context and a handle to the world state, and drives
// checkpointed call/create frames against it.
type EVM struct {
	BlockContext
	TxContext
	StateDB state.StateDB
	depth   int
}

// NewEVM constructs an EVM host bound to the given contexts and state.
func NewEVM(blockCtx BlockContext, txCtx TxContext, db state.StateDB) *EVM {
	return &EVM{BlockContext: blockCtx, TxContext: txCtx, StateDB: db}
}

// Depth returns the current call depth (0 at the top-level frame).
func (evm *EVM) Depth() int { return evm.depth }

// CallResult is the outcome of a Call or Create: remaining gas, return
// data, and an error if the frame reverted or failed.
type CallResult struct {
	ReturnData []byte
	GasLeft    uint64
	Err        error
}

// Call invokes the code at addr with the given input and value, under a
// fresh checkpoint. The call-depth and caller-balance checks run before the
// checkpoint is taken and return all supplied gas on failure. After that, any
// error rolls the checkpoint back; a revert (ErrExecutionReverted) keeps the
// unused gas, and other failures consume all gas supplied to the callee.
func (evm *EVM) Call(caller types.Address, addr types.Address, input []byte, gas uint64, value *big.Int) CallResult {
	if evm.depth > MaxCallDepth {
		return CallResult{GasLeft: gas, Err: ErrMaxCallDepthExceeded}
	}
	if value != nil && value.Sign() > 0 {
		if evm.StateDB.GetBalance(caller).Cmp(value) < 0 {
			return CallResult{GasLeft: gas, Err: ErrInsufficientBalance}
		}
	}

	snapshot := evm.StateDB.Snapshot()

	if !evm.StateDB.Exist(addr) {
		evm.StateDB.CreateAccount(addr)
	}
	if value != nil && value.Sign() > 0 {
		evm.StateDB.SubBalance(caller, value)
		evm.StateDB.AddBalance(addr, value)
	}

	out, remaining, err := evm.runPrecompileOrCode(addr, input, gas)
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err == ErrExecutionReverted {
			return CallResult{ReturnData: out, GasLeft: remaining, Err: err}
		}
		return CallResult{GasLeft: 0, Err: err}
	}
	return CallResult{ReturnData: out, GasLeft: remaining}
}

// runPrecompileOrCode dispatches to a precompile if addr names one. Plain
// accounts with no code and no matching precompile succeed trivially,
// consuming no gas; an account with code fails with ErrExecutionFailed, as
// there is no opcode interpreter.
func (evm *EVM) runPrecompileOrCode(addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if p, ok := PrecompiledContracts[addr]; ok {
		cost := p.RequiredGas(input)
		if gas < cost {
			return nil, 0, ErrOutOfGas
		}
		out, err := p.Run(input)
		if err != nil {
			return nil, 0, err
		}
		return out, gas - cost, nil
	}
	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}
	// Full opcode dispatch is out of scope for this host; a contract with
	// code that isn't a recognized precompile is reported as a failed
	// execution rather than silently succeeding.
	return nil, 0, ErrExecutionFailed
}

// Create executes a contract-creation call: it derives the new contract
// address from the caller's current nonce and installs the given code there
// directly; init code is not executed and no checkpoint is taken.
func (evm *EVM) Create(caller types.Address, code []byte, gas uint64, value *big.Int) (types.Address, CallResult) {
	nonce := evm.StateDB.GetNonce(caller)
	addr := ContractAddress(caller, nonce)
	return addr, evm.createAt(caller, addr, code, gas, value)
}

// Create2 executes EIP-1014 deterministic contract creation.
func (evm *EVM) Create2(caller types.Address, code []byte, salt types.Hash, gas uint64, value *big.Int) (types.Address, CallResult) {
	addr := ContractAddress2(caller, salt, code)
	return addr, evm.createAt(caller, addr, code, gas, value)
}

func (evm *EVM) createAt(caller, addr types.Address, code []byte, gas uint64, value *big.Int) CallResult {
	if evm.depth > MaxCallDepth {
		return CallResult{GasLeft: gas, Err: ErrMaxCallDepthExceeded}
	}
	if evm.StateDB.GetCodeSize(addr) > 0 || evm.StateDB.GetNonce(addr) > 0 {
		return CallResult{GasLeft: 0, Err: ErrExecutionFailed}
	}
	if value != nil && value.Sign() > 0 && evm.StateDB.GetBalance(caller).Cmp(value) < 0 {
		return CallResult{GasLeft: gas, Err: ErrInsufficientBalance}
	}

	evm.StateDB.CreateAccount(addr)
	evm.StateDB.SetNonce(addr, 1)
	if value != nil && value.Sign() > 0 {
		evm.StateDB.SubBalance(caller, value)
		evm.StateDB.AddBalance(addr, value)
	}

	// Running init code through the opcode interpreter is out of scope;
	// the host installs the provided code directly, charging only the
	// flat per-word deployment-time cost the caller already reserved.
	evm.StateDB.SetCode(addr, code)
	return CallResult{GasLeft: gas}
}

// ContractAddress derives the address of a contract created via CREATE:
// keccak256(rlp([sender, nonce]))[12:].
func ContractAddress(sender types.Address, nonce uint64) types.Address {
	return contractAddressFromRLP(sender, nonce)
}

// ContractAddress2 derives the address of a contract created via CREATE2:
// keccak256(0xff || sender || salt || keccak256(init_code))[12:].
func ContractAddress2(sender types.Address, salt types.Hash, initCode []byte) types.Address {
	return contractAddress2(sender, salt, initCode)
}
