// state_transition.go implements the execution-layer state transition
// function. It orchestrates block-level execution: validating
// transactions, applying them against the state, computing gas accounting
// (EIP-1559 base fee burning), and performing post-block validation.
package core

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/lumenforge/execlayer/core/state"
	"github.com/lumenforge/execlayer/core/types"
)

// State transition errors.
var (
	ErrSTStateRootMismatch   = errors.New("post-state root mismatch")
	ErrSTReceiptRootMismatch = errors.New("receipt root mismatch")
	ErrSTBloomMismatch       = errors.New("logs bloom mismatch")
	ErrSTGasUsedMismatch     = errors.New("gas used mismatch")
	ErrSTInvalidSender       = errors.New("transaction sender not set")
)

// StateTransition manages the execution of a block against the world
// state. It validates transactions, executes them sequentially, and
// applies post-block operations (withdrawals, state root validation).
// All public methods are thread-safe.
type StateTransition struct {
	mu     sync.Mutex
	config *ChainConfig
}

// NewStateTransition creates a new StateTransition with the given chain config.
func NewStateTransition(config *ChainConfig) *StateTransition {
	return &StateTransition{config: config}
}

// TransitionResult holds the outputs of a block state transition.
type TransitionResult struct {
	Receipts    []*types.Receipt
	GasUsed     uint64
	BlobGasUsed uint64
	LogsBloom   types.Bloom
	StateRoot   types.Hash
}

// ApplyBlock executes all transactions in the block against the given
// state and returns the collected receipts, performing full transaction
// validation, gas accounting, EIP-1559 base fee burning, and withdrawal
// processing.
func (st *StateTransition) ApplyBlock(block *types.Block, statedb state.StateDB) (*TransitionResult, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	header := block.Header()
	txs := block.Transactions()

	if header.BaseFee == nil {
		return nil, ErrInvalidBaseFee
	}

	gasPool := new(GasPool).AddGas(header.GasLimit)

	var (
		receipts          []*types.Receipt
		cumulativeGasUsed uint64
	)

	for i, tx := range txs {
		if err := ValidateTransaction(tx, statedb, header, st.config); err != nil {
			return nil, fmt.Errorf("tx %d validation failed: %w", i, err)
		}

		statedb.SetTxContext(tx.Hash(), i)

		receipt, usedGas, err := applyTransaction(st.config, statedb, header, tx, gasPool)
		if err != nil {
			return nil, fmt.Errorf("tx %d [%s] execution failed: %w", i, tx.Hash().Hex(), err)
		}

		cumulativeGasUsed += usedGas
		receipt.CumulativeGasUsed = cumulativeGasUsed
		receipt.TransactionIndex = uint(i)
		receipt.BlockHash = block.Hash()
		receipt.BlockNumber = new(big.Int).Set(header.Number)

		for _, log := range receipt.Logs {
			log.BlockNumber = header.Number.Uint64()
			log.BlockHash = block.Hash()
		}

		receipts = append(receipts, receipt)
	}

	var logIdx uint
	for _, r := range receipts {
		for _, l := range r.Logs {
			l.Index = logIdx
			logIdx++
		}
	}

	if st.config != nil && st.config.IsShanghai(header.Time) {
		if err := ProcessWithdrawals(statedb, block.Withdrawals()); err != nil {
			return nil, fmt.Errorf("processing withdrawals: %w", err)
		}
	}

	var blobGasUsed uint64
	if header.BlobGasUsed != nil {
		blobGasUsed = *header.BlobGasUsed
	}

	bloom := types.CreateBloom(receipts)

	stateRoot, err := statedb.Commit()
	if err != nil {
		return nil, fmt.Errorf("state commit failed: %w", err)
	}

	return &TransitionResult{
		Receipts:    receipts,
		GasUsed:     cumulativeGasUsed,
		BlobGasUsed: blobGasUsed,
		LogsBloom:   bloom,
		StateRoot:   stateRoot,
	}, nil
}

// ValidateTransaction performs full validation of a transaction against
// the current state and block header: nonce, balance, gas limits,
// intrinsic gas, and EIP-1559 fee caps.
func ValidateTransaction(tx *types.Transaction, statedb state.StateDB, header *types.Header, config *ChainConfig) error {
	sender := tx.Sender()
	if sender == nil {
		return ErrSTInvalidSender
	}
	from := *sender

	stateNonce := statedb.GetNonce(from)
	if tx.Nonce() < stateNonce {
		logger.Warn("rejecting tx: nonce too low", "hash", tx.Hash(), "tx_nonce", tx.Nonce(), "state_nonce", stateNonce)
		return fmt.Errorf("%w: tx %d, state %d", ErrNonceTooLow, tx.Nonce(), stateNonce)
	}
	if tx.Nonce() > stateNonce {
		logger.Warn("rejecting tx: nonce too high", "hash", tx.Hash(), "tx_nonce", tx.Nonce(), "state_nonce", stateNonce)
		return fmt.Errorf("%w: tx %d, state %d", ErrNonceTooHigh, tx.Nonce(), stateNonce)
	}

	if tx.Gas() > header.GasLimit {
		logger.Warn("rejecting tx: gas limit exceeds block limit", "hash", tx.Hash(), "tx_gas", tx.Gas(), "block_limit", header.GasLimit)
		return fmt.Errorf("%w: tx gas %d > block limit %d",
			ErrGasLimitExceeded, tx.Gas(), header.GasLimit)
	}

	igas := txIntrinsicGas(tx)
	if tx.Gas() < igas {
		logger.Warn("rejecting tx: intrinsic gas too low", "hash", tx.Hash(), "tx_gas", tx.Gas(), "intrinsic_gas", igas)
		return fmt.Errorf("%w: have %d, want %d",
			ErrIntrinsicGasTooLow, tx.Gas(), igas)
	}

	if header.BaseFee != nil && header.BaseFee.Sign() > 0 {
		feeCap := tx.GasFeeCap()
		if feeCap != nil && feeCap.Cmp(header.BaseFee) < 0 {
			logger.Warn("rejecting tx: fee cap below base fee", "hash", tx.Hash(), "fee_cap", feeCap, "base_fee", header.BaseFee)
			return fmt.Errorf("max fee per gas (%s) < base fee (%s)",
				feeCap.String(), header.BaseFee.String())
		}
	}

	cost := TxCost(tx, header.BaseFee)
	balance := statedb.GetBalance(from)
	if balance.Cmp(cost) < 0 {
		logger.Warn("rejecting tx: insufficient balance", "hash", tx.Hash(), "have", balance, "want", cost)
		return fmt.Errorf("%w: have %s, want %s",
			ErrInsufficientBalance, balance.String(), cost.String())
	}

	if tx.To() == nil && len(tx.Data()) > 49152 {
		logger.Warn("rejecting tx: init code size exceeds limit", "hash", tx.Hash(), "size", len(tx.Data()))
		return fmt.Errorf("init code size %d exceeds limit", len(tx.Data()))
	}

	return nil
}

// txIntrinsicGas computes the base gas cost of a transaction before
// execution, accounting for transaction type, data costs, and access
// list entries.
func txIntrinsicGas(tx *types.Transaction) uint64 {
	return intrinsicGas(tx.Data(), tx.To() == nil, tx.AccessList())
}

// TxCost computes the maximum cost a transaction can incur: value
// transfer plus gas cost at the fee cap (or gas price for legacy
// transactions).
func TxCost(tx *types.Transaction, baseFee *big.Int) *big.Int {
	cost := new(big.Int)
	if tx.Value() != nil {
		cost.Set(tx.Value())
	}
	gasPrice := tx.GasFeeCap()
	if gasPrice == nil {
		gasPrice = tx.GasPrice()
	}
	if gasPrice == nil {
		gasPrice = new(big.Int)
	}
	gasCost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(tx.Gas()))
	cost.Add(cost, gasCost)
	return cost
}

// EffectiveGasPrice computes the actual gas price paid per EIP-1559. For
// legacy transactions it returns GasPrice. For EIP-1559 transactions it
// returns min(GasFeeCap, BaseFee + GasTipCap).
func EffectiveGasPrice(tx *types.Transaction, baseFee *big.Int) *big.Int {
	if baseFee == nil || baseFee.Sign() <= 0 {
		p := tx.GasPrice()
		if p == nil {
			return new(big.Int)
		}
		return new(big.Int).Set(p)
	}
	tip := tx.GasTipCap()
	if tip == nil {
		tip = new(big.Int)
	}
	feeCap := tx.GasFeeCap()
	if feeCap == nil {
		return new(big.Int).Set(baseFee)
	}
	effective := new(big.Int).Add(baseFee, tip)
	if effective.Cmp(feeCap) > 0 {
		effective.Set(feeCap)
	}
	return effective
}

// ValidatePostBlock checks that the block header fields match the
// computed values from execution: state root, gas used, and logs bloom.
func ValidatePostBlock(header *types.Header, result *TransitionResult) error {
	if header.GasUsed != result.GasUsed {
		logger.Error("post-block validation failed: gas used mismatch", "header", header.GasUsed, "computed", result.GasUsed)
		return fmt.Errorf("%w: header %d, computed %d",
			ErrSTGasUsedMismatch, header.GasUsed, result.GasUsed)
	}
	if header.Root != result.StateRoot {
		logger.Error("post-block validation failed: state root mismatch", "header", header.Root.Hex(), "computed", result.StateRoot.Hex())
		return fmt.Errorf("%w: header %s, computed %s",
			ErrSTStateRootMismatch, header.Root.Hex(), result.StateRoot.Hex())
	}
	if header.Bloom != result.LogsBloom {
		logger.Error("post-block validation failed: logs bloom mismatch")
		return ErrSTBloomMismatch
	}
	return nil
}

// NextBlockBaseFee computes the EIP-1559 base fee for the next block
// given the parent header.
func NextBlockBaseFee(parent *types.Header) *big.Int {
	return CalcBaseFee(parent)
}

// NextExcessBlobGas computes the excess blob gas for the next block from
// the parent's fields, per EIP-4844's carry-forward rule: parent excess
// plus parent blob gas used, minus the per-block target, floored at zero.
func NextExcessBlobGas(parentExcessBlobGas, parentBlobGasUsed uint64) uint64 {
	return CalcExcessBlobGas(parentExcessBlobGas, parentBlobGasUsed)
}
