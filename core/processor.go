package core

import (
	"fmt"
	"math/big"

	"github.com/lumenforge/execlayer/core/state"
	"github.com/lumenforge/execlayer/core/types"
	"github.com/lumenforge/execlayer/core/vm"
	"github.com/lumenforge/execlayer/log"
)

// logger is the shared core package logger, used to report recoverable
// anomalies in transaction execution and block validation.
var logger = log.Default().Module("core")

// applyTransaction executes a single transaction against statedb, charges
// and refunds gas against gp, and builds the resulting receipt. The
// caller is responsible for filling in block-level receipt fields
// (CumulativeGasUsed, TransactionIndex, BlockHash, BlockNumber).
func applyTransaction(config *ChainConfig, statedb state.StateDB, header *types.Header, tx *types.Transaction, gp *GasPool) (*types.Receipt, uint64, error) {
	msg := TransactionToMessage(tx)

	snapshot := statedb.Snapshot()

	result, err := applyMessage(statedb, header, &msg, gp)
	if err != nil {
		statedb.RevertToSnapshot(snapshot)
		return nil, 0, err
	}

	var status uint64
	if result.Failed() {
		status = types.ReceiptStatusFailed
	} else {
		status = types.ReceiptStatusSuccessful
	}

	receipt := types.NewReceipt(status, result.UsedGas)
	receipt.TxHash = tx.Hash()
	receipt.GasUsed = result.UsedGas
	receipt.EffectiveGasPrice = msgEffectiveGasPrice(&msg, header.BaseFee)
	receipt.Type = tx.Type()
	if msg.To == nil {
		receipt.ContractAddress = result.ContractAddress
	}

	receipt.Logs = statedb.GetLogs(tx.Hash())
	receipt.Bloom = types.LogsBloom(receipt.Logs)

	return receipt, result.UsedGas, nil
}

// applyMessage validates a message's gas/balance preconditions, runs it
// through the execution host, and settles gas payment: refund to the
// sender, remainder to the block gas pool, tip to the coinbase.
func applyMessage(statedb state.StateDB, header *types.Header, msg *Message, gp *GasPool) (*ExecutionResult, error) {
	if err := gp.SubGas(msg.GasLimit); err != nil {
		return nil, err
	}

	stateNonce := statedb.GetNonce(msg.From)
	if msg.Nonce < stateNonce {
		gp.AddGas(msg.GasLimit)
		logger.Warn("rejecting tx: nonce too low", "from", msg.From, "tx_nonce", msg.Nonce, "state_nonce", stateNonce)
		return nil, fmt.Errorf("%w: address %v, tx nonce %d, state nonce %d", ErrNonceTooLow, msg.From, msg.Nonce, stateNonce)
	}
	if msg.Nonce > stateNonce {
		gp.AddGas(msg.GasLimit)
		logger.Warn("rejecting tx: nonce too high", "from", msg.From, "tx_nonce", msg.Nonce, "state_nonce", stateNonce)
		return nil, fmt.Errorf("%w: address %v, tx nonce %d, state nonce %d", ErrNonceTooHigh, msg.From, msg.Nonce, stateNonce)
	}

	if codeHash := statedb.GetCodeHash(msg.From); codeHash != (types.Hash{}) && codeHash != types.EmptyCodeHash {
		gp.AddGas(msg.GasLimit)
		logger.Warn("rejecting tx: sender not an EOA", "from", msg.From, "codehash", codeHash)
		return nil, fmt.Errorf("sender not an EOA: address %v, codehash %v", msg.From, codeHash)
	}

	isDynamicFeeTx := msg.TxType == types.DynamicFeeTxType
	if isDynamicFeeTx && header.BaseFee != nil && header.BaseFee.Sign() > 0 {
		if msg.GasFeeCap != nil && msg.GasTipCap != nil && msg.GasFeeCap.Cmp(msg.GasTipCap) < 0 {
			gp.AddGas(msg.GasLimit)
			logger.Warn("rejecting tx: tip exceeds fee cap", "from", msg.From, "tip", msg.GasTipCap, "cap", msg.GasFeeCap)
			return nil, fmt.Errorf("max priority fee per gas higher than max fee per gas: tip %s, cap %s", msg.GasTipCap, msg.GasFeeCap)
		}
	}

	gasPrice := msgEffectiveGasPrice(msg, header.BaseFee)
	gasCost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(msg.GasLimit))

	balanceGasCost := gasCost
	if isDynamicFeeTx && msg.GasFeeCap != nil {
		balanceGasCost = new(big.Int).Mul(msg.GasFeeCap, new(big.Int).SetUint64(msg.GasLimit))
	}
	totalCost := new(big.Int).Add(msg.Value, balanceGasCost)
	balance := statedb.GetBalance(msg.From)
	if balance.Cmp(totalCost) < 0 {
		gp.AddGas(msg.GasLimit)
		logger.Warn("rejecting tx: insufficient balance", "from", msg.From, "have", balance, "want", totalCost)
		return nil, fmt.Errorf("%w: address %v have %v want %v", ErrInsufficientBalance, msg.From, balance, totalCost)
	}

	statedb.SubBalance(msg.From, gasCost)

	isCreate := msg.To == nil
	if !isCreate {
		statedb.SetNonce(msg.From, msg.Nonce+1)
	}

	igas := intrinsicGas(msg.Data, isCreate, msg.AccessList)
	if igas > msg.GasLimit {
		gp.AddGas(msg.GasLimit)
		logger.Warn("rejecting tx: intrinsic gas too low", "from", msg.From, "gas_limit", msg.GasLimit, "intrinsic_gas", igas)
		return nil, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGasTooLow, msg.GasLimit, igas)
	}
	gasLeft := msg.GasLimit - igas

	blockCtx := vm.BlockContext{
		BlockNumber: header.Number,
		Time:        header.Time,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BaseFee:     header.BaseFee,
		PrevRandao:  header.MixDigest,
	}
	txCtx := vm.TxContext{Origin: msg.From, GasPrice: gasPrice}
	evm := vm.NewEVM(blockCtx, txCtx, statedb)

	var (
		execErr      error
		returnData   []byte
		gasRemaining uint64
		contractAddr types.Address
	)

	if isCreate {
		addr, res := evm.Create(msg.From, msg.Data, gasLeft, msg.Value)
		contractAddr = addr
		returnData, gasRemaining, execErr = res.ReturnData, res.GasLeft, res.Err
	} else {
		res := evm.Call(msg.From, *msg.To, msg.Data, gasLeft, msg.Value)
		returnData, gasRemaining, execErr = res.ReturnData, res.GasLeft, res.Err
	}

	gasUsed := igas + (gasLeft - gasRemaining)

	refund := statedb.GetRefund()
	if maxRefund := gasUsed / 5; refund > maxRefund {
		refund = maxRefund
	}
	gasUsed -= refund

	remainingGas := msg.GasLimit - gasUsed
	if remainingGas > 0 {
		statedb.AddBalance(msg.From, new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(remainingGas)))
	}
	gp.AddGas(remainingGas)

	if header.BaseFee != nil && header.BaseFee.Sign() > 0 {
		tip := new(big.Int).Sub(gasPrice, header.BaseFee)
		if tip.Sign() > 0 {
			statedb.AddBalance(header.Coinbase, new(big.Int).Mul(tip, new(big.Int).SetUint64(gasUsed)))
		}
	} else {
		statedb.AddBalance(header.Coinbase, new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasUsed)))
	}

	return &ExecutionResult{
		UsedGas:         gasUsed,
		Err:             execErr,
		ReturnData:      returnData,
		ContractAddress: contractAddr,
	}, nil
}

// msgEffectiveGasPrice computes the actual per-gas price paid: GasPrice
// for legacy/access-list messages, or min(GasFeeCap, BaseFee+GasTipCap)
// for dynamic-fee messages.
func msgEffectiveGasPrice(msg *Message, baseFee *big.Int) *big.Int {
	if msg.GasFeeCap != nil && baseFee != nil && baseFee.Sign() > 0 {
		tip := msg.GasTipCap
		if tip == nil {
			tip = new(big.Int)
		}
		effective := new(big.Int).Add(baseFee, tip)
		if effective.Cmp(msg.GasFeeCap) > 0 {
			effective.Set(msg.GasFeeCap)
		}
		return effective
	}
	if msg.GasPrice != nil {
		return new(big.Int).Set(msg.GasPrice)
	}
	return new(big.Int)
}

// intrinsicGas computes the base gas cost of a message before execution.
func intrinsicGas(data []byte, isCreate bool, accessList types.AccessList) uint64 {
	gas := TxGas
	if isCreate {
		gas += TxCreateGas
		gas += InitCodeWordGas * wordCount(len(data))
	}
	for _, b := range data {
		if b == 0 {
			gas += TxDataZeroGas
		} else {
			gas += TxDataNonZeroGas
		}
	}
	for _, tuple := range accessList {
		gas += vm.GasAccessListAddress
		gas += uint64(len(tuple.StorageKeys)) * vm.GasAccessListSlot
	}
	return gas
}

// wordCount returns the number of 32-byte words needed to hold size bytes.
func wordCount(size int) uint64 {
	if size == 0 {
		return 0
	}
	return uint64((size + 31) / 32)
}
