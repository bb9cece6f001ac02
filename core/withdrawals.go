package core

import (
	"math/big"

	"github.com/lumenforge/execlayer/core/state"
	"github.com/lumenforge/execlayer/core/types"
)

// gweiToWei is the conversion factor for EIP-4895 withdrawal amounts,
// which are carried in Gwei but credited in Wei.
var gweiToWei = big.NewInt(1_000_000_000)

// ProcessWithdrawals validates and applies a block's beacon-chain
// withdrawals, crediting each address with its total withdrawal amount
// converted from Gwei to Wei. Withdrawals do not consume gas.
func ProcessWithdrawals(statedb state.StateDB, withdrawals []*types.Withdrawal) error {
	credits, err := types.ProcessWithdrawals(withdrawals)
	if err != nil {
		return err
	}
	for addr, gwei := range credits {
		amount := new(big.Int).SetUint64(gwei)
		amount.Mul(amount, gweiToWei)
		statedb.AddBalance(addr, amount)
	}
	return nil
}
