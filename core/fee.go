package core

import (
	"math/big"

	"github.com/lumenforge/execlayer/core/types"
)

// EIP-1559 constants.
const (
	// InitialBaseFee seeds the base fee for a chain's first EIP-1559 block.
	InitialBaseFee = 1_000_000_000

	// MinBaseFee is the minimum base fee the fee market will settle to.
	MinBaseFee = 7

	// ElasticityMultiplier bounds how far a block's gas used can exceed
	// its target before the next base fee adjustment saturates.
	ElasticityMultiplier = 2

	// BaseFeeChangeDenominator bounds the base fee's max per-block move
	// to 1/8 (12.5%).
	BaseFeeChangeDenominator = 8
)

// CalcBaseFee computes the base fee for the block following parent, per
// EIP-1559: unchanged at the target, otherwise moved by at most 1/8
// proportional to the distance from target, floored at MinBaseFee.
func CalcBaseFee(parent *types.Header) *big.Int {
	if parent.BaseFee == nil {
		return big.NewInt(InitialBaseFee)
	}

	target := parent.GasLimit / ElasticityMultiplier
	if parent.GasUsed == target {
		return new(big.Int).Set(parent.BaseFee)
	}

	if parent.GasUsed > target {
		delta := parent.GasUsed - target
		change := new(big.Int).Mul(parent.BaseFee, new(big.Int).SetUint64(delta))
		change.Div(change, new(big.Int).SetUint64(target))
		change.Div(change, big.NewInt(BaseFeeChangeDenominator))
		if change.Sign() == 0 {
			change.SetInt64(1)
		}
		return new(big.Int).Add(parent.BaseFee, change)
	}

	delta := target - parent.GasUsed
	change := new(big.Int).Mul(parent.BaseFee, new(big.Int).SetUint64(delta))
	change.Div(change, new(big.Int).SetUint64(target))
	change.Div(change, big.NewInt(BaseFeeChangeDenominator))

	baseFee := new(big.Int).Sub(parent.BaseFee, change)
	if baseFee.Cmp(big.NewInt(MinBaseFee)) < 0 {
		baseFee.SetInt64(MinBaseFee)
	}
	return baseFee
}
