package core

import (
	"math/big"
	"testing"

	"github.com/lumenforge/execlayer/core/types"
)

func TestCalcBaseFeeInitial(t *testing.T) {
	parent := &types.Header{GasLimit: 30_000_000, GasUsed: 15_000_000}
	got := CalcBaseFee(parent)
	if got.Cmp(big.NewInt(InitialBaseFee)) != 0 {
		t.Errorf("CalcBaseFee = %s, want %d", got, InitialBaseFee)
	}
}

func TestCalcBaseFeeAtTarget(t *testing.T) {
	parent := &types.Header{
		GasLimit: 30_000_000,
		GasUsed:  15_000_000,
		BaseFee:  big.NewInt(1_000_000_000),
	}
	got := CalcBaseFee(parent)
	if got.Cmp(parent.BaseFee) != 0 {
		t.Errorf("CalcBaseFee at target = %s, want unchanged %s", got, parent.BaseFee)
	}
}

func TestCalcBaseFeeAboveTarget(t *testing.T) {
	parent := &types.Header{
		GasLimit: 30_000_000,
		GasUsed:  30_000_000, // full block, double the target
		BaseFee:  big.NewInt(1_000_000_000),
	}
	got := CalcBaseFee(parent)
	if got.Cmp(parent.BaseFee) <= 0 {
		t.Errorf("CalcBaseFee above target = %s, want > %s", got, parent.BaseFee)
	}
	// Max per-block move is 12.5%.
	maxExpected := new(big.Int).Add(parent.BaseFee, new(big.Int).Div(parent.BaseFee, big.NewInt(8)))
	if got.Cmp(maxExpected) > 0 {
		t.Errorf("CalcBaseFee = %s, exceeds max single-block increase %s", got, maxExpected)
	}
}

func TestCalcBaseFeeBelowTarget(t *testing.T) {
	parent := &types.Header{
		GasLimit: 30_000_000,
		GasUsed:  0,
		BaseFee:  big.NewInt(1_000_000_000),
	}
	got := CalcBaseFee(parent)
	if got.Cmp(parent.BaseFee) >= 0 {
		t.Errorf("CalcBaseFee below target = %s, want < %s", got, parent.BaseFee)
	}
}

func TestCalcBaseFeeFloor(t *testing.T) {
	parent := &types.Header{
		GasLimit: 30_000_000,
		GasUsed:  0,
		BaseFee:  big.NewInt(MinBaseFee),
	}
	got := CalcBaseFee(parent)
	if got.Cmp(big.NewInt(MinBaseFee)) != 0 {
		t.Errorf("CalcBaseFee floor = %s, want %d", got, MinBaseFee)
	}
}
