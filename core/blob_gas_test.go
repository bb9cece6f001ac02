package core

import "testing"

func TestCalcExcessBlobGasBelowTarget(t *testing.T) {
	got := CalcExcessBlobGas(0, GasPerBlob)
	if got != 0 {
		t.Errorf("CalcExcessBlobGas = %d, want 0", got)
	}
}

func TestCalcExcessBlobGasAboveTarget(t *testing.T) {
	parentExcess := uint64(0)
	parentUsed := uint64(TargetBlobGasPerBlock + GasPerBlob)
	got := CalcExcessBlobGas(parentExcess, parentUsed)
	want := parentUsed - TargetBlobGasPerBlock
	if got != want {
		t.Errorf("CalcExcessBlobGas = %d, want %d", got, want)
	}
}

func TestCalcBlobBaseFeeFloor(t *testing.T) {
	got := CalcBlobBaseFee(0)
	if got.Uint64() != MinBaseFeePerBlobGas {
		t.Errorf("CalcBlobBaseFee(0) = %s, want %d", got, MinBaseFeePerBlobGas)
	}
}

func TestCalcBlobBaseFeeIncreasesWithExcess(t *testing.T) {
	low := CalcBlobBaseFee(GasPerBlob)
	high := CalcBlobBaseFee(GasPerBlob * 100)
	if high.Cmp(low) <= 0 {
		t.Errorf("CalcBlobBaseFee not monotonic: low=%s high=%s", low, high)
	}
}
