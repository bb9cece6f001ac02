package core

import "math/big"

// EIP-4844 blob gas constants.
const (
	// GasPerBlob is the gas consumed by each blob (2^17).
	GasPerBlob = 131072

	// TargetBlobGasPerBlock is the per-block target blob gas the base fee
	// adjustment mechanism steers toward.
	TargetBlobGasPerBlock = 393216

	// MaxBlobGasPerBlock is the maximum blob gas allowed in a single block.
	MaxBlobGasPerBlock = 786432

	// MinBaseFeePerBlobGas is the floor the blob base fee never drops below.
	MinBaseFeePerBlobGas = 1

	// BlobBaseFeeUpdateFraction controls how fast the blob base fee moves
	// in response to excess blob gas.
	BlobBaseFeeUpdateFraction = 3338477
)

// CalcExcessBlobGas computes the excess blob gas carried into the next
// block from the parent's excess and the blob gas it used.
func CalcExcessBlobGas(parentExcessBlobGas, parentBlobGasUsed uint64) uint64 {
	sum := parentExcessBlobGas + parentBlobGasUsed
	if sum < TargetBlobGasPerBlock {
		return 0
	}
	return sum - TargetBlobGasPerBlock
}

// CalcBlobBaseFee returns the blob base fee for the given excess blob
// gas: MIN_BASE_FEE_PER_BLOB_GAS * e^(excess / BLOB_BASE_FEE_UPDATE_FRACTION),
// approximated via the fake-exponential Taylor series from EIP-4844.
func CalcBlobBaseFee(excessBlobGas uint64) *big.Int {
	return fakeExponential(
		big.NewInt(MinBaseFeePerBlobGas),
		new(big.Int).SetUint64(excessBlobGas),
		big.NewInt(BlobBaseFeeUpdateFraction),
	)
}

// fakeExponential approximates factor * e^(numerator/denominator) using
// the integer Taylor expansion specified by EIP-4844.
func fakeExponential(factor, numerator, denominator *big.Int) *big.Int {
	i := big.NewInt(1)
	output := new(big.Int)
	accum := new(big.Int).Mul(factor, denominator)
	for accum.Sign() > 0 {
		output.Add(output, accum)
		accum.Mul(accum, numerator)
		accum.Div(accum, new(big.Int).Mul(denominator, i))
		i.Add(i, big.NewInt(1))
	}
	return output.Div(output, denominator)
}
