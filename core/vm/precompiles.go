package vm

import (
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/lumenforge/execlayer/core/types"
	"github.com/lumenforge/execlayer/crypto"
)

// PrecompiledContract is the interface for native precompiled contracts.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

// errPrecompileNotImplemented marks an address in the 0x01-0x09 precompile
// range that is declared but whose cryptographic operation this host does
// not implement.
var errPrecompileNotImplemented = errors.New("precompile: not implemented")

// PrecompiledContracts is the address -> implementation table for 0x01
// through 0x09. Only ecRecover, sha256, and identity actually execute;
// the rest are declared (so IsPrecompile and gas estimation see them) and
// fail with errPrecompileNotImplemented.
var PrecompiledContracts = map[types.Address]PrecompiledContract{
	types.BytesToAddress([]byte{0x01}): &ecrecoverPrecompile{},
	types.BytesToAddress([]byte{0x02}): &sha256Precompile{},
	types.BytesToAddress([]byte{0x03}): &unimplementedPrecompile{name: "ripemd160"},
	types.BytesToAddress([]byte{0x04}): &identityPrecompile{},
	types.BytesToAddress([]byte{0x05}): &unimplementedPrecompile{name: "modexp"},
	types.BytesToAddress([]byte{0x06}): &unimplementedPrecompile{name: "bn256Add"},
	types.BytesToAddress([]byte{0x07}): &unimplementedPrecompile{name: "bn256ScalarMul"},
	types.BytesToAddress([]byte{0x08}): &unimplementedPrecompile{name: "bn256Pairing"},
	types.BytesToAddress([]byte{0x09}): &unimplementedPrecompile{name: "blake2f"},
}

// IsPrecompile reports whether addr names a precompile in the 0x01-0x09
// range, implemented or merely declared.
func IsPrecompile(addr types.Address) bool {
	_, ok := PrecompiledContracts[addr]
	return ok
}

// --- ecrecover (address 0x01) ---

type ecrecoverPrecompile struct{}

func (c *ecrecoverPrecompile) RequiredGas([]byte) uint64 { return GasEcrecover }

func (c *ecrecoverPrecompile) Run(input []byte) ([]byte, error) {
	input = padRight(input, 128)
	hash := input[0:32]
	v := input[32:64]
	r := input[64:96]
	s := input[96:128]

	// v is a 32-byte big-endian integer; must be 27 or 28.
	if !isZero(v[:31]) || (v[31] != 27 && v[31] != 28) {
		return nil, nil
	}
	rawV := v[31] - 27

	rInt := new(big.Int).SetBytes(r)
	sInt := new(big.Int).SetBytes(s)
	if !crypto.ValidateSignatureValues(rawV, rInt, sInt, true) {
		return nil, nil
	}

	sig := make([]byte, 65)
	copy(sig[:32], r)
	copy(sig[32:64], s)
	sig[64] = rawV

	pub, err := crypto.Ecrecover(hash, sig)
	if err != nil {
		return nil, nil
	}

	addr := crypto.Keccak256(pub[1:])
	result := make([]byte, 32)
	copy(result[12:], addr[12:])
	return result, nil
}

// --- sha256 (address 0x02) ---

type sha256Precompile struct{}

func (c *sha256Precompile) RequiredGas(input []byte) uint64 {
	return GasSha256Base + GasSha256Word*wordCount(len(input))
}

func (c *sha256Precompile) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

// --- identity (address 0x04) ---

type identityPrecompile struct{}

func (c *identityPrecompile) RequiredGas(input []byte) uint64 {
	return GasIdentityBase + GasIdentityWord*wordCount(len(input))
}

func (c *identityPrecompile) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

// --- declared-but-unimplemented precompiles (0x03, 0x05-0x09) ---

type unimplementedPrecompile struct{ name string }

func (c *unimplementedPrecompile) RequiredGas([]byte) uint64 { return 0 }

func (c *unimplementedPrecompile) Run([]byte) ([]byte, error) {
	return nil, errPrecompileNotImplemented
}

// --- helpers ---

func padRight(data []byte, minLen int) []byte {
	if len(data) >= minLen {
		return data
	}
	padded := make([]byte, minLen)
	copy(padded, data)
	return padded
}

func isZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}
