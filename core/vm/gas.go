package vm

// Gas cost constants for the execution-machine host. The opcode dispatcher
// itself is out of scope here; these are the costs the
// host charges directly: intrinsic gas components, the checkpointed call/
// create path, and the three precompiles the host actually runs.
const (
	GasTxBase      uint64 = 21000 // base intrinsic gas for a call transaction
	GasTxCreate    uint64 = 53000 // base intrinsic gas for a contract-creation transaction
	GasTxDataZero  uint64 = 4     // per zero byte of transaction data
	GasTxDataNonZero uint64 = 16  // per non-zero byte of transaction data

	GasAccessListAddress uint64 = 2400 // EIP-2930: per address in an access list
	GasAccessListSlot    uint64 = 1900 // EIP-2930: per storage slot in an access list

	GasCallCold uint64 = 2600 // CALL/CALLCODE/DELEGATECALL/STATICCALL, address not yet warm
	GasCallWarm uint64 = 100  // same, address already warm
	GasCallValueTransfer uint64 = 9000
	GasCallNewAccount    uint64 = 25000
	GasCallStipend       uint64 = 2300 // free gas forwarded to the callee when value > 0

	GasSloadCold uint64 = 2100 // EIP-2929: cold storage-slot access
	GasSloadWarm uint64 = 100  // warm storage-slot access

	GasCreate       uint64 = 32000
	GasSelfdestruct uint64 = 5000

	// Precompile costs for the three contracts the host executes directly
	// (ecrecover 0x01, sha256 0x02, identity 0x04); the others declared in
	// PrecompiledContracts fail with errPrecompileNotImplemented.
	GasEcrecover   uint64 = 3000
	GasSha256Base  uint64 = 60
	GasSha256Word  uint64 = 12
	GasIdentityBase uint64 = 15
	GasIdentityWord uint64 = 3
)

// wordCount returns ceil(size / 32), the number of 32-byte words spanned
// by a byte slice of the given length.
func wordCount(size int) uint64 {
	if size == 0 {
		return 0
	}
	return uint64((size + 31) / 32)
}
