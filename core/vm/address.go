package vm

import (
	"github.com/lumenforge/execlayer/core/types"
	"github.com/lumenforge/execlayer/crypto"
	"github.com/lumenforge/execlayer/rlp"
)

// contractAddressFromRLP derives the CREATE contract address:
// keccak256(rlp([sender, nonce]))[12:].
func contractAddressFromRLP(sender types.Address, nonce uint64) types.Address {
	enc, err := rlp.EncodeToBytes([]interface{}{sender.Bytes(), nonce})
	if err != nil {
		return types.Address{}
	}
	return types.BytesToAddress(crypto.Keccak256(enc)[12:])
}

// contractAddress2 derives the CREATE2 contract address:
// keccak256(0xff || sender || salt || keccak256(init_code))[12:].
func contractAddress2(sender types.Address, salt types.Hash, initCode []byte) types.Address {
	codeHash := crypto.Keccak256(initCode)
	buf := make([]byte, 0, 1+types.AddressLength+types.HashLength+len(codeHash))
	buf = append(buf, 0xff)
	buf = append(buf, sender.Bytes()...)
	buf = append(buf, salt.Bytes()...)
	buf = append(buf, codeHash...)
	return types.BytesToAddress(crypto.Keccak256(buf)[12:])
}
