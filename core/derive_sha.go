package core

import (
	"github.com/lumenforge/execlayer/core/types"
	"github.com/lumenforge/execlayer/rlp"
	"github.com/lumenforge/execlayer/trie"
)

// DeriveTxsRoot computes the transactions root of a block using a Merkle
// Patricia Trie keyed by RLP(index), with each transaction's typed RLP
// envelope as the trie value.
func DeriveTxsRoot(txs []*types.Transaction) types.Hash {
	if len(txs) == 0 {
		return types.EmptyRootHash
	}
	t := trie.New()
	for i, tx := range txs {
		key, _ := rlp.EncodeToBytes(uint64(i))
		val, err := tx.EncodeRLP()
		if err != nil {
			continue
		}
		t.Put(key, val)
	}
	return t.Hash()
}

// DeriveReceiptsRoot computes the receipts root of a block using a Merkle
// Patricia Trie keyed by RLP(index), with each receipt's typed RLP envelope
// (raw bytes, including the leading type byte for typed receipts) as the
// trie value.
func DeriveReceiptsRoot(receipts []*types.Receipt) types.Hash {
	if len(receipts) == 0 {
		return types.EmptyRootHash
	}
	t := trie.New()
	for i, receipt := range receipts {
		key, _ := rlp.EncodeToBytes(uint64(i))
		val, err := receipt.EncodeRLP()
		if err != nil {
			continue
		}
		t.Put(key, val)
	}
	return t.Hash()
}

// DeriveWithdrawalsRoot computes the withdrawals root of a block using a
// Merkle Patricia Trie keyed by RLP(index).
func DeriveWithdrawalsRoot(withdrawals []*types.Withdrawal) types.Hash {
	if len(withdrawals) == 0 {
		return types.EmptyRootHash
	}
	t := trie.New()
	for i, w := range withdrawals {
		key, _ := rlp.EncodeToBytes(uint64(i))
		val := types.EncodeWithdrawal(w)
		t.Put(key, val)
	}
	return t.Hash()
}
