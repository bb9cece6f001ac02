package types_test

import (
	"math/big"
	"testing"

	"github.com/lumenforge/execlayer/core/types"
	"github.com/lumenforge/execlayer/crypto"
)

func TestDynamicFeeTxSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	wantAddr := crypto.PubkeyToAddress(key.PublicKey)

	to := types.Address{0x01, 0x02, 0x03}
	inner := &types.DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     3,
		GasTipCap: big.NewInt(2_000_000_000),
		GasFeeCap: big.NewInt(30_000_000_000),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(1_000_000_000_000_000_000),
		Data:      nil,
	}
	tx := types.NewTransaction(inner)
	signer := types.NewLondonSigner(1)

	sigHash := signer.Hash(tx)
	sig, err := crypto.Sign(sigHash[:], key)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	r, s, v, err := signer.SignatureValues(sig)
	if err != nil {
		t.Fatalf("SignatureValues: %v", err)
	}
	tx.SetSignatureValues(new(big.Int).SetUint64(uint64(v)), r, s)

	gotAddr, err := signer.Sender(tx)
	if err != nil {
		t.Fatalf("Sender: %v", err)
	}
	if gotAddr != wantAddr {
		t.Errorf("recovered sender = %s, want %s", gotAddr, wantAddr)
	}

	encoded, err := tx.EncodeRLP()
	if err != nil {
		t.Fatalf("EncodeRLP: %v", err)
	}
	decoded, err := types.DecodeTxRLP(encoded)
	if err != nil {
		t.Fatalf("DecodeTxRLP: %v", err)
	}

	if decoded.Type() != types.DynamicFeeTxType {
		t.Errorf("decoded type = %d, want %d", decoded.Type(), types.DynamicFeeTxType)
	}
	if decoded.Nonce() != tx.Nonce() {
		t.Errorf("decoded nonce = %d, want %d", decoded.Nonce(), tx.Nonce())
	}
	if decoded.Hash() != tx.Hash() {
		t.Errorf("decoded hash = %s, want %s", decoded.Hash(), tx.Hash())
	}

	decodedAddr, err := signer.Sender(decoded)
	if err != nil {
		t.Fatalf("Sender on decoded tx: %v", err)
	}
	if decodedAddr != wantAddr {
		t.Errorf("decoded sender = %s, want %s", decodedAddr, wantAddr)
	}
}

func TestLegacyTxSigningHashExcludesSignature(t *testing.T) {
	tx1 := types.NewTransaction(&types.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21000,
		Value:    big.NewInt(1),
	})
	tx2 := types.NewTransaction(&types.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21000,
		Value:    big.NewInt(1),
		V:        big.NewInt(27),
		R:        big.NewInt(12345),
		S:        big.NewInt(67890),
	})

	if tx1.SigningHash() != tx2.SigningHash() {
		t.Error("signing hash must not depend on V, R, S")
	}
}
