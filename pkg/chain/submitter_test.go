package chain

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/minwoo-j/delegator/pkg/crypto"
)

func TestEncodeDelegation(t *testing.T) {
	d := &crypto.Delegation{
		SmartAccount:    common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032"),
		Recipient:       common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Amount:          big.NewInt(500000000000000000),
		ExecutableAfter: 1060,
		Nonce:           1,
	}

	encoded, err := EncodeDelegation(d)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// Five static words
	if len(encoded) != 5*32 {
		t.Fatalf("encoded length = %d, want %d", len(encoded), 5*32)
	}

	// Addresses right-aligned in their words
	if got := common.BytesToAddress(encoded[0:32]); got != d.SmartAccount {
		t.Errorf("word 0 = %s, want smart account", got.Hex())
	}
	if got := common.BytesToAddress(encoded[32:64]); got != d.Recipient {
		t.Errorf("word 1 = %s, want recipient", got.Hex())
	}

	// uint256 words big-endian
	if got := new(big.Int).SetBytes(encoded[64:96]); got.Cmp(d.Amount) != 0 {
		t.Errorf("word 2 = %s, want amount %s", got, d.Amount)
	}
	if got := new(big.Int).SetBytes(encoded[96:128]); got.Int64() != d.ExecutableAfter {
		t.Errorf("word 3 = %s, want executableAfter %d", got, d.ExecutableAfter)
	}
	if got := new(big.Int).SetBytes(encoded[128:160]); got.Uint64() != d.Nonce {
		t.Errorf("word 4 = %s, want nonce %d", got, d.Nonce)
	}
}

func TestExecuteCalldataSelector(t *testing.T) {
	sub, err := NewTxSubmitter(nil, nil, common.Address{}, 10143, nil)
	if err != nil {
		t.Fatalf("new submitter: %v", err)
	}

	calldata, err := sub.abi.Pack("execute", []byte{0x01}, []byte{0x02})
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	// Selector is keccak("execute(bytes,bytes)")[:4]
	want := eth_crypto.Keccak256([]byte("execute(bytes,bytes)"))[:4]
	if got := calldata[:4]; !bytes.Equal(got, want) {
		t.Errorf("selector = %x, want %x", got, want)
	}
}
