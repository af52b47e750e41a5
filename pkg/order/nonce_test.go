package order

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/minwoo-j/delegator/pkg/crypto"
)

var (
	ownerA    = common.HexToAddress("0xaaaa000000000000000000000000000000000001")
	ownerB    = common.HexToAddress("0xbbbb000000000000000000000000000000000002")
	delegateX = common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")
	delegateY = common.HexToAddress("0xcccc000000000000000000000000000000000003")
)

func orderWithNonce(owner, delegate common.Address, nonce uint64) *Order {
	return &Order{
		Owner:   owner,
		Message: crypto.Delegation{SmartAccount: delegate, Nonce: nonce},
		State:   StatePending,
	}
}

func TestSequencerStrictlyIncreasing(t *testing.T) {
	s := NewSequencer()
	s.Bind(ownerA, delegateX, nil)

	prev := uint64(0)
	for i := 0; i < 5; i++ {
		n := s.Peek()
		if n <= prev {
			t.Fatalf("nonce %d not strictly greater than %d", n, prev)
		}
		s.Advance()
		prev = n
	}
}

func TestSequencerStartsAtOne(t *testing.T) {
	s := NewSequencer()
	s.Bind(ownerA, delegateX, nil)
	if got := s.Peek(); got != 1 {
		t.Errorf("first nonce = %d, want 1", got)
	}
}

func TestSequencerPeekDoesNotConsume(t *testing.T) {
	s := NewSequencer()
	s.Bind(ownerA, delegateX, nil)

	if s.Peek() != s.Peek() {
		t.Error("Peek must not consume the nonce")
	}
	s.Advance()
	if got := s.Peek(); got != 2 {
		t.Errorf("nonce after advance = %d, want 2", got)
	}
}

func TestSequencerRecoversFromStoredOrders(t *testing.T) {
	existing := []*Order{
		orderWithNonce(ownerA, delegateX, 1),
		orderWithNonce(ownerA, delegateX, 3),
		orderWithNonce(ownerA, delegateX, 2),
		// Different scopes must not affect the counter
		orderWithNonce(ownerB, delegateX, 9),
		orderWithNonce(ownerA, delegateY, 7),
	}

	s := NewSequencer()
	s.Bind(ownerA, delegateX, existing)

	if got := s.Peek(); got != 4 {
		t.Errorf("recovered nonce = %d, want max(stored)+1 = 4", got)
	}
}

func TestSequencerResetOnRebind(t *testing.T) {
	s := NewSequencer()
	s.Bind(ownerA, delegateX, nil)
	s.Advance()
	s.Advance()

	// Owner change resets to base
	s.Bind(ownerB, delegateX, nil)
	if got := s.Peek(); got != 1 {
		t.Errorf("nonce after owner change = %d, want 1", got)
	}

	// Delegate change resets too
	s.Bind(ownerB, delegateY, nil)
	if got := s.Peek(); got != 1 {
		t.Errorf("nonce after delegate change = %d, want 1", got)
	}
}
