package order

import "github.com/ethereum/go-ethereum/common"

// Sequencer issues strictly increasing nonces scoped to an
// (owner, delegate) pair. Binding a different scope resets the counter;
// stored orders for the scope raise it past every nonce already used,
// so a reload never reissues a nonce. The counter is not persisted on
// its own: it is always re-derivable from the order list.
//
// The sequencer never queries the delegate's on-chain nonce. If local
// storage is lost, or orders are created from another device, collisions
// become possible. Known gap, inherited from the protocol design.
type Sequencer struct {
	owner    common.Address
	delegate common.Address
	next     uint64
}

const baseNonce uint64 = 1

func NewSequencer() *Sequencer {
	return &Sequencer{next: baseNonce}
}

// Bind scopes the sequencer to (owner, delegate) and re-derives the
// counter as max(nonce of any existing order in scope) + 1.
func (s *Sequencer) Bind(owner, delegate common.Address, existing []*Order) {
	s.owner = owner
	s.delegate = delegate
	s.next = baseNonce
	for _, o := range existing {
		if o.Owner == owner && o.Delegate() == delegate {
			s.Observe(o.Nonce())
		}
	}
}

// Observe raises the counter past an already-used nonce.
func (s *Sequencer) Observe(nonce uint64) {
	if nonce >= s.next {
		s.next = nonce + 1
	}
}

// Peek returns the nonce the next order will carry, without consuming
// it. Creation only advances the counter once signing succeeds.
func (s *Sequencer) Peek() uint64 { return s.next }

// Advance consumes the current nonce.
func (s *Sequencer) Advance() { s.next++ }
