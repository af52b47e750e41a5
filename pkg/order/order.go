package order

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/minwoo-j/delegator/pkg/crypto"
)

// State is the lifecycle state of a delegated order.
// Transitions only move forward: pending ↔ ready (time-gated, the one
// reversible edge, guarding against clock rollback) and ready/pending
// → executed/failed, which are terminal.
type State string

const (
	StatePending  State = "pending"
	StateReady    State = "ready"
	StateExecuted State = "executed"
	StateFailed   State = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateExecuted || s == StateFailed
}

// Order is a signed, time-locked transfer delegation tracked locally.
// Message and Signature are immutable once set; only State,
// ExecutionHash and FailureReason mutate after creation.
type Order struct {
	// ID is the creation timestamp in unix milliseconds. Creation is
	// user-paced, so the stamp is unique in practice; a collision is
	// treated as a hard error at create time, never an overwrite.
	ID int64 `json:"id"`

	// Owner is the EOA that signed the delegation. Orders are
	// partitioned and persisted per owner.
	Owner common.Address `json:"eoaCreator"`

	Message   crypto.Delegation `json:"message"`
	Signature hexutil.Bytes     `json:"signature"`

	State State `json:"status"`

	// ExecutionHash is set only on the transition into executed.
	ExecutionHash common.Hash `json:"executedTxHash"`
	// FailureReason is set only on the transition into failed and
	// carries the collaborator's error verbatim.
	FailureReason string `json:"error,omitempty"`
}

// Delegate returns the smart account the transfer draws from.
func (o *Order) Delegate() common.Address { return o.Message.SmartAccount }

// Nonce returns the replay-protection nonce the owner signed.
func (o *Order) Nonce() uint64 { return o.Message.Nonce }

// ActivationTime returns the unix timestamp after which the order is
// executable.
func (o *Order) ActivationTime() int64 { return o.Message.ExecutableAfter }

// Finalized reports whether the order reached a terminal state.
func (o *Order) Finalized() bool { return o.State.Terminal() }

// Clone returns a deep copy, safe to hand to callers while the engine
// keeps mutating its own instance.
func (o *Order) Clone() *Order {
	c := *o
	if o.Message.Amount != nil {
		c.Message.Amount = new(big.Int).Set(o.Message.Amount)
	}
	if o.Signature != nil {
		c.Signature = append(hexutil.Bytes(nil), o.Signature...)
	}
	return &c
}
