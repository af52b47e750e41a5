package engine

import "errors"

// Lifecycle and precondition errors. All engine failures are one of
// these kinds (or a builder validation error from pkg/order), wrapped
// with context; nothing here ever panics the process.
var (
	// ErrNotConnected: no signing owner established yet.
	ErrNotConnected = errors.New("no wallet connected")
	// ErrNoDelegate: no smart account designated to draw funds from.
	ErrNoDelegate = errors.New("no delegate account designated")
	// ErrSigningRejected: the signing collaborator declined or failed.
	ErrSigningRejected = errors.New("signing rejected")

	// ErrIDCollision: an order with the same creation stamp already
	// exists. Hard error, never a silent overwrite.
	ErrIDCollision = errors.New("order id collision")

	// ErrNotFound: id unknown to the current owner's collection.
	ErrNotFound = errors.New("order not found")
	// ErrNotReady: order exists but its activation time has not passed.
	ErrNotReady = errors.New("order not ready for execution")
	// ErrAlreadyFinalized: order reached executed/failed; a repeat
	// execute is a no-op and must not resubmit.
	ErrAlreadyFinalized = errors.New("order already finalized")
	// ErrSubmissionInFlight: a submission for this order is awaiting
	// its outcome; concurrent executes are rejected, not queued.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrSubmissionFailed: the execution collaborator errored; the
	// reason is also recorded on the order verbatim.
	ErrSubmissionFailed = errors.New("submission failed")

	// ErrWriteFailed: the mutation applied in memory but was not
	// durably saved. The caller must learn the guarantee was missed.
	ErrWriteFailed = errors.New("persistence write failed")
)
