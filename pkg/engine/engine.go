package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/minwoo-j/delegator/pkg/order"
	"github.com/minwoo-j/delegator/pkg/storage"
	"github.com/minwoo-j/delegator/pkg/util"
)

// Engine owns the in-memory order collection for the connected owner
// and drives every lifecycle transition: creation, time-gated
// readiness, execution, settlement. Every mutation persists before the
// mutating call returns; write-through, no write-behind buffer.
//
// One mutex guards all state. The only call that releases it mid-flight
// is ExecuteOrder, while the submission awaits its outcome; the
// in-flight marker set before release keeps a reentrant execute (and
// the readiness ticker) off that order until the outcome lands.
type Engine struct {
	mu        sync.Mutex
	log       *zap.SugaredLogger
	clock     util.Clock
	store     storage.Repository
	submitter Submitter

	signer      SigningAdapter
	owner       common.Address
	connected   bool
	delegate    common.Address
	hasDelegate bool

	orders   []*order.Order
	byID     map[int64]*order.Order
	seq      *order.Sequencer
	inFlight map[int64]struct{}

	// onChange observes every persisted order mutation with a clone.
	// It runs under the engine lock and must not call back in.
	onChange func(*order.Order)
}

func New(store storage.Repository, submitter Submitter, clock util.Clock, log *zap.SugaredLogger) *Engine {
	return &Engine{
		log:       log,
		clock:     clock,
		store:     store,
		submitter: submitter,
		byID:      make(map[int64]*order.Order),
		seq:       order.NewSequencer(),
		inFlight:  make(map[int64]struct{}),
	}
}

// SetOnChange registers the mutation observer. Register it before any
// order mutation can happen; there is no replay of missed changes.
func (e *Engine) SetOnChange(fn func(*order.Order)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// Connect establishes the signing owner and loads that owner's stored
// orders. A corrupt or unreadable collection degrades to an empty one
// with a warning; an unparseable store must never brick the engine.
// Switching owners drops the previous session's orders and re-derives
// the nonce counter from the new owner's collection. While a submission
// is awaiting its outcome, switching owners is refused: the outcome must
// land on an order the engine still tracks. A same-owner reconnect is
// allowed and keeps the in-flight markers, so the reloaded order stays
// off-limits to the ticker and to a second execute.
func (e *Engine) Connect(signer SigningAdapter, owner common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.inFlight) > 0 && !(e.connected && owner == e.owner) {
		return fmt.Errorf("%w: cannot switch owner", ErrSubmissionInFlight)
	}

	loaded, err := e.store.Load(owner)
	if err != nil {
		e.log.Warnw("order store unreadable, starting with empty collection",
			"owner", owner.Hex(), "err", err)
		loaded = nil
	}

	e.signer = signer
	e.owner = owner
	e.connected = true
	e.orders = loaded
	e.byID = make(map[int64]*order.Order, len(loaded))
	for _, o := range loaded {
		e.byID[o.ID] = o
	}
	e.seq.Bind(owner, e.delegate, e.orders)

	e.log.Infow("owner connected", "owner", owner.Hex(),
		"orders", len(e.orders), "next_nonce", e.seq.Peek())
	return nil
}

// Disconnect clears the session. Stored orders stay on disk. Refused
// while a submission is awaiting its outcome, for the same reason an
// owner switch is.
func (e *Engine) Disconnect() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.inFlight) > 0 {
		return fmt.Errorf("%w: session has a pending submission", ErrSubmissionInFlight)
	}

	e.signer = nil
	e.connected = false
	e.owner = common.Address{}
	e.orders = nil
	e.byID = make(map[int64]*order.Order)
	e.seq = order.NewSequencer()
	return nil
}

// UseDelegate designates the smart account future orders draw from.
// The nonce scope is (owner, delegate), so changing the delegate
// re-derives the counter.
func (e *Engine) UseDelegate(delegate common.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.delegate = delegate
	e.hasDelegate = true
	e.seq.Bind(e.owner, delegate, e.orders)

	e.log.Infow("delegate designated", "delegate", delegate.Hex(),
		"next_nonce", e.seq.Peek())
}

// Owner returns the connected owner address and whether one is set.
func (e *Engine) Owner() (common.Address, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner, e.connected
}

// Delegate returns the designated delegate account and whether one is set.
func (e *Engine) Delegate() (common.Address, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.delegate, e.hasDelegate
}

// Orders returns a snapshot of the current owner's collection in
// creation sequence.
func (e *Engine) Orders() []*order.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*order.Order, len(e.orders))
	for i, o := range e.orders {
		out[i] = o.Clone()
	}
	return out
}

// Get returns a snapshot of one order.
func (e *Engine) Get(id int64) (*order.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return o.Clone(), nil
}

// CreateOrder validates input, signs the delegation, appends the order
// as pending and persists it. On any failure nothing is appended and no
// nonce is consumed. If the append succeeds but the write does not, the
// order is returned alongside ErrWriteFailed: it lives in memory only.
func (e *Engine) CreateOrder(recipient, humanAmount string, delaySeconds int64) (*order.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.connected {
		return nil, ErrNotConnected
	}
	if !e.hasDelegate {
		return nil, ErrNoDelegate
	}

	now := e.clock.Now()
	nonce := e.seq.Peek()

	d, err := order.Build(e.delegate, recipient, humanAmount, delaySeconds, nonce, now)
	if err != nil {
		return nil, err
	}

	sig, err := e.signer.SignDelegation(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningRejected, err)
	}

	id := now.UnixMilli()
	if _, dup := e.byID[id]; dup {
		return nil, fmt.Errorf("%w: id %d", ErrIDCollision, id)
	}

	o := &order.Order{
		ID:        id,
		Owner:     e.owner,
		Message:   *d,
		Signature: sig,
		State:     order.StatePending,
	}
	e.orders = append(e.orders, o)
	e.byID[id] = o
	e.seq.Advance()

	e.log.Infow("order created", "id", id,
		"recipient", d.Recipient.Hex(), "amount_wei", d.Amount.String(),
		"executable_after", d.ExecutableAfter, "nonce", d.Nonce)

	if err := e.persistLocked(); err != nil {
		// The order lives in memory even though the write missed;
		// observers still have to learn it exists.
		e.notifyLocked(o)
		return o.Clone(), fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	e.notifyLocked(o)
	return o.Clone(), nil
}

// Tick re-evaluates readiness for every order against the clock.
// pending flips to ready once now reaches the activation time; ready
// flips back if the clock went backwards underneath us. Orders with a
// submission in flight and terminal orders are left alone. Returns the
// number of orders that changed state; a failed persist of the pass
// comes back as ErrWriteFailed with the flips already applied in
// memory.
func (e *Engine) Tick() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now().Unix()
	changed := 0
	for _, o := range e.orders {
		if o.Finalized() {
			continue
		}
		if _, busy := e.inFlight[o.ID]; busy {
			continue
		}

		ready := now >= o.ActivationTime()
		switch {
		case ready && o.State == order.StatePending:
			o.State = order.StateReady
			changed++
			e.notifyLocked(o)
		case !ready && o.State == order.StateReady:
			o.State = order.StatePending
			changed++
			e.notifyLocked(o)
		}
	}

	if changed > 0 {
		if err := e.persistLocked(); err != nil {
			// Readiness is recomputed every tick; the next durable
			// write catches up.
			return changed, fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}
	}
	return changed, nil
}

// ExecuteOrder submits a ready order to the execution collaborator and
// records the terminal outcome on it. Exactly one submission per call;
// a failure is captured verbatim as the failure reason, never dropped.
func (e *Engine) ExecuteOrder(ctx context.Context, id int64) (*order.Order, error) {
	e.mu.Lock()

	o, ok := e.byID[id]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if o.Finalized() {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: order %d is %s", ErrAlreadyFinalized, id, o.State)
	}
	if _, busy := e.inFlight[id]; busy {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: order %d", ErrSubmissionInFlight, id)
	}
	if o.State != order.StateReady {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: order %d is %s", ErrNotReady, id, o.State)
	}

	// Mark in flight before any suspension point so a reentrant
	// execute cannot double-submit.
	e.inFlight[id] = struct{}{}
	d := o.Message
	sig := append([]byte(nil), o.Signature...)
	e.mu.Unlock()

	hash, err := e.submitter.Submit(ctx, &d, sig, func(h common.Hash) {
		e.log.Infow("execution submitted", "id", id, "tx", h.Hex())
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, id)

	// A same-owner reconnect may have reloaded the collection while the
	// lock was released. Resolve the order again so the outcome lands on
	// the instance the engine currently tracks.
	o, ok = e.byID[id]
	if !ok {
		e.log.Errorw("order vanished during submission", "id", id, "tx", hash.Hex())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
		}
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	if err != nil {
		o.State = order.StateFailed
		o.FailureReason = err.Error()
		e.log.Warnw("order execution failed", "id", id, "reason", err.Error())
		if perr := e.persistLocked(); perr != nil {
			e.log.Errorw("failed to persist failed order", "id", id, "err", perr)
		}
		e.notifyLocked(o)
		return o.Clone(), fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	o.State = order.StateExecuted
	o.ExecutionHash = hash
	e.log.Infow("order executed", "id", id, "tx", hash.Hex())
	if perr := e.persistLocked(); perr != nil {
		e.notifyLocked(o)
		return o.Clone(), fmt.Errorf("%w: %v", ErrWriteFailed, perr)
	}
	e.notifyLocked(o)
	return o.Clone(), nil
}

// StartTicker runs the readiness pass every interval until the returned
// stop function is called (or the context ends). The ticker is owned by
// the engine and driven through its clock, so tests swap in a manual
// clock instead of sleeping.
func (e *Engine) StartTicker(ctx context.Context, interval time.Duration) (stop func()) {
	done := make(chan struct{})
	quit := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-quit:
				return
			case <-e.clock.After(interval):
				if _, err := e.Tick(); err != nil {
					e.log.Errorw("failed to persist readiness pass", "err", err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(quit) })
		<-done
	}
}

func (e *Engine) persistLocked() error {
	return e.store.Save(e.owner, e.orders)
}

func (e *Engine) notifyLocked(o *order.Order) {
	if e.onChange != nil {
		e.onChange(o.Clone())
	}
}
