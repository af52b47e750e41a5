package storage

import (
	"math/big"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/minwoo-j/delegator/pkg/crypto"
	"github.com/minwoo-j/delegator/pkg/order"
)

var testOwner = common.HexToAddress("0xaaaa000000000000000000000000000000000001")

func newTestStore(t *testing.T) *PebbleStore {
	t.Helper()
	s, err := NewPebbleStore(t.TempDir(), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeOrder(id int64, nonce uint64, state order.State) *order.Order {
	return &order.Order{
		ID:    id,
		Owner: testOwner,
		Message: crypto.Delegation{
			SmartAccount:    common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032"),
			Recipient:       common.HexToAddress("0x1111111111111111111111111111111111111111"),
			Amount:          big.NewInt(500000000000000000),
			ExecutableAfter: 1060,
			Nonce:           nonce,
		},
		Signature: []byte{0xde, 0xad, 0xbe, 0xef},
		State:     state,
	}
}

func TestLoadMissingOwner(t *testing.T) {
	s := newTestStore(t)

	orders, err := s.Load(testOwner)
	if err != nil {
		t.Fatalf("load of missing owner should not fail: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("expected empty list, got %d orders", len(orders))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	orders := []*order.Order{
		makeOrder(1000, 1, order.StateExecuted),
		makeOrder(2000, 2, order.StatePending),
		makeOrder(3000, 3, order.StateFailed),
	}
	orders[0].ExecutionHash = common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000001")
	orders[2].FailureReason = "execution reverted"

	if err := s.Save(testOwner, orders); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := s.Load(testOwner)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("loaded %d orders, want 3", len(loaded))
	}

	// Creation sequence preserved by key ordering
	for i, want := range []int64{1000, 2000, 3000} {
		if loaded[i].ID != want {
			t.Errorf("order %d id = %d, want %d", i, loaded[i].ID, want)
		}
	}

	if loaded[0].Message.Amount.Cmp(big.NewInt(500000000000000000)) != 0 {
		t.Errorf("amount = %s, lost precision through persistence", loaded[0].Message.Amount)
	}
	if loaded[0].ExecutionHash != orders[0].ExecutionHash {
		t.Error("execution hash did not round trip")
	}
	if loaded[2].FailureReason != "execution reverted" {
		t.Errorf("failure reason = %q", loaded[2].FailureReason)
	}
	if loaded[1].State != order.StatePending {
		t.Errorf("state = %s, want pending", loaded[1].State)
	}
}

func TestCorruptRecordSkipped(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save(testOwner, []*order.Order{makeOrder(1000, 1, order.StatePending)}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Plant garbage under the owner's prefix
	if err := s.db.Set(orderKey(testOwner, 500), []byte("{not json"), pebble.Sync); err != nil {
		t.Fatalf("failed to plant corrupt record: %v", err)
	}

	loaded, err := s.Load(testOwner)
	if err != nil {
		t.Fatalf("corrupt record must not fail the load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d orders, want the 1 valid record", len(loaded))
	}
	if loaded[0].ID != 1000 {
		t.Errorf("surviving order id = %d, want 1000", loaded[0].ID)
	}
}

func TestOwnersArePartitioned(t *testing.T) {
	s := newTestStore(t)
	other := common.HexToAddress("0xbbbb000000000000000000000000000000000002")

	if err := s.Save(testOwner, []*order.Order{makeOrder(1000, 1, order.StatePending)}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	orders, err := s.Load(other)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("owner partition leaked: got %d orders", len(orders))
	}
}
