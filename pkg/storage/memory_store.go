package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/minwoo-j/delegator/pkg/order"
)

// MemoryStore is an in-memory Repository for tests and ephemeral runs.
// Records pass through JSON the same way PebbleStore's do, so a Load
// observes exactly what a process restart would have observed.
type MemoryStore struct {
	mu   sync.Mutex
	data map[common.Address][][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[common.Address][][]byte)}
}

func (s *MemoryStore) Load(owner common.Address) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []*order.Order
	for _, rec := range s.data[owner] {
		var o order.Order
		if err := json.Unmarshal(rec, &o); err != nil {
			continue
		}
		orders = append(orders, &o)
	}
	return orders, nil
}

func (s *MemoryStore) Save(owner common.Address, orders []*order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := make([][]byte, 0, len(orders))
	for _, o := range orders {
		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("failed to marshal order %d: %w", o.ID, err)
		}
		recs = append(recs, data)
	}
	s.data[owner] = recs
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Snapshot returns the raw persisted bytes for an owner. Tests use it
// to assert persistence happened (or stayed byte-identical).
func (s *MemoryStore) Snapshot(owner common.Address) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]byte, len(s.data[owner]))
	for i, rec := range s.data[owner] {
		out[i] = append([]byte(nil), rec...)
	}
	return out
}

var _ Repository = (*MemoryStore)(nil)
