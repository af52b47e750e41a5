package storage

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/minwoo-j/delegator/pkg/order"
)

// PebbleStore persists order collections in a local Pebble database.
// Writes are synchronous (pebble.Sync): Save does not return until the
// records are durable, matching the engine's write-through contract.
type PebbleStore struct {
	db  *pebble.DB
	log *zap.SugaredLogger
}

// NewPebbleStore opens a Pebble database at the given path
func NewPebbleStore(path string, log *zap.SugaredLogger) (*PebbleStore, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(32 << 20), // 32MB, order lists are small
		MemTableSize: 16 << 20,
		MaxOpenFiles: 500,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", path, err)
	}

	return &PebbleStore{db: db, log: log}, nil
}

// Close closes the database
func (s *PebbleStore) Close() error { return s.db.Close() }

// Load returns the owner's orders in creation sequence. A missing owner
// yields an empty list. A record that fails to decode is skipped with a
// warning rather than poisoning the whole collection: losing one corrupt
// entry beats refusing to start.
func (s *PebbleStore) Load(owner common.Address) ([]*order.Order, error) {
	prefix := ownerPrefix(owner)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var orders []*order.Order
	for iter.First(); iter.Valid(); iter.Next() {
		var o order.Order
		if err := json.Unmarshal(iter.Value(), &o); err != nil {
			s.log.Warnw("skipping corrupt order record",
				"owner", owner.Hex(), "key", string(iter.Key()), "err", err)
			continue
		}
		orders = append(orders, &o)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to scan orders for %s: %w", owner.Hex(), err)
	}

	return orders, nil
}

// Save writes the full collection for an owner in one synchronous batch.
func (s *PebbleStore) Save(owner common.Address, orders []*order.Order) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, o := range orders {
		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("failed to marshal order %d: %w", o.ID, err)
		}
		if err := batch.Set(orderKey(owner, o.ID), data, nil); err != nil {
			return fmt.Errorf("failed to stage order %d: %w", o.ID, err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to save orders for %s: %w", owner.Hex(), err)
	}

	return nil
}

var _ Repository = (*PebbleStore)(nil)
