package storage

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/minwoo-j/delegator/pkg/order"
)

// Repository is the persistence boundary for per-owner order
// collections. Load of an unknown owner returns an empty list, never an
// error; a failed Save must surface, the engine reports the broken
// durability guarantee to the caller.
type Repository interface {
	Load(owner common.Address) ([]*order.Order, error)
	Save(owner common.Address, orders []*order.Order) error
	Close() error
}
