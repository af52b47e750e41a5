package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Key schema:
//
//   ord:<owner>:<id> → Order (JSON)
//
// The id is zero-padded to 20 digits so a prefix scan yields orders in
// creation sequence. Orders are never deleted, so Save only ever adds
// or overwrites records under the owner's prefix.

const prefixOrder = "ord:"

// orderKey returns the key for an order
// Format: "ord:{owner}:{id}" with id zero-padded for lexicographic sorting
func orderKey(owner common.Address, id int64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", prefixOrder, owner.Hex(), id))
}

// ownerPrefix returns the prefix for all orders of an owner
// Format: "ord:{owner}:"
func ownerPrefix(owner common.Address) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixOrder, owner.Hex()))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
