package order

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/minwoo-j/delegator/pkg/crypto"
)

// Build constructs the canonical unsigned delegation message for a
// time-locked transfer. Validation happens here, before anything is
// signed or persisted: a failed build consumes no nonce and leaves no
// trace. The returned message, together with the EIP-712 domain, is
// exactly what the signing collaborator receives.
func Build(delegate common.Address, recipient string, humanAmount string, delaySeconds int64, nonce uint64, now time.Time) (*crypto.Delegation, error) {
	if !crypto.ValidAddress(recipient) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, recipient)
	}

	amount, err := ParseAmount(humanAmount)
	if err != nil {
		return nil, err
	}

	if delaySeconds < 0 {
		return nil, fmt.Errorf("%w: %d seconds", ErrInvalidDelay, delaySeconds)
	}

	return &crypto.Delegation{
		SmartAccount:    delegate,
		Recipient:       common.HexToAddress(recipient),
		Amount:          amount,
		ExecutableAfter: now.Unix() + delaySeconds,
		Nonce:           nonce,
	}, nil
}
