package engine

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/minwoo-j/delegator/pkg/crypto"
)

// SigningAdapter is the signing collaborator boundary: hand it the
// message, get opaque signature bytes back. The engine never inspects
// the signature. A connected wallet and a local key both fit here.
type SigningAdapter interface {
	SignDelegation(d *crypto.Delegation) ([]byte, error)
}

// Submitter is the execution collaborator boundary. Submit encodes and
// broadcasts the order in a single attempt, without retry, and blocks
// until the terminal outcome. The submitted callback fires with the
// transaction hash after broadcast, before confirmation resolves.
type Submitter interface {
	Submit(ctx context.Context, d *crypto.Delegation, signature []byte, submitted func(common.Hash)) (common.Hash, error)
}

// LocalSigner signs delegations with an in-process key, standing in
// for a wallet.
type LocalSigner struct {
	key   *crypto.Signer
	typed *crypto.EIP712Signer
}

func NewLocalSigner(key *crypto.Signer, domain crypto.EIP712Domain) *LocalSigner {
	return &LocalSigner{key: key, typed: crypto.NewEIP712Signer(domain)}
}

func (l *LocalSigner) SignDelegation(d *crypto.Delegation) ([]byte, error) {
	return l.typed.SignDelegation(l.key, d)
}

func (l *LocalSigner) Address() common.Address { return l.key.Address() }
