package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/minwoo-j/delegator/pkg/crypto"
	"github.com/minwoo-j/delegator/pkg/engine"
)

var _ engine.Submitter = (*TxSubmitter)(nil)

// DelegationManager exposes a single entry point: it recovers the
// signer from (delegation, signature), checks the enforcers and moves
// the funds.
const delegationManagerABI = `[{"type":"function","name":"execute","stateMutability":"nonpayable","inputs":[{"name":"delegation","type":"bytes"},{"name":"signature","type":"bytes"}],"outputs":[]}]`

// (address,address,uint256,uint256,uint256) is the exact layout the
// contract decodes the delegation blob with. Field order mirrors the
// signed EIP-712 message.
var delegationArgs = abi.Arguments{
	{Type: mustNewType("address")},
	{Type: mustNewType("address")},
	{Type: mustNewType("uint256")},
	{Type: mustNewType("uint256")},
	{Type: mustNewType("uint256")},
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Errorf("abi type %s: %w", t, err))
	}
	return typ
}

// EncodeDelegation ABI-encodes the five signed fields for the
// contract's execute call.
func EncodeDelegation(d *crypto.Delegation) ([]byte, error) {
	return delegationArgs.Pack(
		d.SmartAccount,
		d.Recipient,
		d.Amount,
		big.NewInt(d.ExecutableAfter),
		new(big.Int).SetUint64(d.Nonce),
	)
}

// TxSubmitter drives the execution collaborator: it wraps the encoded
// order into a DelegationManager.execute transaction, broadcasts it
// with the submitter's own key (anyone holding the signed order may
// pay the gas) and waits for the receipt. One attempt per call, no
// retry; the collaborator's error comes back to the engine verbatim.
type TxSubmitter struct {
	client   *ethclient.Client
	key      *crypto.Signer
	contract common.Address
	chainID  *big.Int
	abi      abi.ABI
	log      *zap.SugaredLogger
}

func NewTxSubmitter(client *ethclient.Client, key *crypto.Signer, contract common.Address, chainID int64, log *zap.SugaredLogger) (*TxSubmitter, error) {
	parsed, err := abi.JSON(strings.NewReader(delegationManagerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse delegation manager ABI: %w", err)
	}

	return &TxSubmitter{
		client:   client,
		key:      key,
		contract: contract,
		chainID:  big.NewInt(chainID),
		abi:      parsed,
		log:      log,
	}, nil
}

// Submit encodes, broadcasts and confirms one execution. The submitted
// callback fires with the transaction hash as soon as the broadcast is
// accepted, before the receipt resolves.
func (s *TxSubmitter) Submit(ctx context.Context, d *crypto.Delegation, signature []byte, submitted func(common.Hash)) (common.Hash, error) {
	payload, err := EncodeDelegation(d)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode delegation: %w", err)
	}

	calldata, err := s.abi.Pack("execute", payload, signature)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack execute call: %w", err)
	}

	from := s.key.Address()

	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch account nonce: %w", err)
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	gasLimit, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &s.contract,
		Data: calldata,
	})
	if err != nil {
		// Estimation runs the call; a failure here usually means the
		// contract would revert (bad signature, not yet executable).
		return common.Hash{}, fmt.Errorf("execution rejected: %w", err)
	}

	tx := types.NewTransaction(nonce, s.contract, common.Big0, gasLimit, gasPrice, calldata)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key.PrivateKey())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to broadcast: %w", err)
	}

	hash := signedTx.Hash()
	s.log.Infow("execution broadcast", "tx", hash.Hex(), "contract", s.contract.Hex())
	if submitted != nil {
		submitted(hash)
	}

	receipt, err := bind.WaitMined(ctx, s.client, signedTx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("confirmation failed for %s: %w", hash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Hash{}, fmt.Errorf("transaction %s reverted", hash.Hex())
	}

	return hash, nil
}
