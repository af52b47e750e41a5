package crypto

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/minwoo-j/delegator/params"
)

// EIP712Domain represents the domain separator for EIP-712 typed data
// This prevents replay attacks across different chains/contracts
type EIP712Domain struct {
	Name              string         // Protocol name ("MonadDelegatedTransfers")
	Version           string         // Protocol version ("1")
	ChainID           *big.Int       // 10143 for Monad testnet
	VerifyingContract common.Address // DelegationManager address
}

// DefaultDomain returns the domain the DelegationManager on Monad
// testnet verifies against.
func DefaultDomain() EIP712Domain {
	return EIP712Domain{
		Name:              params.DomainName,
		Version:           params.DomainVersion,
		ChainID:           big.NewInt(params.MonadTestnetChainID),
		VerifyingContract: params.DelegationManager,
	}
}

// Delegation is the five-field message the owner signs. The signature
// covers every field plus the domain; none of them may change after
// signing without invalidating the order.
type Delegation struct {
	SmartAccount    common.Address // delegate account funds move from
	Recipient       common.Address
	Amount          *big.Int // wei (minimal unit)
	ExecutableAfter int64    // unix seconds
	Nonce           uint64   // strictly increasing per (owner, smart account)
}

// delegationJSON keeps the wire shape stable: amounts as decimal
// strings (uint256 does not survive float64 round-trips), addresses
// as checksummed hex, timestamps as integers.
type delegationJSON struct {
	SmartAccount    string `json:"smartAccount"`
	Recipient       string `json:"recipient"`
	Amount          string `json:"amount"`
	ExecutableAfter int64  `json:"executableAfter"`
	Nonce           uint64 `json:"nonce"`
}

func (d Delegation) MarshalJSON() ([]byte, error) {
	amount := "0"
	if d.Amount != nil {
		amount = d.Amount.String()
	}
	return json.Marshal(delegationJSON{
		SmartAccount:    d.SmartAccount.Hex(),
		Recipient:       d.Recipient.Hex(),
		Amount:          amount,
		ExecutableAfter: d.ExecutableAfter,
		Nonce:           d.Nonce,
	})
}

func (d *Delegation) UnmarshalJSON(data []byte) error {
	var raw delegationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, ok := new(big.Int).SetString(raw.Amount, 10)
	if !ok {
		return fmt.Errorf("invalid delegation amount %q", raw.Amount)
	}
	d.SmartAccount = common.HexToAddress(raw.SmartAccount)
	d.Recipient = common.HexToAddress(raw.Recipient)
	d.Amount = amount
	d.ExecutableAfter = raw.ExecutableAfter
	d.Nonce = raw.Nonce
	return nil
}

// delegationTypes is the typed-field schema the DelegationManager
// expects. Field order matters: it feeds the type hash.
var delegationTypes = []apitypes.Type{
	{Name: "smartAccount", Type: "address"},
	{Name: "recipient", Type: "address"},
	{Name: "amount", Type: "uint256"},
	{Name: "executableAfter", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
}

// EIP712Signer handles EIP-712 typed data hashing for delegations
type EIP712Signer struct {
	domain EIP712Domain
}

// NewEIP712Signer creates a new EIP-712 signer with given domain
func NewEIP712Signer(domain EIP712Domain) *EIP712Signer {
	return &EIP712Signer{domain: domain}
}

func (e *EIP712Signer) typedData(d *Delegation) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Delegation": delegationTypes,
		},
		PrimaryType: "Delegation",
		Domain: apitypes.TypedDataDomain{
			Name:              e.domain.Name,
			Version:           e.domain.Version,
			ChainId:           (*math.HexOrDecimal256)(e.domain.ChainID),
			VerifyingContract: e.domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"smartAccount":    d.SmartAccount.Hex(),
			"recipient":       d.Recipient.Hex(),
			"amount":          d.Amount.String(),
			"executableAfter": fmt.Sprintf("%d", d.ExecutableAfter),
			"nonce":           fmt.Sprintf("%d", d.Nonce),
		},
	}
}

// HashDelegation hashes a delegation according to EIP-712 spec
// Returns the digest that should be signed
func (e *EIP712Signer) HashDelegation(d *Delegation) ([]byte, error) {
	typedData := e.typedData(d)

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	// Final digest: keccak256("\x19\x01" || domainSeparator || typedDataHash)
	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	digest := crypto.Keccak256Hash(rawData)

	return digest.Bytes(), nil
}

// SignDelegation signs a delegation and returns the signature
func (e *EIP712Signer) SignDelegation(signer *Signer, d *Delegation) ([]byte, error) {
	hash, err := e.HashDelegation(d)
	if err != nil {
		return nil, fmt.Errorf("failed to hash delegation: %w", err)
	}

	signature, err := signer.Sign(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign delegation: %w", err)
	}

	return signature, nil
}

// VerifyDelegationSignature verifies a delegation signature against the
// claimed owner address.
func (e *EIP712Signer) VerifyDelegationSignature(owner common.Address, d *Delegation, signature []byte) (bool, error) {
	recovered, err := e.RecoverDelegationSigner(d, signature)
	if err != nil {
		return false, err
	}
	return recovered == owner, nil
}

// RecoverDelegationSigner recovers the address that signed a delegation
func (e *EIP712Signer) RecoverDelegationSigner(d *Delegation, signature []byte) (common.Address, error) {
	hash, err := e.HashDelegation(d)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash delegation: %w", err)
	}

	return RecoverAddress(hash, signature)
}

// DelegationToJSON renders the eth_signTypedData_v4 payload for wallet
// signing. MetaMask signs exactly this structure.
func (e *EIP712Signer) DelegationToJSON(d *Delegation) (string, error) {
	typedData := e.typedData(d)

	payload := map[string]interface{}{
		"types":       typedData.Types,
		"primaryType": typedData.PrimaryType,
		"domain": map[string]interface{}{
			"name":              e.domain.Name,
			"version":           e.domain.Version,
			"chainId":           e.domain.ChainID.String(),
			"verifyingContract": e.domain.VerifyingContract.Hex(),
		},
		"message": typedData.Message,
	}

	jsonBytes, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return string(jsonBytes), nil
}
