package api

import (
	"github.com/minwoo-j/delegator/pkg/order"
)

// API response types for REST endpoints and WebSocket messages

// SessionInfo describes the connected owner and designated delegate.
type SessionInfo struct {
	Connected bool   `json:"connected"`
	Owner     string `json:"owner,omitempty"`
	Delegate  string `json:"delegate,omitempty"`
	ChainID   int64  `json:"chainId"`
}

// OrderInfo is the REST/WS projection of an order. Amounts travel as
// strings: wei as a decimal integer, plus a human MON rendering.
type OrderInfo struct {
	ID              int64  `json:"id"`
	Owner           string `json:"owner"`
	Delegate        string `json:"delegate"`
	Recipient       string `json:"recipient"`
	AmountWei       string `json:"amountWei"`
	Amount          string `json:"amount"` // MON, for display
	ExecutableAfter int64  `json:"executableAfter"`
	Nonce           uint64 `json:"nonce"`
	Status          string `json:"status"`
	TxHash          string `json:"txHash,omitempty"`
	Error           string `json:"error,omitempty"`
}

func orderInfo(o *order.Order) OrderInfo {
	info := OrderInfo{
		ID:              o.ID,
		Owner:           o.Owner.Hex(),
		Delegate:        o.Delegate().Hex(),
		Recipient:       o.Message.Recipient.Hex(),
		AmountWei:       o.Message.Amount.String(),
		Amount:          order.FormatAmount(o.Message.Amount),
		ExecutableAfter: o.ActivationTime(),
		Nonce:           o.Nonce(),
		Status:          string(o.State),
		Error:           o.FailureReason,
	}
	if o.State == order.StateExecuted {
		info.TxHash = o.ExecutionHash.Hex()
	}
	return info
}

// CreateOrderRequest is the POST /orders body.
type CreateOrderRequest struct {
	Recipient    string `json:"recipient"`
	Amount       string `json:"amount"` // human MON, e.g. "0.5"
	DelaySeconds int64  `json:"delaySeconds"`
}

// SetDelegateRequest is the POST /session/delegate body.
type SetDelegateRequest struct {
	Address string `json:"address"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSSubscribeRequest is a client → server subscription frame.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// WSOrderUpdate is broadcast on the "orders" channel after every
// persisted order mutation.
type WSOrderUpdate struct {
	Channel string    `json:"channel"`
	Order   OrderInfo `json:"order"`
}
