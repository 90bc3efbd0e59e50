package payments

import (
	"context"
	"errors"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// NoteUserID is the order note that links a gateway order to its buyer.
const NoteUserID = "user_id"

type OrderRequest struct {
	Amount   int64 // smallest currency unit
	Currency string
	Receipt  string
	Notes    map[string]string
}

type Order struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Status   string            `json:"status"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes"`
}

// Gateway is the payment provider's order API.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
}
