package payments

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayGateway adapts the Razorpay SDK. The SDK has no context support,
// so each call runs in a goroutine and is abandoned when ctx ends.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

type sdkResult struct {
	body map[string]interface{}
	err  error
}

func call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	done := make(chan sdkResult, 1)
	go func() {
		body, err := fn()
		done <- sdkResult{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, ctx.Err())
	case res := <-done:
		return res.body, res.err
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":          req.Amount,
		"currency":        req.Currency,
		"payment_capture": 1,
		"notes":           notes,
	}
	if req.Receipt != "" {
		data["receipt"] = req.Receipt
	}

	body, err := call(ctx, func() (map[string]interface{}, error) {
		return g.client.Order.Create(data, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	return orderFromMap(body)
}

func (g *RazorpayGateway) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	body, err := call(ctx, func() (map[string]interface{}, error) {
		return g.client.Order.Fetch(orderID, nil, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching order %s: %w", orderID, err)
	}
	return orderFromMap(body)
}

func orderFromMap(m map[string]interface{}) (*Order, error) {
	id, _ := m["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("gateway response has no order id")
	}

	order := &Order{
		ID:    id,
		Notes: make(map[string]string),
	}
	order.Currency, _ = m["currency"].(string)
	order.Status, _ = m["status"].(string)
	order.Receipt, _ = m["receipt"].(string)

	switch amount := m["amount"].(type) {
	case float64:
		order.Amount = int64(amount)
	case int64:
		order.Amount = amount
	case int:
		order.Amount = int64(amount)
	}

	// Razorpay sends an empty JSON array when an order has no notes.
	if notes, ok := m["notes"].(map[string]interface{}); ok {
		for k, v := range notes {
			if s, ok := v.(string); ok {
				order.Notes[k] = s
			} else if v != nil {
				order.Notes[k] = fmt.Sprint(v)
			}
		}
	}
	return order, nil
}
