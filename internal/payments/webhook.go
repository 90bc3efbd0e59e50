package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/store"
	"github.com/hugh/go-folio/pkg/crypto"
)

const EventPaymentCaptured = "payment.captured"

type WebhookErrorKind int

const (
	BadSignature WebhookErrorKind = iota + 1
	MalformedPayload
	OrderLookupFailed
	UpdateFailed
)

func (k WebhookErrorKind) String() string {
	switch k {
	case BadSignature:
		return "bad signature"
	case MalformedPayload:
		return "malformed payload"
	case OrderLookupFailed:
		return "order lookup failed"
	case UpdateFailed:
		return "update failed"
	}
	return "unknown"
}

// WebhookError rejects a delivery. The gateway retries rejected deliveries.
type WebhookError struct {
	Kind WebhookErrorKind
	Err  error
}

func (e *WebhookError) Error() string {
	if e.Err == nil {
		return "webhook: " + e.Kind.String()
	}
	return fmt.Sprintf("webhook: %s: %v", e.Kind, e.Err)
}

func (e *WebhookError) Unwrap() error {
	return e.Err
}

// Outcome describes an acknowledged delivery.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"
	OutcomeUpgraded  Outcome = "upgraded"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeNoAccount Outcome = "no_account"
)

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type WebhookProcessor struct {
	secret  string
	gateway Gateway
	users   store.UserRepository
	orders  store.OrderRepository
	ledger  Ledger
	timeout time.Duration
	logger  *slog.Logger
}

type WebhookConfig struct {
	Secret  string
	Gateway Gateway
	Users   store.UserRepository
	Orders  store.OrderRepository // optional
	Ledger  Ledger                // optional
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewWebhookProcessor(cfg WebhookConfig) *WebhookProcessor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebhookProcessor{
		secret:  cfg.Secret,
		gateway: cfg.Gateway,
		users:   cfg.Users,
		orders:  cfg.Orders,
		ledger:  cfg.Ledger,
		timeout: timeout,
		logger:  logger,
	}
}

// Process runs one delivery through verification, identity resolution and
// the plan upgrade. Any *WebhookError means the delivery must be rejected.
func (p *WebhookProcessor) Process(ctx context.Context, body []byte, signature string) (Outcome, error) {
	if !crypto.VerifyHMAC(body, signature, p.secret) {
		return "", &WebhookError{Kind: BadSignature}
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return "", &WebhookError{Kind: MalformedPayload, Err: err}
	}

	if event.Event != EventPaymentCaptured {
		p.logger.Debug("ignoring webhook event", "event", event.Event)
		return OutcomeIgnored, nil
	}

	payment := event.Payload.Payment.Entity
	if payment.OrderID == "" {
		return "", &WebhookError{Kind: MalformedPayload, Err: errors.New("payment has no order id")}
	}

	if p.ledger != nil && payment.ID != "" {
		seen, err := p.ledger.Seen(ctx, payment.ID)
		if err != nil {
			p.logger.Warn("webhook ledger unavailable", "payment_id", payment.ID, "error", err)
		} else if seen {
			return OutcomeDuplicate, nil
		}
	}

	// Identity comes from the order as the gateway reports it, never from the body.
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	order, err := p.gateway.FetchOrder(fetchCtx, payment.OrderID)
	cancel()
	if err != nil {
		return "", &WebhookError{Kind: OrderLookupFailed, Err: err}
	}

	userID := order.Notes[NoteUserID]
	if userID == "" {
		p.logger.Warn("captured payment order has no user note", "order_id", order.ID)
		return OutcomeNoAccount, nil
	}

	matched, err := p.users.SetPlan(ctx, userID, plans.Pro)
	if err != nil {
		return "", &WebhookError{Kind: UpdateFailed, Err: err}
	}
	if !matched {
		p.logger.Warn("captured payment for unknown user", "order_id", order.ID, "user_id", userID)
		return OutcomeNoAccount, nil
	}

	if p.orders != nil {
		if err := p.orders.MarkPaid(ctx, order.ID, payment.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			p.logger.Warn("failed to mark order paid", "order_id", order.ID, "error", err)
		}
	}

	if p.ledger != nil && payment.ID != "" {
		if err := p.ledger.Record(ctx, payment.ID); err != nil {
			p.logger.Warn("failed to record webhook payment", "payment_id", payment.ID, "error", err)
		}
	}

	p.logger.Info("plan upgraded from webhook", "user_id", userID, "order_id", order.ID, "payment_id", payment.ID)
	return OutcomeUpgraded, nil
}
