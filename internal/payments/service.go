package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/store"
	"github.com/hugh/go-folio/pkg/crypto"
)

var (
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidSignature = errors.New("payment signature mismatch")
	ErrOrderMismatch    = errors.New("order belongs to another account")
)

// Service creates subscription orders and confirms client-side payments.
type Service struct {
	gateway   Gateway
	users     store.UserRepository
	orders    store.OrderRepository
	keySecret string
	currency  string
	timeout   time.Duration
	logger    *slog.Logger
}

type ServiceConfig struct {
	Gateway   Gateway
	Users     store.UserRepository
	Orders    store.OrderRepository
	KeySecret string
	Currency  string
	Timeout   time.Duration
	Logger    *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	currency := cfg.Currency
	if currency == "" {
		currency = "INR"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gateway:   cfg.Gateway,
		users:     cfg.Users,
		orders:    cfg.Orders,
		keySecret: cfg.KeySecret,
		currency:  currency,
		timeout:   timeout,
		logger:    logger,
	}
}

// CreateOrder opens a gateway order tagged with the buyer's user id.
func (s *Service) CreateOrder(ctx context.Context, user *models.User, amount int64) (*Order, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.gateway.CreateOrder(callCtx, OrderRequest{
		Amount:   amount,
		Currency: s.currency,
		Notes:    map[string]string{NoteUserID: user.ID},
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, &models.PaymentOrder{
		OrderID:  order.ID,
		UserID:   user.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
	}); err != nil {
		s.logger.Warn("failed to record payment order", "order_id", order.ID, "error", err)
	}

	return order, nil
}

type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
}

// VerifyPayment checks the checkout signature over "order_id|payment_id" and
// upgrades the caller.
func (s *Service) VerifyPayment(ctx context.Context, user *models.User, in VerifyInput) error {
	payload := []byte(in.OrderID + "|" + in.PaymentID)
	if in.OrderID == "" || in.PaymentID == "" || !crypto.VerifyHMAC(payload, in.Signature, s.keySecret) {
		return ErrInvalidSignature
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	order, err := s.gateway.FetchOrder(callCtx, in.OrderID)
	cancel()
	if err != nil {
		return err
	}
	if owner := order.Notes[NoteUserID]; owner != "" && owner != user.ID {
		return ErrOrderMismatch
	}

	if _, err := s.users.SetPlan(ctx, user.ID, plans.Pro); err != nil {
		return fmt.Errorf("upgrading plan: %w", err)
	}

	if err := s.orders.MarkPaid(ctx, in.OrderID, in.PaymentID); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("failed to mark order paid", "order_id", in.OrderID, "error", err)
	}
	return nil
}
