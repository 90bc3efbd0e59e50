package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugh/go-folio/internal/api/dto"
	"github.com/hugh/go-folio/internal/api/handlers"
	"github.com/hugh/go-folio/internal/api/middleware"
	"github.com/hugh/go-folio/internal/payments"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/testutil"
	"github.com/hugh/go-folio/pkg/crypto"
)

const (
	testKeySecret     = "key_secret"
	testWebhookSecret = "webhook_secret"
)

type stubGateway struct {
	mu     sync.Mutex
	orders map[string]*payments.Order
	fail   bool
}

func (g *stubGateway) CreateOrder(_ context.Context, req payments.OrderRequest) (*payments.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, errors.New("gateway down")
	}
	order := &payments.Order{
		ID:       fmt.Sprintf("order_%d", len(g.orders)+1),
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   "created",
		Notes:    req.Notes,
	}
	g.orders[order.ID] = order
	return order, nil
}

func (g *stubGateway) FetchOrder(_ context.Context, id string) (*payments.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	order, ok := g.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	return order, nil
}

func setupSubscriptionTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup, *stubGateway) {
	tc := testutil.NewTestContext(t)
	gateway := &stubGateway{orders: make(map[string]*payments.Order)}

	service := payments.NewService(payments.ServiceConfig{
		Gateway:   gateway,
		Users:     tc.Store.Users(),
		Orders:    tc.Store.Orders(),
		KeySecret: testKeySecret,
		Logger:    testLogger(),
	})
	webhooks := payments.NewWebhookProcessor(payments.WebhookConfig{
		Secret:  testWebhookSecret,
		Gateway: gateway,
		Users:   tc.Store.Users(),
		Orders:  tc.Store.Orders(),
		Logger:  testLogger(),
	})
	handler := handlers.NewSubscriptionHandler(service, webhooks, testLogger())

	r := chi.NewRouter()
	r.Post("/api/webhook/razorpay", handler.Webhook)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.Sessions, testLogger()))
		r.Post("/api/subscription/create-order", handler.CreateOrder)
		r.Post("/api/subscription/verify", handler.Verify)
		r.Get("/api/subscription/status", handler.Status)
	})
	return r, tc, gateway
}

func statusPlan(t *testing.T, router http.Handler, token string) plans.Tier {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "GET", "/api/subscription/status", nil, token))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp dto.PlanResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	return resp.Plan
}

func TestSubscriptionHandler_OrderAndVerify(t *testing.T) {
	router, tc, gateway := setupSubscriptionTestRouter(t)
	defer tc.Cleanup()

	assert.Equal(t, plans.Free, statusPlan(t, router, tc.Token))

	var order payments.Order
	t.Run("create order", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "POST", "/api/subscription/create-order",
			map[string]int64{"amount": 49900}, tc.Token))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		testutil.ParseJSONResponse(t, rr, &order)
		assert.Equal(t, int64(49900), order.Amount)
		assert.Equal(t, "INR", order.Currency)
		assert.Equal(t, tc.User.ID, order.Notes[payments.NoteUserID])
	})

	t.Run("non-positive amount", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "POST", "/api/subscription/create-order",
			map[string]int64{"amount": 0}, tc.Token))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "POST", "/api/subscription/verify", map[string]string{
			"razorpay_order_id":   order.ID,
			"razorpay_payment_id": "pay_1",
			"razorpay_signature":  "deadbeef",
		}, tc.Token))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"Payment verification failed"}`, rr.Body.String())
		assert.Equal(t, plans.Free, statusPlan(t, router, tc.Token))
	})

	t.Run("valid signature upgrades", func(t *testing.T) {
		sig := crypto.SignHMAC([]byte(order.ID+"|pay_1"), testKeySecret)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "POST", "/api/subscription/verify", map[string]string{
			"razorpay_order_id":   order.ID,
			"razorpay_payment_id": "pay_1",
			"razorpay_signature":  sig,
		}, tc.Token))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.JSONEq(t, `{"message":"Payment verified, subscription upgraded to Pro"}`, rr.Body.String())
		assert.Equal(t, plans.Pro, statusPlan(t, router, tc.Token))
	})

	t.Run("gateway failure", func(t *testing.T) {
		gateway.fail = true
		defer func() { gateway.fail = false }()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "POST", "/api/subscription/create-order",
			map[string]int64{"amount": 49900}, tc.Token))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error":"Order creation failed"}`, rr.Body.String())
	})
}

func TestSubscriptionHandler_Webhook(t *testing.T) {
	router, tc, gateway := setupSubscriptionTestRouter(t)
	defer tc.Cleanup()

	gateway.orders["order_w1"] = &payments.Order{
		ID:    "order_w1",
		Notes: map[string]string{payments.NoteUserID: tc.User.ID},
	}
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_w1","order_id":"order_w1"}}}}`)

	deliver := func(payload []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/webhook/razorpay", bytes.NewReader(payload))
		req.Header.Set("X-Razorpay-Signature", signature)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("bad signature", func(t *testing.T) {
		rr := deliver(body, crypto.SignHMAC(body, "wrong"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"Invalid webhook"}`, rr.Body.String())
		assert.Equal(t, plans.Free, statusPlan(t, router, tc.Token))
	})

	t.Run("captured payment upgrades", func(t *testing.T) {
		rr := deliver(body, crypto.SignHMAC(body, testWebhookSecret))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
		assert.Equal(t, plans.Pro, statusPlan(t, router, tc.Token))
	})

	t.Run("redelivery is acknowledged", func(t *testing.T) {
		rr := deliver(body, crypto.SignHMAC(body, testWebhookSecret))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, plans.Pro, statusPlan(t, router, tc.Token))
	})

	t.Run("other events are acknowledged", func(t *testing.T) {
		other := []byte(`{"event":"order.paid"}`)
		rr := deliver(other, crypto.SignHMAC(other, testWebhookSecret))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown order is rejected for retry", func(t *testing.T) {
		lost := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_x","order_id":"order_missing"}}}}`)
		rr := deliver(lost, crypto.SignHMAC(lost, testWebhookSecret))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSubscriptionHandler_WebhookRejectionIsLogged(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	gateway := &stubGateway{orders: make(map[string]*payments.Order)}
	webhooks := payments.NewWebhookProcessor(payments.WebhookConfig{
		Secret:  testWebhookSecret,
		Gateway: gateway,
		Users:   tc.Store.Users(),
		Orders:  tc.Store.Orders(),
		Logger:  logger,
	})
	handler := handlers.NewSubscriptionHandler(nil, webhooks, logger)

	body := []byte(`{"event":"payment.captured"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/razorpay", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "deadbeef")
	rr := httptest.NewRecorder()
	handler.Webhook(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, logs.String(), "webhook rejected")
	assert.Contains(t, logs.String(), "kind=\"bad signature\"")
	assert.NotContains(t, logs.String(), testWebhookSecret)
}
