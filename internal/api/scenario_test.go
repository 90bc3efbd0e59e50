package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugh/go-folio/internal/api/dto"
	"github.com/hugh/go-folio/internal/auth"
	"github.com/hugh/go-folio/internal/identity"
	"github.com/hugh/go-folio/internal/payments"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/portfolios"
	"github.com/hugh/go-folio/internal/testutil"
	"github.com/hugh/go-folio/pkg/crypto"
)

const scenarioWebhookSecret = "whsec_scenario"

type mailbox struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *mailbox) NotifyVerification(_ context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = make(map[string]string)
	}
	m.links[email] = link
	return nil
}

type memoryGateway struct {
	mu     sync.Mutex
	orders map[string]*payments.Order
}

func (g *memoryGateway) CreateOrder(_ context.Context, req payments.OrderRequest) (*payments.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
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

func (g *memoryGateway) FetchOrder(_ context.Context, id string) (*payments.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	order, ok := g.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	return order, nil
}

func TestRouter_UpgradeScenario(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	inbox := &mailbox{}
	gateway := &memoryGateway{orders: make(map[string]*payments.Order)}
	enforcer := plans.NewEnforcer(plans.DefaultPolicy(), tc.Store.Portfolios())

	router := NewRouter(RouterConfig{
		Store:    tc.Store,
		Logger:   logger,
		Sessions: tc.Sessions,
		AuthService: auth.NewService(auth.ServiceConfig{
			Users:     tc.Store.Users(),
			Sessions:  tc.Sessions,
			Hasher:    &auth.BcryptHasher{Cost: 4},
			Links:     auth.NewLinkSigner("secret", time.Hour),
			Notifier:  inbox,
			VerifyURL: "http://localhost:3000/verify",
			Logger:    logger,
		}),
		Exchanger:  identity.NewExchanger(identity.NewClient("http://127.0.0.1:0", time.Second), tc.Store.Users(), tc.Sessions, logger),
		Enforcer:   enforcer,
		Portfolios: portfolios.NewService(tc.Store.Portfolios(), enforcer, nil, logger),
		Payments: payments.NewService(payments.ServiceConfig{
			Gateway:   gateway,
			Users:     tc.Store.Users(),
			Orders:    tc.Store.Orders(),
			KeySecret: "key_secret",
			Logger:    logger,
		}),
		Webhooks: payments.NewWebhookProcessor(payments.WebhookConfig{
			Secret:  scenarioWebhookSecret,
			Gateway: gateway,
			Users:   tc.Store.Users(),
			Orders:  tc.Store.Orders(),
			Logger:  logger,
		}),
		AuthPerMinute: 60,
		AuthBurst:     10,
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	creds := map[string]string{"email": "ada@example.com", "password": "analytical-engine", "name": "Ada"}

	rr := serve(testutil.UnauthenticatedRequest(t, "POST", "/api/auth/signup", creds))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	link, err := url.Parse(inbox.links["ada@example.com"])
	require.NoError(t, err)
	rr = serve(testutil.UnauthenticatedRequest(t, "GET", "/api/auth/verify?token="+url.QueryEscape(link.Query().Get("token")), nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(testutil.UnauthenticatedRequest(t, "POST", "/api/auth/login", creds))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var login dto.AuthResponse
	testutil.ParseJSONResponse(t, rr, &login)
	token := login.SessionToken

	create := func(name string) *httptest.ResponseRecorder {
		return serve(testutil.CookieRequest(t, "POST", "/api/portfolios", map[string]string{"name": name}, token))
	}

	require.Equal(t, http.StatusOK, create("First").Code)

	rr = create("Second")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"Free plan allows only 1 portfolio. Upgrade to Pro."}`, rr.Body.String())

	rr = serve(testutil.CookieRequest(t, "POST", "/api/subscription/create-order", map[string]int64{"amount": 49900}, token))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var order payments.Order
	testutil.ParseJSONResponse(t, rr, &order)

	event := []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_ada","order_id":%q}}}}`, order.ID))
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/razorpay", bytes.NewReader(event))
	req.Header.Set("X-Razorpay-Signature", crypto.SignHMAC(event, scenarioWebhookSecret))
	rr = serve(req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(testutil.CookieRequest(t, "GET", "/api/subscription/status", nil, token))
	assert.JSONEq(t, `{"plan":"pro"}`, rr.Body.String())

	for i := 2; i <= 5; i++ {
		rr := create(fmt.Sprintf("Portfolio %d", i))
		assert.Equal(t, http.StatusOK, rr.Code, "portfolio %d: %s", i, rr.Body.String())
	}

	rr = create("Sixth")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"Pro plan allows only 5 portfolios."}`, rr.Body.String())
}
