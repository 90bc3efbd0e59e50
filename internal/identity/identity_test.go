package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugh/go-folio/internal/auth"
	"github.com/hugh/go-folio/internal/identity"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/testutil"
)

func providerServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var gotSessionID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSessionID = r.Header.Get("X-Session-ID")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &gotSessionID
}

func TestClient_SessionData(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv, gotID := providerServer(t, http.StatusOK,
			`{"email":"ada@example.com","name":"Ada","picture":"https://img.example/a.png","session_token":"prov_tok"}`)

		claims, err := identity.NewClient(srv.URL, time.Second).SessionData(context.Background(), "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "sess-1", *gotID)
		assert.Equal(t, "ada@example.com", claims.Email)
		assert.Equal(t, "prov_tok", claims.SessionToken)
		require.NotNil(t, claims.Picture)
	})

	t.Run("non-success status", func(t *testing.T) {
		srv, _ := providerServer(t, http.StatusUnauthorized, `{"detail":"bad session"}`)

		_, err := identity.NewClient(srv.URL, time.Second).SessionData(context.Background(), "sess-1")
		var xerr *identity.ExchangeError
		require.ErrorAs(t, err, &xerr)
		assert.Equal(t, identity.ProviderRejected, xerr.Kind)
	})

	t.Run("missing token", func(t *testing.T) {
		srv, _ := providerServer(t, http.StatusOK, `{"email":"ada@example.com","name":"Ada"}`)

		_, err := identity.NewClient(srv.URL, time.Second).SessionData(context.Background(), "sess-1")
		var xerr *identity.ExchangeError
		require.ErrorAs(t, err, &xerr)
		assert.Equal(t, identity.ProviderRejected, xerr.Kind)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv, _ := providerServer(t, http.StatusOK, `{}`)
		url := srv.URL
		srv.Close()

		_, err := identity.NewClient(url, time.Second).SessionData(context.Background(), "sess-1")
		var xerr *identity.ExchangeError
		require.ErrorAs(t, err, &xerr)
		assert.Equal(t, identity.ProviderUnreachable, xerr.Kind)
	})
}

func TestExchanger_Exchange(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()
	ctx := context.Background()

	t.Run("creates a verified free user", func(t *testing.T) {
		srv, _ := providerServer(t, http.StatusOK,
			`{"email":"new@example.com","name":"New","session_token":"prov_new"}`)
		ex := identity.NewExchanger(identity.NewClient(srv.URL, time.Second), tc.Store.Users(), tc.Sessions, nil)

		user, session, err := ex.Exchange(ctx, "sess-new")
		require.NoError(t, err)
		assert.True(t, user.IsVerified)
		assert.Equal(t, plans.Free, user.Plan)
		assert.Equal(t, "prov_new", session.Token)

		resolved, err := tc.Sessions.Resolve(ctx, "prov_new")
		require.NoError(t, err)
		assert.Equal(t, user.ID, resolved.ID)
	})

	t.Run("refreshes only the profile of an existing user", func(t *testing.T) {
		_, err := tc.Store.Users().SetPlan(ctx, tc.User.ID, plans.Pro)
		require.NoError(t, err)

		srv, _ := providerServer(t, http.StatusOK,
			`{"email":"`+tc.User.Email+`","name":"Renamed","picture":"https://img.example/p.png","session_token":"prov_existing"}`)
		ex := identity.NewExchanger(identity.NewClient(srv.URL, time.Second), tc.Store.Users(), tc.Sessions, nil)

		user, _, err := ex.Exchange(ctx, "sess-existing")
		require.NoError(t, err)
		assert.Equal(t, tc.User.ID, user.ID)

		fresh := tc.Reload(t, tc.User)
		assert.Equal(t, "Renamed", fresh.Name)
		require.NotNil(t, fresh.Picture)
		assert.Equal(t, "https://img.example/p.png", *fresh.Picture)
		assert.Equal(t, plans.Pro, fresh.Plan)
		assert.True(t, fresh.IsVerified)
		assert.NotEmpty(t, fresh.PasswordHash)
	})

	t.Run("provider rejection creates nothing", func(t *testing.T) {
		srv, _ := providerServer(t, http.StatusForbidden, `{}`)
		ex := identity.NewExchanger(identity.NewClient(srv.URL, time.Second), tc.Store.Users(), tc.Sessions, nil)

		_, _, err := ex.Exchange(ctx, "sess-bad")
		var xerr *identity.ExchangeError
		require.ErrorAs(t, err, &xerr)

		var count int64
		require.NoError(t, tc.DB.Table("users").Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("empty session id", func(t *testing.T) {
		ex := identity.NewExchanger(identity.NewClient("http://127.0.0.1:0", time.Second), tc.Store.Users(), tc.Sessions, nil)
		_, _, err := ex.Exchange(ctx, "")
		var xerr *identity.ExchangeError
		assert.ErrorAs(t, err, &xerr)
	})

	var _ identity.SessionIssuer = (*auth.SessionManager)(nil)
}
