package auth_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hugh/go-folio/internal/auth"
	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	links map[string]string
	err   error
}

func (n *recordingNotifier) NotifyVerification(ctx context.Context, email, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.links == nil {
		n.links = make(map[string]string)
	}
	n.links[email] = link
	return n.err
}

func (n *recordingNotifier) linkToken(t *testing.T, email string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	u, err := url.Parse(n.links[email])
	require.NoError(t, err)
	return u.Query().Get("token")
}

func newAccountService(tc *testutil.TestSetup, notifier auth.VerificationNotifier) *auth.Service {
	return auth.NewService(auth.ServiceConfig{
		Users:     tc.Store.Users(),
		Sessions:  tc.Sessions,
		Hasher:    &auth.BcryptHasher{Cost: 4},
		Links:     auth.NewLinkSigner("link-secret", time.Hour),
		Notifier:  notifier,
		VerifyURL: "https://app.example/verify",
	})
}

func TestService_Signup(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	notifier := &recordingNotifier{}
	svc := newAccountService(tc, notifier)

	t.Run("creates one unverified free user", func(t *testing.T) {
		user, err := svc.Signup(ctx, auth.SignupInput{Email: "new@example.com", Password: "password123", Name: "New"})
		require.NoError(t, err)

		var stored []models.User
		require.NoError(t, tc.DB.Where("email = ?", "new@example.com").Find(&stored).Error)
		require.Len(t, stored, 1)
		assert.Equal(t, user.ID, stored[0].ID)
		assert.False(t, stored[0].IsVerified)
		assert.Equal(t, plans.Free, stored[0].Plan)
		require.NotNil(t, stored[0].VerificationToken)
		assert.NotEmpty(t, *stored[0].VerificationToken)
		assert.NotEqual(t, "password123", stored[0].PasswordHash)

		assert.True(t, strings.HasPrefix(notifier.links["new@example.com"], "https://app.example/verify?token="))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Signup(ctx, auth.SignupInput{Email: "new@example.com", Password: "password123", Name: "Again"})
		assert.ErrorIs(t, err, auth.ErrUserExists)
	})

	t.Run("notifier failure keeps the user", func(t *testing.T) {
		failing := newAccountService(tc, &recordingNotifier{err: errors.New("smtp down")})

		user, err := failing.Signup(ctx, auth.SignupInput{Email: "kept@example.com", Password: "password123", Name: "Kept"})
		require.NoError(t, err)

		_, err = tc.Store.Users().GetByID(ctx, user.ID)
		assert.NoError(t, err)
	})
}

func TestService_VerifyAndLogin(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	notifier := &recordingNotifier{}
	svc := newAccountService(tc, notifier)

	_, err := svc.Signup(ctx, auth.SignupInput{Email: "flow@example.com", Password: "password123", Name: "Flow"})
	require.NoError(t, err)

	t.Run("login before verification is refused", func(t *testing.T) {
		_, _, err := svc.Login(ctx, auth.LoginInput{Email: "flow@example.com", Password: "password123"})
		assert.ErrorIs(t, err, auth.ErrEmailNotVerified)
	})

	t.Run("verify consumes the token", func(t *testing.T) {
		token := notifier.linkToken(t, "flow@example.com")

		already, err := svc.Verify(ctx, token)
		require.NoError(t, err)
		assert.False(t, already)

		user, err := tc.Store.Users().GetByEmail(ctx, "flow@example.com")
		require.NoError(t, err)
		assert.True(t, user.IsVerified)
		assert.Nil(t, user.VerificationToken)

		already, err = svc.Verify(ctx, token)
		require.NoError(t, err)
		assert.True(t, already)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Verify(ctx, "garbage")
		assert.ErrorIs(t, err, auth.ErrInvalidVerification)
	})

	t.Run("login succeeds after verification", func(t *testing.T) {
		user, session, err := svc.Login(ctx, auth.LoginInput{Email: "flow@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, "flow@example.com", user.Email)

		resolved, err := tc.Sessions.Resolve(ctx, session.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, resolved.ID)
	})

	t.Run("credential failures are indistinguishable", func(t *testing.T) {
		_, _, wrongPassword := svc.Login(ctx, auth.LoginInput{Email: "flow@example.com", Password: "nope-nope"})
		_, _, unknownEmail := svc.Login(ctx, auth.LoginInput{Email: "ghost@example.com", Password: "password123"})

		assert.ErrorIs(t, wrongPassword, auth.ErrInvalidCredentials)
		assert.ErrorIs(t, unknownEmail, auth.ErrInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	})

	t.Run("account without password cannot log in", func(t *testing.T) {
		require.NoError(t, tc.Store.Users().Create(ctx, &models.User{Email: "oauth@example.com", Name: "OAuth", IsVerified: true}))

		_, _, err := svc.Login(ctx, auth.LoginInput{Email: "oauth@example.com", Password: ""})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestService_Verify_LinkForAnotherUser(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	notifier := &recordingNotifier{}
	svc := newAccountService(tc, notifier)

	victim, err := svc.Signup(ctx, auth.SignupInput{Email: "victim@example.com", Password: "password123", Name: "V"})
	require.NoError(t, err)

	forged, err := auth.NewLinkSigner("link-secret", time.Hour).Sign(tc.User.ID, *victim.VerificationToken)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, forged)
	assert.ErrorIs(t, err, auth.ErrInvalidVerification)
}

func TestService_ResendVerification(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	notifier := &recordingNotifier{}
	svc := newAccountService(tc, notifier)

	user, err := svc.Signup(ctx, auth.SignupInput{Email: "late@example.com", Password: "password123", Name: "Late"})
	require.NoError(t, err)

	t.Run("expired link is refused", func(t *testing.T) {
		past := time.Now().Add(-72 * time.Hour)
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.LinkClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        *user.VerificationToken,
				Subject:   user.ID,
				IssuedAt:  jwt.NewNumericDate(past),
				ExpiresAt: jwt.NewNumericDate(past.Add(48 * time.Hour)),
			},
		}).SignedString([]byte("link-secret"))
		require.NoError(t, err)

		_, err = svc.Verify(ctx, expired)
		assert.ErrorIs(t, err, auth.ErrInvalidVerification)
	})

	t.Run("fresh link verifies the same account", func(t *testing.T) {
		notifier.links = nil
		require.NoError(t, svc.ResendVerification(ctx, "late@example.com"))

		token := notifier.linkToken(t, "late@example.com")
		require.NotEmpty(t, token)

		already, err := svc.Verify(ctx, token)
		require.NoError(t, err)
		assert.False(t, already)

		_, _, err = svc.Login(ctx, auth.LoginInput{Email: "late@example.com", Password: "password123"})
		assert.NoError(t, err)
	})

	t.Run("verified and unknown emails are a no-op", func(t *testing.T) {
		notifier.links = nil
		require.NoError(t, svc.ResendVerification(ctx, "late@example.com"))
		require.NoError(t, svc.ResendVerification(ctx, "ghost@example.com"))
		assert.Empty(t, notifier.links)
	})

	t.Run("delivery failure is reported", func(t *testing.T) {
		_, err := svc.Signup(ctx, auth.SignupInput{Email: "bounce@example.com", Password: "password123", Name: "B"})
		require.NoError(t, err)

		notifier.err = errors.New("smtp down")
		defer func() { notifier.err = nil }()
		assert.Error(t, svc.ResendVerification(ctx, "bounce@example.com"))
	})
}

func TestService_Logout(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	svc := newAccountService(tc, nil)

	require.NoError(t, svc.Logout(ctx, tc.Token))
	require.NoError(t, svc.Logout(ctx, tc.Token))
	require.NoError(t, svc.Logout(ctx, ""))
}
