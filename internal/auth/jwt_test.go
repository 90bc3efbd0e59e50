package auth_test

import (
	"testing"
	"time"

	"github.com/hugh/go-folio/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkSigner_Sign(t *testing.T) {
	signer := auth.NewLinkSigner("test-secret", 48*time.Hour)

	t.Run("generates valid token", func(t *testing.T) {
		token, err := signer.Sign("user_abc123def456", "deadbeef")
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := signer.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "user_abc123def456", claims.Subject)
		assert.Equal(t, "deadbeef", claims.ID)
	})

	t.Run("token contains correct issuer", func(t *testing.T) {
		token, err := signer.Sign("user_1", "tok")
		require.NoError(t, err)

		claims, err := signer.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "go-folio", claims.Issuer)
	})
}

func TestLinkSigner_Parse(t *testing.T) {
	t.Run("rejects expired token", func(t *testing.T) {
		signer := auth.NewLinkSigner("test-secret", time.Millisecond)

		token, err := signer.Sign("user_1", "tok")
		require.NoError(t, err)

		time.Sleep(1100 * time.Millisecond)

		_, err = signer.Parse(token)
		assert.Equal(t, auth.ErrExpiredToken, err)
	})

	t.Run("rejects tampered token", func(t *testing.T) {
		signer := auth.NewLinkSigner("test-secret", time.Hour)

		token, err := signer.Sign("user_1", "tok")
		require.NoError(t, err)

		_, err = signer.Parse(token + "tampered")
		assert.Equal(t, auth.ErrInvalidToken, err)
	})

	t.Run("rejects token signed with different secret", func(t *testing.T) {
		token, err := auth.NewLinkSigner("secret-1", time.Hour).Sign("user_1", "tok")
		require.NoError(t, err)

		_, err = auth.NewLinkSigner("secret-2", time.Hour).Parse(token)
		assert.Equal(t, auth.ErrInvalidToken, err)
	})

	t.Run("rejects token without verification id", func(t *testing.T) {
		signer := auth.NewLinkSigner("test-secret", time.Hour)

		token, err := signer.Sign("user_1", "")
		require.NoError(t, err)

		_, err = signer.Parse(token)
		assert.Equal(t, auth.ErrInvalidToken, err)
	})

	t.Run("rejects malformed and empty tokens", func(t *testing.T) {
		signer := auth.NewLinkSigner("test-secret", time.Hour)

		_, err := signer.Parse("not-a-valid-jwt")
		assert.Equal(t, auth.ErrInvalidToken, err)

		_, err = signer.Parse("")
		assert.Equal(t, auth.ErrInvalidToken, err)
	})
}
