package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "culturetrail/pkg/domain-errors"
)

func TestTokenService(t *testing.T) {
	svc := NewTokenService("test-signing-key", "culturetrail-test")

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.Issue("user-1", time.Hour)
		require.NoError(t, err)

		userID, err := svc.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID.String())
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := svc.Issue("user-1", -time.Minute)
		require.NoError(t, err)

		_, err = svc.Validate(token)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		other := NewTokenService("different-key", "culturetrail-test")
		token, err := other.Issue("user-1", time.Hour)
		require.NoError(t, err)

		_, err = svc.Validate(token)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := svc.Validate("not-a-token")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})
}
