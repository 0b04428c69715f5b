package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("creates active tenant with uppercased code", func(t *testing.T) {
		tenant, err := NewTenant("acme1", "Acme Trading")

		require.NoError(t, err)
		assert.Equal(t, "ACME1", tenant.Code)
		assert.Equal(t, "Acme Trading", tenant.Name)
		assert.True(t, tenant.IsActive())
		assert.Equal(t, 1, tenant.Version)
	})

	t.Run("rejects invalid codes", func(t *testing.T) {
		for _, code := range []string{"", "1acme", "ac me", "ac-me", "ac@me"} {
			_, err := NewTenant(code, "Acme Trading")
			assert.Error(t, err, "code %q", code)
		}
	})

	t.Run("rejects blank name", func(t *testing.T) {
		_, err := NewTenant("acme", "   ")
		assert.Error(t, err)
	})
}

func TestTenant_Deactivate(t *testing.T) {
	tenant, err := NewTenant("acme", "Acme Trading")
	require.NoError(t, err)

	tenant.Deactivate()

	assert.False(t, tenant.IsActive())
	assert.Equal(t, 2, tenant.Version)
}
