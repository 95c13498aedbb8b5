package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates active store with upper-case code", func(t *testing.T) {
		store, err := NewStore(tenantID, "dt-01", "Downtown")
		require.NoError(t, err)
		assert.Equal(t, "DT-01", store.Code)
		assert.Equal(t, "Downtown", store.Name)
		assert.Equal(t, StoreStatusActive, store.Status)
		assert.False(t, store.IsMain)
		assert.Equal(t, 1, store.Version)
		assert.NotEqual(t, uuid.Nil, store.ID)
	})

	t.Run("rejects empty tenant", func(t *testing.T) {
		_, err := NewStore(uuid.Nil, "A", "Store")
		assert.Error(t, err)
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := NewStore(tenantID, "  ", "Store")
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewStore(tenantID, "A", "")
		assert.Error(t, err)
	})
}

func TestStore_MainFlag(t *testing.T) {
	store, err := NewStore(uuid.New(), "WH", "Warehouse")
	require.NoError(t, err)

	store.MarkMain()
	assert.True(t, store.IsMain)
	assert.Equal(t, 2, store.Version)

	store.MarkMain()
	assert.Equal(t, 2, store.Version, "marking twice is a no-op")

	err = store.Deactivate()
	assert.Error(t, err, "main store cannot be deactivated")

	store.ClearMain()
	assert.False(t, store.IsMain)
	require.NoError(t, store.Deactivate())
	assert.False(t, store.IsActive())
}

func TestNewSupplier(t *testing.T) {
	supplier, err := NewSupplier(uuid.New(), " Acme Foods ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Foods", supplier.Name)

	assert.Error(t, supplier.SetContact("Jo", "123", "not-an-email"))
	require.NoError(t, supplier.SetContact("Jo", "123", "jo@acme.test"))
	assert.Equal(t, "jo@acme.test", supplier.Email)

	_, err = NewSupplier(uuid.New(), "")
	assert.Error(t, err)
}
