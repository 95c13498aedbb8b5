package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	tenantID := uuid.New()

	t.Run("normalizes sku", func(t *testing.T) {
		p, err := NewProduct(tenantID, " cola-330 ", "Cola 330ml")
		require.NoError(t, err)
		assert.Equal(t, "COLA-330", p.SKU)
		assert.Equal(t, ProductStatusActive, p.Status)
		assert.True(t, p.Price.IsZero())
	})

	invalid := []struct {
		name string
		sku  string
		pn   string
	}{
		{"empty sku", "", "Cola"},
		{"sku with space", "CO LA", "Cola"},
		{"empty name", "COLA", "  "},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(tenantID, tt.sku, tt.pn)
			assert.Error(t, err)
		})
	}
}

func TestProduct_SetPrices(t *testing.T) {
	p, err := NewProduct(uuid.New(), "TEA", "Green tea")
	require.NoError(t, err)

	require.NoError(t, p.SetPrices(decimal.RequireFromString("3.50"), decimal.RequireFromString("1.20")))
	assert.True(t, p.Margin().Equal(decimal.RequireFromString("2.30")))

	assert.Error(t, p.SetPrices(decimal.NewFromInt(-1), decimal.Zero))
	assert.Error(t, p.SetPrices(decimal.Zero, decimal.NewFromInt(-1)))
}

func TestProduct_SetBarcodeAndCategory(t *testing.T) {
	p, _ := NewProduct(uuid.New(), "TEA", "Green tea")

	require.NoError(t, p.SetBarcode(" 4006381333931 "))
	assert.Equal(t, "4006381333931", p.Barcode)

	categoryID := uuid.New()
	p.SetCategory(&categoryID)
	assert.Equal(t, categoryID, *p.CategoryID)
	p.SetCategory(nil)
	assert.Nil(t, p.CategoryID)
}
