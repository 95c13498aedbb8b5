package csvimport

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testValidator() *RowValidator {
	return NewRowValidator(
		Field("product_id").Required().UUID().Build(),
		Field("quantity").Required().Int().MinValue(decimal.NewFromInt(1)).MaxValue(decimal.NewFromInt(1000)).Build(),
		Field("unit_cost").Decimal().MinValue(decimal.Zero).Build(),
		Field("notes").MaxLength(5).Build(),
	)
}

func row(line int, data map[string]string) *Row {
	return &Row{Line: line, Data: data}
}

func TestRowValidator_RequiredColumns(t *testing.T) {
	assert.Equal(t, []string{"product_id", "quantity"}, testValidator().RequiredColumns())
}

func TestRowValidator_Validate(t *testing.T) {
	tests := []struct {
		name   string
		data   map[string]string
		codes  []string
		column string
	}{
		{
			name: "valid row",
			data: map[string]string{"product_id": "0b9f7a36-63f4-4f0e-9d3e-0c4d1c8ff7a1", "quantity": "3", "unit_cost": "1.25", "notes": "ok"},
		},
		{
			name:   "missing required",
			data:   map[string]string{"quantity": "3"},
			codes:  []string{ErrCodeImportRequiredField},
			column: "product_id",
		},
		{
			name:   "bad uuid",
			data:   map[string]string{"product_id": "abc", "quantity": "3"},
			codes:  []string{ErrCodeImportInvalidType},
			column: "product_id",
		},
		{
			name:   "quantity not an integer",
			data:   map[string]string{"product_id": "0b9f7a36-63f4-4f0e-9d3e-0c4d1c8ff7a1", "quantity": "2.5"},
			codes:  []string{ErrCodeImportInvalidType},
			column: "quantity",
		},
		{
			name:   "quantity below minimum",
			data:   map[string]string{"product_id": "0b9f7a36-63f4-4f0e-9d3e-0c4d1c8ff7a1", "quantity": "0"},
			codes:  []string{ErrCodeImportInvalidRange},
			column: "quantity",
		},
		{
			name:   "quantity above maximum",
			data:   map[string]string{"product_id": "0b9f7a36-63f4-4f0e-9d3e-0c4d1c8ff7a1", "quantity": "1001"},
			codes:  []string{ErrCodeImportInvalidRange},
			column: "quantity",
		},
		{
			name:   "negative cost",
			data:   map[string]string{"product_id": "0b9f7a36-63f4-4f0e-9d3e-0c4d1c8ff7a1", "quantity": "1", "unit_cost": "-0.01"},
			codes:  []string{ErrCodeImportInvalidRange},
			column: "unit_cost",
		},
		{
			name:   "notes too long",
			data:   map[string]string{"product_id": "0b9f7a36-63f4-4f0e-9d3e-0c4d1c8ff7a1", "quantity": "1", "notes": "ééééééé"},
			codes:  []string{ErrCodeImportInvalidLength},
			column: "notes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := NewErrorCollection(10)
			ok := testValidator().Validate(row(2, tt.data), ec)

			assert.Equal(t, len(tt.codes) == 0, ok)
			require.Len(t, ec.Errors(), len(tt.codes))
			for i, code := range tt.codes {
				assert.Equal(t, code, ec.Errors()[i].Code)
				assert.Equal(t, tt.column, ec.Errors()[i].Column)
				assert.Equal(t, 2, ec.Errors()[i].Row)
			}
		})
	}
}

func TestRowValidator_ValidateReportsPerRow(t *testing.T) {
	v := testValidator()
	ec := NewErrorCollection(10)

	assert.False(t, v.Validate(row(2, map[string]string{}), ec))
	assert.True(t, v.Validate(row(3, map[string]string{"product_id": "0b9f7a36-63f4-4f0e-9d3e-0c4d1c8ff7a1", "quantity": "1"}), ec))
	assert.Equal(t, 1, ec.RowCount())
	assert.Equal(t, 2, ec.TotalCount())
}
