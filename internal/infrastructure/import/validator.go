package csvimport

import (
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a column
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeUUID    FieldType = "uuid"
)

// FieldRule defines validation for one column
type FieldRule struct {
	Column    string
	Type      FieldType
	Required  bool
	MaxLength int
	MinValue  *decimal.Decimal
	MaxValue  *decimal.Decimal
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a string rule for a column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Int sets the field type to integer
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal sets the field type to decimal
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// UUID sets the field type to UUID
func (b *FieldRuleBuilder) UUID() *FieldRuleBuilder {
	b.rule.Type = TypeUUID
	return b
}

// MaxLength caps the length in runes
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// MinValue sets the smallest accepted numeric value
func (b *FieldRuleBuilder) MinValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	return b
}

// MaxValue sets the largest accepted numeric value
func (b *FieldRuleBuilder) MaxValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MaxValue = &v
	return b
}

// Build returns the rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// RowValidator applies a fixed rule set to parsed rows
type RowValidator struct {
	rules []FieldRule
}

// NewRowValidator creates a validator for the given rules
func NewRowValidator(rules ...FieldRule) *RowValidator {
	return &RowValidator{rules: rules}
}

// RequiredColumns lists the columns the header row must carry
func (v *RowValidator) RequiredColumns() []string {
	var cols []string
	for _, r := range v.rules {
		if r.Required {
			cols = append(cols, r.Column)
		}
	}
	return cols
}

// Validate checks every rule against the row and reports whether it passed
func (v *RowValidator) Validate(row *Row, ec *ErrorCollection) bool {
	before := ec.TotalCount()
	for _, rule := range v.rules {
		validateField(row, rule, ec)
	}
	return ec.TotalCount() == before
}

func validateField(row *Row, rule FieldRule, ec *ErrorCollection) {
	value := row.Get(rule.Column)
	if value == "" {
		if rule.Required {
			ec.AddRequiredError(row.Line, rule.Column)
		}
		return
	}

	switch rule.Type {
	case TypeString:
		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			ec.AddLengthError(row.Line, rule.Column, rule.MaxLength)
		}
	case TypeUUID:
		if _, err := uuid.Parse(value); err != nil {
			ec.AddTypeError(row.Line, rule.Column, "UUID", value)
		}
	case TypeInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			ec.AddTypeError(row.Line, rule.Column, "integer", value)
			return
		}
		checkRange(row.Line, rule, decimal.NewFromInt(int64(n)), value, ec)
	case TypeDecimal:
		d, err := decimal.NewFromString(value)
		if err != nil {
			ec.AddTypeError(row.Line, rule.Column, "decimal", value)
			return
		}
		checkRange(row.Line, rule, d, value, ec)
	}
}

func checkRange(line int, rule FieldRule, v decimal.Decimal, raw string, ec *ErrorCollection) {
	if rule.MinValue != nil && v.LessThan(*rule.MinValue) {
		ec.AddRangeError(line, rule.Column, rule.MinValue.String(), raw)
		return
	}
	if rule.MaxValue != nil && v.GreaterThan(*rule.MaxValue) {
		ec.AddMaxRangeError(line, rule.Column, rule.MaxValue.String(), raw)
	}
}
