package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Row-level error codes
const (
	ErrCodeImportRequiredField = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidType   = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeImportInvalidLength = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeImportInvalidRange  = "ERR_IMPORT_INVALID_RANGE"
	ErrCodeImportRowFailed     = "ERR_IMPORT_ROW_FAILED"
)

var (
	// ErrEmptyFile is returned when the upload has no content
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned for input that is not UTF-8
	ErrInvalidEncoding = errors.New("CSV file must be UTF-8 encoded")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrNoDataRows is returned when the CSV file has no data rows
	ErrNoDataRows = errors.New("CSV file contains no data rows")

	// ErrTooManyRows is returned when the upload exceeds the row limit
	ErrTooManyRows = errors.New("CSV file has too many rows")

	// ErrMalformedRow wraps encoding/csv record errors
	ErrMalformedRow = errors.New("malformed CSV row")
)

// RowError reports a problem with one row, optionally one column of it
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a new RowError
func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

// ErrorCollection keeps the first maxErrors row errors and counts the rest
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
	rows       map[int]struct{}
}

// NewErrorCollection creates a collection; a non-positive limit means 100
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
		rows:      make(map[int]struct{}),
	}
}

// Add records an error
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	ec.rows[err.Row] = struct{}{}
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequiredError adds a required field error
func (ec *ErrorCollection) AddRequiredError(row int, column string) {
	ec.Add(NewRowError(row, column, ErrCodeImportRequiredField, fmt.Sprintf("field '%s' is required", column)))
}

// AddTypeError adds a type validation error
func (ec *ErrorCollection) AddTypeError(row int, column, expectedType, value string) {
	e := NewRowError(row, column, ErrCodeImportInvalidType, fmt.Sprintf("expected %s", expectedType))
	e.Value = value
	ec.Add(e)
}

// AddLengthError adds a maximum length error
func (ec *ErrorCollection) AddLengthError(row int, column string, maxLen int) {
	ec.Add(NewRowError(row, column, ErrCodeImportInvalidLength, fmt.Sprintf("length must be at most %d", maxLen)))
}

// AddRangeError adds a minimum value error
func (ec *ErrorCollection) AddRangeError(row int, column, min, value string) {
	e := NewRowError(row, column, ErrCodeImportInvalidRange, fmt.Sprintf("value must be at least %s", min))
	e.Value = value
	ec.Add(e)
}

// AddMaxRangeError adds a value-above-maximum error
func (ec *ErrorCollection) AddMaxRangeError(row int, column, max, value string) {
	e := NewRowError(row, column, ErrCodeImportInvalidRange, fmt.Sprintf("value must be at most %s", max))
	e.Value = value
	ec.Add(e)
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the number of errors including those not kept
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// RowCount returns how many distinct rows had at least one error
func (ec *ErrorCollection) RowCount() int {
	return len(ec.rows)
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated returns true if some errors were dropped by the limit
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}

func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", ec.totalCount)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", ec.maxErrors)
	}
	sb.WriteString(":\n")
	for _, err := range ec.errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}
