package inventory

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	csvimport "github.com/erp/pos/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMaxImportRows caps a single stock-in upload
const DefaultMaxImportRows = 1000

// StockImportResult summarizes a bulk stock-in upload
type StockImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

type stockAdder interface {
	AddStock(ctx context.Context, tenantID uuid.UUID, req AddStockRequest) (*StockMovementResponse, error)
}

// StockImportService books a CSV of stock receipts through the ledger.
// The whole file is validated before the first row is written; after that
// each row is its own stock-in and a failing row does not stop the rest.
type StockImportService struct {
	ledger    stockAdder
	validator *csvimport.RowValidator
	maxRows   int
}

// NewStockImportService creates a StockImportService
func NewStockImportService(ledger stockAdder) *StockImportService {
	return &StockImportService{
		ledger:    ledger,
		validator: csvimport.NewRowValidator(StockInImportRules()...),
		maxRows:   DefaultMaxImportRows,
	}
}

// WithMaxRows overrides the per-upload row limit
func (s *StockImportService) WithMaxRows(n int) *StockImportService {
	if n > 0 {
		s.maxRows = n
	}
	return s
}

// StockInImportRules returns the column rules of a stock-in upload
func StockInImportRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("product_id").Required().UUID().Build(),
		csvimport.Field("store_id").Required().UUID().Build(),
		csvimport.Field("quantity").Required().Int().MinValue(decimal.NewFromInt(1)).MaxValue(decimal.NewFromInt(inventory.MaxQuantity)).Build(),
		csvimport.Field("supplier_id").UUID().Build(),
		csvimport.Field("unit_cost").Decimal().MinValue(decimal.Zero).Build(),
		csvimport.Field("notes").MaxLength(1000).Build(),
	}
}

func invalidCSV(msg string) error {
	return shared.NewDomainError("INVALID_CSV", msg)
}

// ImportStockIn parses, validates and books the upload for the acting user
func (s *StockImportService) ImportStockIn(ctx context.Context, tenantID, userID uuid.UUID, r io.Reader) (*StockImportResult, error) {
	parser, err := csvimport.NewParser(r)
	if err != nil {
		return nil, invalidCSV(err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, invalidCSV(err.Error())
	}
	if missing := parser.MissingHeaders(s.validator.RequiredColumns()); len(missing) > 0 {
		return nil, invalidCSV("missing required columns: " + strings.Join(missing, ", "))
	}

	rows, err := parser.ReadAll(s.maxRows)
	if err != nil {
		return nil, invalidCSV(err.Error())
	}
	if len(rows) == 0 {
		return nil, invalidCSV(csvimport.ErrNoDataRows.Error())
	}

	result := &StockImportResult{TotalRows: len(rows)}
	ec := csvimport.NewErrorCollection(100)
	for _, row := range rows {
		s.validator.Validate(row, ec)
	}
	if ec.HasErrors() {
		return finishImport(result, ec), nil
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := s.ledger.AddStock(ctx, tenantID, stockInFromRow(row, userID)); err != nil {
			ec.Add(rowFailure(row.Line, err))
			continue
		}
		result.ImportedRows++
	}
	return finishImport(result, ec), nil
}

func finishImport(result *StockImportResult, ec *csvimport.ErrorCollection) *StockImportResult {
	result.ErrorRows = ec.RowCount()
	result.Errors = ec.Errors()
	result.IsTruncated = ec.IsTruncated()
	result.TotalErrors = ec.TotalCount()
	return result
}

// stockInFromRow converts a row that already passed validation
func stockInFromRow(row *csvimport.Row, userID uuid.UUID) AddStockRequest {
	qty, _ := strconv.Atoi(row.Get("quantity"))
	req := AddStockRequest{
		ProductID: uuid.MustParse(row.Get("product_id")),
		StoreID:   uuid.MustParse(row.Get("store_id")),
		Quantity:  qty,
		Notes:     row.Get("notes"),
		UserID:    userID,
	}
	if v := row.Get("supplier_id"); v != "" {
		id := uuid.MustParse(v)
		req.SupplierID = &id
	}
	if v := row.Get("unit_cost"); v != "" {
		cost := decimal.RequireFromString(v)
		req.UnitCost = &cost
	}
	return req
}

func rowFailure(line int, err error) csvimport.RowError {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return csvimport.NewRowError(line, "", domainErr.Code, domainErr.Message)
	}
	return csvimport.NewRowError(line, "", csvimport.ErrCodeImportRowFailed, "stock-in failed")
}
