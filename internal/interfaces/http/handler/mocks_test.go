package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"

	catalogapp "github.com/erp/pos/internal/application/catalog"
	identityapp "github.com/erp/pos/internal/application/identity"
	inventoryapp "github.com/erp/pos/internal/application/inventory"
	partnerapp "github.com/erp/pos/internal/application/partner"
	"github.com/erp/pos/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockStockLedger struct {
	mock.Mock
}

func (m *MockStockLedger) AddStock(ctx context.Context, tenantID uuid.UUID, req inventoryapp.AddStockRequest) (*inventoryapp.StockMovementResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.StockMovementResponse), args.Error(1)
}

func (m *MockStockLedger) RemoveStock(ctx context.Context, tenantID uuid.UUID, req inventoryapp.RemoveStockRequest) (*inventoryapp.StockMovementResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.StockMovementResponse), args.Error(1)
}

func (m *MockStockLedger) TransferStock(ctx context.Context, tenantID uuid.UUID, req inventoryapp.TransferStockRequest) (*inventoryapp.TransferResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.TransferResponse), args.Error(1)
}

func (m *MockStockLedger) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter inventoryapp.TransactionListFilter) ([]inventoryapp.TransactionResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventoryapp.TransactionResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockLedger) ListTransfers(ctx context.Context, tenantID uuid.UUID, filter inventoryapp.TransferListFilter) ([]inventoryapp.TransferResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventoryapp.TransferResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockLedger) GetTransferDetails(ctx context.Context, tenantID, transferID uuid.UUID) (*inventoryapp.TransferResponse, error) {
	args := m.Called(ctx, tenantID, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.TransferResponse), args.Error(1)
}

func (m *MockStockLedger) GetStockLevel(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*inventoryapp.InventoryResponse, error) {
	args := m.Called(ctx, tenantID, productID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.InventoryResponse), args.Error(1)
}

func (m *MockStockLedger) ListInventory(ctx context.Context, tenantID uuid.UUID, filter inventoryapp.InventoryListFilter) ([]inventoryapp.InventoryResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventoryapp.InventoryResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockLedger) SetLowStockThreshold(ctx context.Context, tenantID, productID, storeID uuid.UUID, req inventoryapp.SetThresholdRequest) (*inventoryapp.InventoryResponse, error) {
	args := m.Called(ctx, tenantID, productID, storeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.InventoryResponse), args.Error(1)
}

func (m *MockStockLedger) Reconcile(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*inventoryapp.ReconcileResponse, error) {
	args := m.Called(ctx, tenantID, productID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.ReconcileResponse), args.Error(1)
}

type MockStoreService struct {
	mock.Mock
}

func (m *MockStoreService) Create(ctx context.Context, tenantID uuid.UUID, req partnerapp.CreateStoreRequest) (*partnerapp.StoreResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.StoreResponse), args.Error(1)
}

func (m *MockStoreService) GetByID(ctx context.Context, tenantID, storeID uuid.UUID) (*partnerapp.StoreResponse, error) {
	args := m.Called(ctx, tenantID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.StoreResponse), args.Error(1)
}

func (m *MockStoreService) List(ctx context.Context, tenantID uuid.UUID, filter partnerapp.StoreListFilter) ([]partnerapp.StoreResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]partnerapp.StoreResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockStoreService) SetMain(ctx context.Context, tenantID, storeID uuid.UUID) (*partnerapp.StoreResponse, error) {
	args := m.Called(ctx, tenantID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.StoreResponse), args.Error(1)
}

type MockSupplierService struct {
	mock.Mock
}

func (m *MockSupplierService) Create(ctx context.Context, tenantID uuid.UUID, req partnerapp.CreateSupplierRequest) (*partnerapp.SupplierResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.SupplierResponse), args.Error(1)
}

func (m *MockSupplierService) GetByID(ctx context.Context, tenantID, supplierID uuid.UUID) (*partnerapp.SupplierResponse, error) {
	args := m.Called(ctx, tenantID, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.SupplierResponse), args.Error(1)
}

func (m *MockSupplierService) List(ctx context.Context, tenantID uuid.UUID, filter partnerapp.SupplierListFilter) ([]partnerapp.SupplierResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]partnerapp.SupplierResponse), args.Get(1).(int64), args.Error(2)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, tenantID uuid.UUID, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, tenantID uuid.UUID, filter catalogapp.ProductListFilter) ([]catalogapp.ProductResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalogapp.ProductResponse), args.Get(1).(int64), args.Error(2)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, tenantID uuid.UUID, req identityapp.CreateUserRequest) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, tenantID uuid.UUID, filter identityapp.UserListFilter) ([]identityapp.UserResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]identityapp.UserResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) VerifyPIN(ctx context.Context, tenantID, userID uuid.UUID, pin string) (bool, error) {
	args := m.Called(ctx, tenantID, userID, pin)
	return args.Bool(0), args.Error(1)
}

// testRequest carries the identity headers every API call needs
type testRequest struct {
	tenantID uuid.UUID
	userID   uuid.UUID
}

func (tr testRequest) do(r *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tr.tenantID != uuid.Nil {
		req.Header.Set(middleware.TenantHeaderKey, tr.tenantID.String())
	}
	if tr.userID != uuid.Nil {
		req.Header.Set(middleware.UserHeaderKey, tr.userID.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type MockStockImporter struct {
	mock.Mock
}

func (m *MockStockImporter) ImportStockIn(ctx context.Context, tenantID, userID uuid.UUID, r io.Reader) (*inventoryapp.StockImportResult, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, tenantID, userID, string(body))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.StockImportResult), args.Error(1)
}
