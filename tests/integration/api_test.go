//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	catalogapp "github.com/erp/pos/internal/application/catalog"
	identityapp "github.com/erp/pos/internal/application/identity"
	inventoryapp "github.com/erp/pos/internal/application/inventory"
	partnerapp "github.com/erp/pos/internal/application/partner"
	"github.com/erp/pos/internal/infrastructure/auth"
	"github.com/erp/pos/internal/infrastructure/cache"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/erp/pos/internal/infrastructure/event"
	"github.com/erp/pos/internal/infrastructure/persistence"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/erp/pos/internal/interfaces/http/handler"
	"github.com/erp/pos/internal/interfaces/http/middleware"
	"github.com/erp/pos/internal/interfaces/http/router"
	"github.com/erp/pos/tests/testutil"
)

// newAPIServer wires the HTTP stack the way the server binary does, with the
// Redis-backed idempotency store and stock cache.
func newAPIServer(t *testing.T, tdb *TestDB) http.Handler {
	t.Helper()
	return newAPIServerWithVerifier(t, tdb, nil)
}

// newAPIServerWithVerifier takes identity from bearer tokens when verifier is set
func newAPIServerWithVerifier(t *testing.T, tdb *TestDB, verifier middleware.TokenVerifier) http.Handler {
	t.Helper()

	log := zap.NewNop()
	client := NewTestRedis(t)
	idempotencyStore := cache.NewRedisIdempotencyStore(client, "pos:test:"+uuid.NewString()+":")
	stockCache := cache.NewRedisStockLevelCache(client, time.Minute)

	ledger := inventoryapp.NewStockLedgerService(
		persistence.NewGormInventoryRepository(tdb.DB),
		persistence.NewGormInventoryTransactionRepository(tdb.DB),
		persistence.NewGormStockTransferRepository(tdb.DB),
		persistence.NewGormTransactionScope(tdb.DB),
	)
	ledger.SetStockLevelCache(stockCache)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewIdempotentHandler(inventoryapp.NewStockCacheInvalidator(stockCache, log), idempotencyStore, log))
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })
	ledger.SetEventPublisher(bus)

	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())

	r := router.NewRouter(engine)
	tenantCfg := middleware.DefaultTenantConfig()
	tenantCfg.Verifier = verifier
	r.Use(middleware.TenantMiddlewareWithConfig(tenantCfg))
	r.Use(middleware.RateLimit(middleware.NewRedisRateLimiter(client, 1000, time.Minute), log))

	router.RegisterAPI(engine, r, router.Handlers{
		Stock:    handler.NewStockHandler(ledger).WithImporter(inventoryapp.NewStockImportService(ledger)),
		Stores:   handler.NewStoreHandler(partnerapp.NewStoreService(persistence.NewGormStoreRepository(tdb.DB))),
		Supplier: handler.NewSupplierHandler(partnerapp.NewSupplierService(persistence.NewGormSupplierRepository(tdb.DB))),
		Products: handler.NewProductHandler(catalogapp.NewProductService(persistence.NewGormProductRepository(tdb.DB))),
		Users:    handler.NewUserHandler(identityapp.NewUserService(persistence.NewGormUserRepository(tdb.DB))),
		System: handler.NewSystemHandler("pos-inventory", "test", handler.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}),
	}, middleware.Idempotency(middleware.IdempotencyConfig{
		Store:  idempotencyStore,
		TTL:    time.Hour,
		Logger: log,
	}))
	return engine
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

func createID(t *testing.T, c *testutil.APIClient, target string, body interface{}) uuid.UUID {
	t.Helper()
	w := c.Do(t, http.MethodPost, target, body)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return testutil.DecodeResponse[idResponse](t, w).Data.ID
}

func TestAPI_StockFlow(t *testing.T) {
	tdb := NewSharedTestDB(t)
	engine := newAPIServer(t, tdb)

	tenantID := uuid.New()
	bootstrap := testutil.NewAPIClient(engine, tenantID, uuid.Nil)

	userID := createID(t, bootstrap, "/api/v1/users", map[string]string{
		"username":  "cashier",
		"full_name": "Cashier One",
		"pin":       "4321",
	})
	c := testutil.NewAPIClient(engine, tenantID, userID)

	storeA := createID(t, c, "/api/v1/stores", map[string]interface{}{"code": "DT", "name": "Downtown", "is_main": true})
	storeB := createID(t, c, "/api/v1/stores", map[string]string{"code": "AP", "name": "Airport"})
	supplierID := createID(t, c, "/api/v1/suppliers", map[string]string{"name": "Roastery", "email": "orders@roastery.test"})
	productID := createID(t, c, "/api/v1/products", map[string]string{"sku": "ESP-1", "name": "Espresso Beans", "price": "12.50"})

	t.Run("stock in", func(t *testing.T) {
		w := c.Do(t, http.MethodPost, "/api/v1/inventory/stock-in", map[string]interface{}{
			"product_id":  productID,
			"store_id":    storeA,
			"quantity":    20,
			"supplier_id": supplierID,
			"unit_cost":   "7.10",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		env := testutil.DecodeResponse[inventoryapp.StockMovementResponse](t, w)
		assert.Equal(t, 20, env.Data.Inventory.Quantity)
		assert.Equal(t, userID, env.Data.Transaction.UserID)
	})

	t.Run("stock level is cached then invalidated by a stock out", func(t *testing.T) {
		levelURL := fmt.Sprintf("/api/v1/inventory/stores/%s/products/%s", storeA, productID)

		w := c.Do(t, http.MethodGet, levelURL, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 20, testutil.DecodeResponse[inventoryapp.InventoryResponse](t, w).Data.Quantity)

		w = c.Do(t, http.MethodPost, "/api/v1/inventory/stock-out", map[string]interface{}{
			"product_id": productID,
			"store_id":   storeA,
			"quantity":   5,
			"reason":     "sale",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = c.Do(t, http.MethodGet, levelURL, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 15, testutil.DecodeResponse[inventoryapp.InventoryResponse](t, w).Data.Quantity)
	})

	t.Run("stock out beyond balance is rejected", func(t *testing.T) {
		w := c.Do(t, http.MethodPost, "/api/v1/inventory/stock-out", map[string]interface{}{
			"product_id": productID,
			"store_id":   storeA,
			"quantity":   500,
		})
		testutil.RequireErrorCode(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock)
	})

	t.Run("transfer and details", func(t *testing.T) {
		transferID := createID(t, c, "/api/v1/inventory/transfers", map[string]interface{}{
			"product_id":           productID,
			"source_store_id":      storeA,
			"destination_store_id": storeB,
			"quantity":             6,
		})

		w := c.Do(t, http.MethodGet, "/api/v1/inventory/transfers/"+transferID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		details := testutil.DecodeResponse[inventoryapp.TransferResponse](t, w).Data
		assert.Equal(t, "Downtown", details.SourceStoreName)
		assert.Equal(t, "Airport", details.DestinationStoreName)
		assert.Equal(t, "Cashier One", details.UserName)
		require.Len(t, details.Items, 1)
		assert.Equal(t, "ESP-1", details.Items[0].ProductSKU)
	})

	t.Run("ledger listing and reconcile", func(t *testing.T) {
		w := c.Do(t, http.MethodGet, "/api/v1/inventory/transactions?store_id="+storeA.String()+"&page_size=2", nil)
		require.Equal(t, http.StatusOK, w.Code)
		env := testutil.DecodeResponse[[]inventoryapp.TransactionResponse](t, w)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(3), env.Meta.Total)
		assert.Equal(t, 2, env.Meta.TotalPages)
		assert.Len(t, env.Data, 2)

		for _, store := range []uuid.UUID{storeA, storeB} {
			w = c.Do(t, http.MethodGet, fmt.Sprintf("/api/v1/inventory/stores/%s/products/%s/reconcile", store, productID), nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.True(t, testutil.DecodeResponse[inventoryapp.ReconcileResponse](t, w).Data.Consistent)
		}
	})

	t.Run("verify pin", func(t *testing.T) {
		w := c.Do(t, http.MethodPost, "/api/v1/users/"+userID.String()+"/verify-pin", map[string]string{"pin": "4321"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, testutil.DecodeResponse[handler.VerifyPINResponse](t, w).Data.Valid)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		other := testutil.NewAPIClient(engine, uuid.New(), userID)
		w := other.Do(t, http.MethodGet, fmt.Sprintf("/api/v1/inventory/stores/%s/products/%s", storeA, productID), nil)
		testutil.RequireErrorCode(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}

func TestAPI_IdempotentStockIn(t *testing.T) {
	tdb := NewSharedTestDB(t)
	engine := newAPIServer(t, tdb)

	tenantID := uuid.New()
	c := testutil.NewAPIClient(engine, tenantID, tdb.CreateTestUser(tenantID, "Cashier"))
	productID := tdb.CreateTestProduct(tenantID, "Oat Milk")
	storeID := tdb.CreateTestStore(tenantID, "Harbor")

	body := map[string]interface{}{"product_id": productID, "store_id": storeID, "quantity": 3}
	key := uuid.NewString()

	w := c.Do(t, http.MethodPost, "/api/v1/inventory/stock-in", body, middleware.IdempotencyKeyHeader, key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.Do(t, http.MethodPost, "/api/v1/inventory/stock-in", body, middleware.IdempotencyKeyHeader, key)
	testutil.RequireErrorCode(t, w, http.StatusConflict, dto.ErrCodeDuplicateRequest)

	assert.Equal(t, int64(3), tdb.LedgerSum(tenantID, productID, storeID))

	// a failed write releases its key
	failKey := uuid.NewString()
	tooMany := map[string]interface{}{"product_id": productID, "store_id": storeID, "quantity": 99}
	w = c.Do(t, http.MethodPost, "/api/v1/inventory/stock-out", tooMany, middleware.IdempotencyKeyHeader, failKey)
	testutil.RequireErrorCode(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock)
	w = c.Do(t, http.MethodPost, "/api/v1/inventory/stock-out", tooMany, middleware.IdempotencyKeyHeader, failKey)
	testutil.RequireErrorCode(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock)
}

func TestAPI_RequestValidation(t *testing.T) {
	tdb := NewSharedTestDB(t)
	engine := newAPIServer(t, tdb)
	c := testutil.NewAPIClient(engine, uuid.New(), uuid.New())

	w := testutil.NewAPIClient(engine, uuid.Nil, uuid.Nil).Do(t, http.MethodGet, "/api/v1/inventory", nil)
	testutil.RequireErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeTenantRequired)

	w = c.Do(t, http.MethodPost, "/api/v1/inventory/stock-in", map[string]interface{}{
		"product_id": uuid.New(),
		"store_id":   uuid.New(),
		"quantity":   0,
	})
	testutil.RequireErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	same := uuid.New()
	w = c.Do(t, http.MethodPost, "/api/v1/inventory/transfers", map[string]interface{}{
		"product_id":           uuid.New(),
		"source_store_id":      same,
		"destination_store_id": same,
		"quantity":             1,
	})
	testutil.RequireErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeSameStoreTransfer)

	w = c.Do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_EventHandlersDeduplicate(t *testing.T) {
	client := NewTestRedis(t)
	store := cache.NewRedisIdempotencyStore(client, "pos:test:"+uuid.NewString()+":")
	recorder := testutil.NewMockEventHandler()
	metrics := &event.IdempotencyMetrics{}
	h := event.NewIdempotentHandler(recorder, store, zap.NewNop(), event.WithIdempotencyMetrics(metrics))

	evt := testutil.NewTestEvent("StockAdded", uuid.New())
	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))

	assert.Equal(t, 1, recorder.HandledCount())
	stats := metrics.Stats()
	assert.Equal(t, int64(1), stats.EventsProcessed)
	assert.Equal(t, int64(1), stats.EventsDuplicate)

}

func TestAPI_BulkStockInImport(t *testing.T) {
	tdb := NewSharedTestDB(t)
	engine := newAPIServer(t, tdb)

	tenantID := uuid.New()
	userID := tdb.CreateTestUser(tenantID, "Receiving Clerk")
	store := tdb.CreateTestStore(tenantID, "Warehouse Outlet")
	beans := tdb.CreateTestProduct(tenantID, "House Blend")
	milk := tdb.CreateTestProduct(tenantID, "Oat Milk")
	c := testutil.NewAPIClient(engine, tenantID, userID)

	t.Run("invalid rows block the whole file", func(t *testing.T) {
		csv := fmt.Sprintf("product_id,store_id,quantity\n%s,%s,4\n%s,%s,-2\n", beans, store, milk, store)
		w := c.Do(t, http.MethodPost, "/api/v1/inventory/stock-in/import", csv)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		env := testutil.DecodeResponse[inventoryapp.StockImportResult](t, w)
		assert.Equal(t, 0, env.Data.ImportedRows)
		assert.Equal(t, 1, env.Data.ErrorRows)
		assert.Equal(t, int64(0), tdb.LedgerSum(tenantID, beans, store))
	})

	t.Run("valid file books every row", func(t *testing.T) {
		csv := fmt.Sprintf("product_id,store_id,quantity,unit_cost\n%s,%s,4,3.20\n%s,%s,9,\n%s,%s,1,3.25\n",
			beans, store, milk, store, beans, store)
		w := c.Do(t, http.MethodPost, "/api/v1/inventory/stock-in/import", csv)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		env := testutil.DecodeResponse[inventoryapp.StockImportResult](t, w)
		assert.Equal(t, 3, env.Data.TotalRows)
		assert.Equal(t, 3, env.Data.ImportedRows)
		assert.Empty(t, env.Data.Errors)

		assert.Equal(t, int64(5), tdb.LedgerSum(tenantID, beans, store))
		assert.Equal(t, int64(9), tdb.LedgerSum(tenantID, milk, store))
	})

	t.Run("unknown store fails only its row", func(t *testing.T) {
		csv := fmt.Sprintf("product_id,store_id,quantity\n%s,%s,2\n%s,%s,1\n", milk, uuid.New(), milk, store)
		w := c.Do(t, http.MethodPost, "/api/v1/inventory/stock-in/import", csv)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		env := testutil.DecodeResponse[inventoryapp.StockImportResult](t, w)
		assert.Equal(t, 1, env.Data.ImportedRows)
		require.Len(t, env.Data.Errors, 1)
		assert.Equal(t, 2, env.Data.Errors[0].Row)
		assert.Equal(t, "NOT_FOUND", env.Data.Errors[0].Code)
		assert.Equal(t, int64(10), tdb.LedgerSum(tenantID, milk, store))
	})

	t.Run("store of another tenant is rejected", func(t *testing.T) {
		foreignStore := tdb.CreateTestStore(uuid.New(), "Foreign Outlet")
		w := c.Do(t, http.MethodPost, "/api/v1/inventory/stock-in", map[string]interface{}{
			"product_id": milk, "store_id": foreignStore, "quantity": 1,
		})
		testutil.RequireErrorCode(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})

	t.Run("missing columns", func(t *testing.T) {
		w := c.Do(t, http.MethodPost, "/api/v1/inventory/stock-in/import", "sku,qty\nA,1\n")
		testutil.RequireErrorCode(t, w, http.StatusBadRequest, "ERR_INVALID_CSV")
	})
}

func TestAPI_BearerIdentity(t *testing.T) {
	tdb := NewSharedTestDB(t)
	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-secret-key-long-enough!",
		Issuer:                "pos-test",
		AccessTokenExpiration: time.Minute,
	})
	engine := newAPIServerWithVerifier(t, tdb, jwtSvc)

	tokenFor := func(tenantID, userID uuid.UUID) string {
		token, _, err := jwtSvc.GenerateAccessToken(auth.GenerateTokenInput{TenantID: tenantID, UserID: userID})
		require.NoError(t, err)
		return token
	}

	tenantID := uuid.New()
	bootstrap := &testutil.APIClient{Handler: engine, Token: tokenFor(tenantID, uuid.New())}
	userID := createID(t, bootstrap, "/api/v1/users", map[string]string{
		"username":  "cashier",
		"full_name": "Cashier One",
		"pin":       "4321",
	})
	c := &testutil.APIClient{Handler: engine, Token: tokenFor(tenantID, userID)}
	storeID := createID(t, c, "/api/v1/stores", map[string]interface{}{"code": "DT", "name": "Downtown", "is_main": true})
	productID := createID(t, c, "/api/v1/products", map[string]string{"sku": "ESP-1", "name": "Espresso Beans", "price": "12.50"})
	levelURL := fmt.Sprintf("/api/v1/inventory/stores/%s/products/%s", storeID, productID)

	t.Run("headers alone are rejected", func(t *testing.T) {
		headerOnly := testutil.NewAPIClient(engine, tenantID, userID)
		w := headerOnly.Do(t, http.MethodGet, levelURL, nil)
		testutil.RequireErrorCode(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	})

	t.Run("stock-in books the token's user", func(t *testing.T) {
		w := c.Do(t, http.MethodPost, "/api/v1/inventory/stock-in", map[string]interface{}{
			"product_id": productID,
			"store_id":   storeID,
			"quantity":   5,
		})
		require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
		env := testutil.DecodeResponse[inventoryapp.StockMovementResponse](t, w)
		assert.Equal(t, userID, env.Data.Transaction.UserID)

		var bookedBy uuid.UUID
		require.NoError(t, tdb.DB.Raw(
			"SELECT user_id FROM inventory_transactions WHERE tenant_id = ? AND product_id = ?",
			tenantID, productID).Scan(&bookedBy).Error)
		assert.Equal(t, userID, bookedBy)
	})

	t.Run("spoofed tenant header is ignored", func(t *testing.T) {
		w := c.Do(t, http.MethodGet, levelURL, nil,
			middleware.TenantHeaderKey, uuid.NewString())
		require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
		assert.Equal(t, 5, testutil.DecodeResponse[inventoryapp.InventoryResponse](t, w).Data.Quantity)
	})
}
