package router

import (
	"github.com/erp/pos/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the HTTP handlers exposed under the versioned API
type Handlers struct {
	Stock    *handler.StockHandler
	Stores   *handler.StoreHandler
	Supplier *handler.SupplierHandler
	Products *handler.ProductHandler
	Users    *handler.UserHandler
	System   *handler.SystemHandler
}

// InventoryRoutes builds the stock ledger group. Mutating routes run
// behind the idempotency middleware when one is given.
func InventoryRoutes(h *handler.StockHandler, idempotency gin.HandlerFunc) *DomainGroup {
	writes := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		if idempotency == nil {
			return []gin.HandlerFunc{fn}
		}
		return []gin.HandlerFunc{idempotency, fn}
	}

	g := NewDomainGroup("inventory", "/inventory")
	g.GET("", h.ListInventory)
	g.POST("/stock-in", writes(h.AddStock)...)
	g.POST("/stock-in/import", writes(h.ImportStockIn)...)
	g.POST("/stock-out", writes(h.RemoveStock)...)
	g.POST("/transfers", writes(h.TransferStock)...)
	g.GET("/transfers", h.ListTransfers)
	g.GET("/transfers/:id", h.GetTransferDetails)
	g.GET("/transactions", h.ListTransactions)

	level := g.Group("stock-level", "/stores/:store_id/products/:product_id")
	level.GET("", h.GetStockLevel)
	level.PUT("/threshold", h.SetLowStockThreshold)
	level.GET("/reconcile", h.Reconcile)
	return g
}

// StoreRoutes builds the store group
func StoreRoutes(h *handler.StoreHandler) *DomainGroup {
	g := NewDomainGroup("stores", "/stores")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id/main", h.SetMain)
	return g
}

// SupplierRoutes builds the supplier group
func SupplierRoutes(h *handler.SupplierHandler) *DomainGroup {
	g := NewDomainGroup("suppliers", "/suppliers")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	return g
}

// ProductRoutes builds the product group
func ProductRoutes(h *handler.ProductHandler) *DomainGroup {
	g := NewDomainGroup("products", "/products")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	return g
}

// UserRoutes builds the staff user group
func UserRoutes(h *handler.UserHandler) *DomainGroup {
	g := NewDomainGroup("users", "/users")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.POST("/:id/verify-pin", h.VerifyPIN)
	return g
}

// RegisterAPI mounts health and info on the engine, outside the middleware
// added with r.Use, then every domain group on r.
func RegisterAPI(engine *gin.Engine, r *Router, h Handlers, idempotency gin.HandlerFunc) {
	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET(r.BasePath()+"/health", h.System.Health)
		engine.GET(r.BasePath()+"/system/info", h.System.GetSystemInfo)
	}

	if h.Stock != nil {
		r.Register(InventoryRoutes(h.Stock, idempotency))
	}
	if h.Stores != nil {
		r.Register(StoreRoutes(h.Stores))
	}
	if h.Supplier != nil {
		r.Register(SupplierRoutes(h.Supplier))
	}
	if h.Products != nil {
		r.Register(ProductRoutes(h.Products))
	}
	if h.Users != nil {
		r.Register(UserRoutes(h.Users))
	}
	r.Setup()
}
