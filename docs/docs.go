// Package docs holds the OpenAPI document served at /swagger/index.html.
// Regenerate with `swag init -g cmd/server/main.go -o docs` after changing
// handler annotations.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/products": {
            "post": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Product",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/catalog.CreateProductRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/catalog.ProductResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "createProduct",
                "summary": "Create a product",
                "tags": [
                    "products"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/products/{id}": {
            "get": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Product ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/catalog.ProductResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "getProduct",
                "summary": "Get a product",
                "tags": [
                    "products"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/inventory/stock-in": {
            "post": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Acting user ID",
                        "name": "X-User-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Client retry key",
                        "name": "Idempotency-Key",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Stock-in request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/inventory.AddStockRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/inventory.StockMovementResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "addStock",
                "summary": "Stock in",
                "description": "Books received units for a product at a store and writes a stock_in ledger row",
                "tags": [
                    "inventory"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/inventory/stock-in/import": {
            "post": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Acting user ID",
                        "name": "X-User-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "CSV file when sent as multipart",
                        "name": "file",
                        "in": "formData",
                        "required": false,
                        "type": "file"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/inventory.StockImportResult"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "importStockIn",
                "summary": "Bulk stock in",
                "description": "The file is validated first; any invalid row means nothing is written.",
                "tags": [
                    "inventory"
                ],
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/inventory/stock-out": {
            "post": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Acting user ID",
                        "name": "X-User-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Stock-out request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/inventory.RemoveStockRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/inventory.StockMovementResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "removeStock",
                "summary": "Stock out",
                "description": "Removes units from a store. Fails with 422 when stock is insufficient.",
                "tags": [
                    "inventory"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/inventory/transfers": {
            "post": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Acting user ID",
                        "name": "X-User-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Transfer request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/inventory.TransferStockRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/inventory.TransferResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "transferStock",
                "summary": "Transfer stock between stores",
                "description": "Moves units from a source store to a destination store in one transaction",
                "tags": [
                    "inventory"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ]
            },
            "get": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Source store",
                        "name": "source_store_id",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Destination store",
                        "name": "destination_store_id",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/inventory.TransferResponse"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    }
                },
                "operationId": "listStockTransfers",
                "summary": "List transfers",
                "tags": [
                    "inventory"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/inventory/transactions": {
            "get": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Store ID",
                        "name": "store_id",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Product ID",
                        "name": "product_id",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Type",
                        "name": "transaction_type",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Start date (YYYY-MM-DD)",
                        "name": "start_date",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "End date (YYYY-MM-DD), inclusive",
                        "name": "end_date",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Page number",
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "type": "int"
                    },
                    {
                        "description": "Page size",
                        "name": "page_size",
                        "in": "query",
                        "required": false,
                        "type": "int"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/inventory.TransactionResponse"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    }
                },
                "operationId": "listStockTransactions",
                "summary": "List ledger rows",
                "description": "Ledger rows newest first, filtered by store, product, type and inclusive date range",
                "tags": [
                    "inventory"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/inventory/transfers/{id}": {
            "get": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Transfer ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/inventory.TransferResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "getStockTransfer",
                "summary": "Get transfer with items",
                "tags": [
                    "inventory"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/inventory/stores/{store_id}/products/{product_id}": {
            "get": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Store ID",
                        "name": "store_id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Product ID",
                        "name": "product_id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/inventory.InventoryResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "getStockLevel",
                "summary": "Current quantity of a product at a store",
                "tags": [
                    "inventory"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/inventory": {
            "get": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Store ID",
                        "name": "store_id",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Only rows at or below threshold",
                        "name": "low_stock_only",
                        "in": "query",
                        "required": false,
                        "type": "boolean"
                    },
                    {
                        "description": "Product name or SKU",
                        "name": "search",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/inventory.InventoryResponse"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    }
                },
                "operationId": "listInventory",
                "summary": "List balances",
                "description": "Balances with product and store names, sorted by product name by default",
                "tags": [
                    "inventory"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/inventory/stores/{store_id}/products/{product_id}/threshold": {
            "put": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Store ID",
                        "name": "store_id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Product ID",
                        "name": "product_id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Threshold",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/inventory.SetThresholdRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/inventory.InventoryResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                },
                "operationId": "setLowStockThreshold",
                "summary": "Set low-stock threshold",
                "description": "Zero disables the alert. Creates the balance row when missing.",
                "tags": [
                    "inventory"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/inventory/stores/{store_id}/products/{product_id}/reconcile": {
            "get": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Store ID",
                        "name": "store_id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Product ID",
                        "name": "product_id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/inventory.ReconcileResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                },
                "operationId": "reconcileStock",
                "summary": "Compare balance with ledger",
                "tags": [
                    "inventory"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/stores": {
            "post": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Store",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/partner.CreateStoreRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/partner.StoreResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "createStore",
                "summary": "Create a store",
                "tags": [
                    "stores"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ]
            },
            "get": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Code or name",
                        "name": "search",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Only the main store",
                        "name": "is_main",
                        "in": "query",
                        "required": false,
                        "type": "boolean"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/partner.StoreResponse"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    }
                },
                "operationId": "listStores",
                "summary": "List stores",
                "tags": [
                    "stores"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/stores/{id}": {
            "get": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Store ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/partner.StoreResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "getStore",
                "summary": "Get a store",
                "tags": [
                    "stores"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/stores/{id}/main": {
            "put": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Store ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/partner.StoreResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "setMainStore",
                "summary": "Mark a store as the tenant's main store",
                "tags": [
                    "stores"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/suppliers": {
            "post": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "Supplier",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/partner.CreateSupplierRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/partner.SupplierResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                },
                "operationId": "createSupplier",
                "summary": "Create a supplier",
                "tags": [
                    "suppliers"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/health": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.HealthResponse"
                        }
                    }
                },
                "operationId": "getHealth",
                "summary": "Health check",
                "description": "Pings the database and, when configured, Redis",
                "tags": [
                    "system"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/system/info": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/handler.SystemInfoResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                },
                "operationId": "getSystemInfo",
                "summary": "Get system information",
                "description": "Returns basic system information including version and uptime",
                "tags": [
                    "system"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/users": {
            "post": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "User",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/identity.CreateUserRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/identity.UserResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "createUser",
                "summary": "Create a staff user",
                "tags": [
                    "users"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ]
            }
        },
        "/users/{id}/verify-pin": {
            "post": {
                "parameters": [
                    {
                        "description": "Tenant ID",
                        "name": "X-Tenant-ID",
                        "in": "header",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "User ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "description": "PIN",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.VerifyPINRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/handler.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/handler.VerifyPINResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "operationId": "verifyUserPin",
                "summary": "Check a staff PIN",
                "description": "Returns valid=false for a wrong PIN or a user without one",
                "tags": [
                    "users"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ]
            }
        }
    },
    "definitions": {
        "catalog.CreateProductRequest": {
            "type": "object",
            "properties": {
                "sku": {
                    "type": "string",
                    "minLength": 1,
                    "maxLength": 64
                },
                "name": {
                    "type": "string",
                    "minLength": 1,
                    "maxLength": 200
                },
                "barcode": {
                    "type": "string",
                    "maxLength": 64
                },
                "category_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "price": {
                    "type": "string",
                    "format": "decimal"
                },
                "cost": {
                    "type": "string",
                    "format": "decimal"
                }
            },
            "required": [
                "sku",
                "name"
            ]
        },
        "catalog.ProductResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "tenant_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "sku": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "barcode": {
                    "type": "string"
                },
                "category_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "price": {
                    "type": "string",
                    "format": "decimal"
                },
                "cost": {
                    "type": "string",
                    "format": "decimal"
                },
                "margin": {
                    "type": "string",
                    "format": "decimal"
                },
                "status": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "dto.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "request_id": {
                    "type": "string"
                },
                "timestamp": {
                    "type": "string",
                    "format": "date-time"
                },
                "details": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.ValidationDetail"
                    }
                }
            }
        },
        "dto.Meta": {
            "type": "object",
            "properties": {
                "total": {
                    "type": "integer"
                },
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_pages": {
                    "type": "integer"
                }
            }
        },
        "dto.ValidationDetail": {
            "type": "object",
            "properties": {
                "field": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "handler.APIResponse": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "error": {
                    "$ref": "#/definitions/dto.ErrorInfo"
                },
                "meta": {
                    "$ref": "#/definitions/dto.Meta"
                }
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "error": {
                    "$ref": "#/definitions/dto.ErrorInfo"
                }
            }
        },
        "handler.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "checks": {
                    "type": "object"
                }
            }
        },
        "handler.SystemInfoResponse": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "version": {
                    "type": "string"
                },
                "go_version": {
                    "type": "string"
                },
                "uptime": {
                    "type": "string"
                }
            }
        },
        "handler.VerifyPINRequest": {
            "type": "object",
            "properties": {
                "pin": {
                    "type": "string",
                    "minLength": 4,
                    "maxLength": 8
                }
            },
            "required": [
                "pin"
            ]
        },
        "handler.VerifyPINResponse": {
            "type": "object",
            "properties": {
                "valid": {
                    "type": "boolean"
                }
            }
        },
        "identity.CreateUserRequest": {
            "type": "object",
            "properties": {
                "username": {
                    "type": "string",
                    "minLength": 3,
                    "maxLength": 50
                },
                "full_name": {
                    "type": "string",
                    "minLength": 1,
                    "maxLength": 200
                },
                "email": {
                    "type": "string",
                    "maxLength": 200
                },
                "pin": {
                    "type": "string",
                    "minLength": 4,
                    "maxLength": 8
                }
            },
            "required": [
                "username",
                "full_name"
            ]
        },
        "identity.UserResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "tenant_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "username": {
                    "type": "string"
                },
                "full_name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "has_pin": {
                    "type": "boolean"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "inventory.AddStockRequest": {
            "type": "object",
            "properties": {
                "product_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "store_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 2147483647
                },
                "supplier_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "unit_cost": {
                    "type": "string",
                    "format": "decimal"
                },
                "notes": {
                    "type": "string",
                    "maxLength": 1000
                }
            },
            "required": [
                "product_id",
                "store_id",
                "quantity"
            ]
        },
        "inventory.InventoryResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "tenant_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "product_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "store_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "product_name": {
                    "type": "string"
                },
                "product_sku": {
                    "type": "string"
                },
                "store_name": {
                    "type": "string"
                },
                "quantity": {
                    "type": "integer"
                },
                "low_stock_threshold": {
                    "type": "integer"
                },
                "is_low_stock": {
                    "type": "boolean"
                },
                "version": {
                    "type": "integer"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "inventory.ReconcileResponse": {
            "type": "object",
            "properties": {
                "product_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "store_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "projected": {
                    "type": "integer"
                },
                "ledger_sum": {
                    "type": "integer"
                },
                "consistent": {
                    "type": "boolean"
                }
            }
        },
        "inventory.RemoveStockRequest": {
            "type": "object",
            "properties": {
                "product_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "store_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 2147483647
                },
                "reason": {
                    "type": "string",
                    "maxLength": 255
                },
                "notes": {
                    "type": "string",
                    "maxLength": 1000
                }
            },
            "required": [
                "product_id",
                "store_id",
                "quantity"
            ]
        },
        "inventory.SetThresholdRequest": {
            "type": "object",
            "properties": {
                "threshold": {
                    "type": "integer",
                    "minimum": 0,
                    "maximum": 2147483647
                }
            }
        },
        "inventory.StockImportResult": {
            "type": "object",
            "properties": {
                "total_rows": {
                    "type": "integer"
                },
                "imported_rows": {
                    "type": "integer"
                },
                "error_rows": {
                    "type": "integer"
                },
                "errors": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "is_truncated": {
                    "type": "boolean"
                },
                "total_errors": {
                    "type": "integer"
                }
            }
        },
        "inventory.StockMovementResponse": {
            "type": "object",
            "properties": {
                "inventory": {
                    "$ref": "#/definitions/inventory.InventoryResponse"
                },
                "transaction": {
                    "$ref": "#/definitions/inventory.TransactionResponse"
                }
            }
        },
        "inventory.TransactionResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "product_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "product_name": {
                    "type": "string"
                },
                "product_sku": {
                    "type": "string"
                },
                "store_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "store_name": {
                    "type": "string"
                },
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "user_name": {
                    "type": "string"
                },
                "quantity": {
                    "type": "integer"
                },
                "transaction_type": {
                    "type": "string"
                },
                "supplier_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "supplier_name": {
                    "type": "string"
                },
                "unit_cost": {
                    "type": "string",
                    "format": "decimal"
                },
                "reason": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "reference_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "transaction_date": {
                    "type": "string",
                    "format": "date-time"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "inventory.TransferItemResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "product_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "product_name": {
                    "type": "string"
                },
                "product_sku": {
                    "type": "string"
                },
                "quantity": {
                    "type": "integer"
                }
            }
        },
        "inventory.TransferResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "source_store_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "source_store_name": {
                    "type": "string"
                },
                "destination_store_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "destination_store_name": {
                    "type": "string"
                },
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "user_name": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "transfer_date": {
                    "type": "string",
                    "format": "date-time"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/inventory.TransferItemResponse"
                    }
                }
            }
        },
        "inventory.TransferStockRequest": {
            "type": "object",
            "properties": {
                "product_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "source_store_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "destination_store_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 2147483647
                },
                "notes": {
                    "type": "string",
                    "maxLength": 1000
                }
            },
            "required": [
                "product_id",
                "source_store_id",
                "destination_store_id",
                "quantity"
            ]
        },
        "partner.CreateStoreRequest": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string",
                    "minLength": 1,
                    "maxLength": 50
                },
                "name": {
                    "type": "string",
                    "minLength": 1,
                    "maxLength": 200
                },
                "address": {
                    "type": "string",
                    "maxLength": 500
                },
                "is_main": {
                    "type": "boolean"
                }
            },
            "required": [
                "code",
                "name"
            ]
        },
        "partner.CreateSupplierRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string",
                    "minLength": 1,
                    "maxLength": 200
                },
                "contact_name": {
                    "type": "string",
                    "maxLength": 100
                },
                "phone": {
                    "type": "string",
                    "maxLength": 50
                },
                "email": {
                    "type": "string",
                    "maxLength": 200
                }
            },
            "required": [
                "name"
            ]
        },
        "partner.StoreResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "tenant_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "code": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                },
                "is_main": {
                    "type": "boolean"
                },
                "status": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "version": {
                    "type": "integer"
                }
            }
        },
        "partner.SupplierResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "tenant_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "name": {
                    "type": "string"
                },
                "contact_name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token authentication. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "POS Inventory API",
	Description:      "Stock ledger for a multi-store point of sale: stock in, stock out, transfers and reconciliation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
