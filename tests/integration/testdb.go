//go:build integration

// Package integration runs the stock ledger against real PostgreSQL and Redis
// instances started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/erp/pos/internal/infrastructure/migration"
	"github.com/erp/pos/migrations"
)

var (
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string

	redisContainer   testcontainers.Container
	redisContainerMu sync.Mutex
	redisAddr        string
)

// TestDB is a migrated database connection for one test
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

// NewTestDB starts a dedicated PostgreSQL container for one test
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()
	container, dsn := startPostgres(t, ctx, "pos_test")

	db, sqlDB := connectToDatabase(t, dsn)
	runMigrations(t, sqlDB)

	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: container,
		DSN:       dsn,
		t:         t,
	}
	t.Cleanup(testDB.Close)
	return testDB
}

// NewSharedTestDB returns a connection to a package-wide PostgreSQL container.
// Tests sharing it isolate themselves by using a fresh tenant ID.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer == nil {
		container, dsn := startPostgres(t, context.Background(), "pos_shared_test")
		sharedContainer = container
		sharedContainerDSN = dsn

		_, sqlDB := connectToDatabase(t, dsn)
		runMigrations(t, sqlDB)
		sqlDB.Close()
	}

	db, sqlDB := connectToDatabase(t, sharedContainerDSN)
	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: sharedContainer,
		DSN:       sharedContainerDSN,
		t:         t,
	}
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return testDB
}

// Close closes the connection and terminates a dedicated container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		tdb.SqlDB.Close()
	}
	if tdb.Container != nil && tdb.Container != sharedContainer {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// CleanTables truncates every application table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			tdb.t.Logf("Warning: Failed to truncate table %s: %v", table, err)
		}
	}
}

// CreateTestStore inserts a store row and returns its ID
func (tdb *TestDB) CreateTestStore(tenantID uuid.UUID, name string) uuid.UUID {
	tdb.t.Helper()

	id := uuid.New()
	err := tdb.DB.Exec(`
		INSERT INTO stores (id, tenant_id, code, name, is_main, status, version)
		VALUES (?, ?, ?, ?, FALSE, 'active', 1)
	`, id, tenantID, "ST_"+id.String()[:8], name).Error
	require.NoError(tdb.t, err, "Failed to create test store")
	return id
}

// CreateTestProduct inserts a product row and returns its ID
func (tdb *TestDB) CreateTestProduct(tenantID uuid.UUID, name string) uuid.UUID {
	tdb.t.Helper()

	id := uuid.New()
	err := tdb.DB.Exec(`
		INSERT INTO products (id, tenant_id, name, sku, price, cost, status, version)
		VALUES (?, ?, ?, ?, 0, 0, 'active', 1)
	`, id, tenantID, name, "SKU-"+id.String()[:8]).Error
	require.NoError(tdb.t, err, "Failed to create test product")
	return id
}

// CreateTestUser inserts a user row and returns its ID
func (tdb *TestDB) CreateTestUser(tenantID uuid.UUID, fullName string) uuid.UUID {
	tdb.t.Helper()

	id := uuid.New()
	err := tdb.DB.Exec(`
		INSERT INTO users (id, tenant_id, username, full_name, version)
		VALUES (?, ?, ?, ?, 1)
	`, id, tenantID, "u_"+id.String()[:8], fullName).Error
	require.NoError(tdb.t, err, "Failed to create test user")
	return id
}

// LedgerSum sums the signed ledger quantities for a product-store pair
func (tdb *TestDB) LedgerSum(tenantID, productID, storeID uuid.UUID) int64 {
	tdb.t.Helper()

	var sum int64
	err := tdb.DB.Raw(`
		SELECT COALESCE(SUM(quantity), 0) FROM inventory_transactions
		WHERE tenant_id = ? AND product_id = ? AND store_id = ?
	`, tenantID, productID, storeID).Scan(&sum).Error
	require.NoError(tdb.t, err)
	return sum
}

func startPostgres(t *testing.T, ctx context.Context, dbName string) (testcontainers.Container, string) {
	t.Helper()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("pos_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")
	return container, dsn
}

func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")

	// concurrency tests need more than a handful of connections
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}

// NewTestRedis returns a client for a package-wide Redis container
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	redisContainerMu.Lock()
	defer redisContainerMu.Unlock()

	ctx := context.Background()
	if redisContainer == nil {
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
			},
			Started: true,
		})
		require.NoError(t, err, "Failed to start Redis container")

		host, err := container.Host(ctx)
		require.NoError(t, err)
		port, err := container.MappedPort(ctx, "6379")
		require.NoError(t, err)

		redisContainer = container
		redisAddr = fmt.Sprintf("%s:%s", host, port.Port())
	}

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	require.NoError(t, client.Ping(ctx).Err(), "Failed to ping Redis")
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

// CleanupContainers terminates the shared containers. Called from TestMain.
func CleanupContainers() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sharedContainerMu.Lock()
	if sharedContainer != nil {
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedContainerDSN = ""
	}
	sharedContainerMu.Unlock()

	redisContainerMu.Lock()
	if redisContainer != nil {
		_ = redisContainer.Terminate(ctx)
		redisContainer = nil
		redisAddr = ""
	}
	redisContainerMu.Unlock()
}
