package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/eion/usermgr/internal/config"
	"github.com/eion/usermgr/internal/users"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

const connectTimeout = 10 * time.Second

// Backend is a user store that can report its health and be closed
type Backend interface {
	users.UserStore
	Name() string
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the configured storage driver and prepares its schema
func Open(ctx context.Context, logger *zap.Logger) (Backend, error) {
	driver := config.Storage().Driver

	logger.Info("Opening user storage", zap.String("driver", driver))

	switch driver {
	case config.DriverMongoDB:
		return openMongo(ctx, logger)
	case config.DriverPostgres:
		pgConfig := config.Postgres()
		logger.Info("Database configuration",
			zap.String("host", pgConfig.Host),
			zap.Int("port", pgConfig.Port),
			zap.String("database", pgConfig.Database),
			zap.String("user", pgConfig.User))

		db, err := OpenPostgres(pgConfig.DSN(), pgConfig.MaxOpenConnections)
		if err != nil {
			return nil, err
		}
		return prepareBun(ctx, db)
	case config.DriverSQLite:
		db, err := OpenSQLite(config.SQLite().Path)
		if err != nil {
			return nil, err
		}
		return prepareBun(ctx, db)
	case config.DriverNeo4j:
		return openNeo4j(ctx, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

// OpenPostgres opens a bun handle on PostgreSQL and verifies the connection
func OpenPostgres(dsn string, maxConnections int) (*bun.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	if maxConnections <= 0 {
		maxConnections = 10
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	sqldb.SetMaxOpenConns(maxConnections)
	sqldb.SetMaxIdleConns(maxConnections / 2)
	sqldb.SetConnMaxLifetime(time.Hour)

	db := bun.NewDB(sqldb, pgdialect.New())
	if err := ping(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a bun handle on an SQLite file, or an in-memory database for ":memory:"
func OpenSQLite(path string) (*bun.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = "file::memory:"
	}

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a single connection serialises writers and keeps an in-memory database alive
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := ping(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ping(db *bun.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

func prepareBun(ctx context.Context, db *bun.DB) (Backend, error) {
	store := users.NewUserStore(db)
	if err := store.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func openMongo(ctx context.Context, logger *zap.Logger) (Backend, error) {
	mongoConfig := config.MongoDB()

	timeout := time.Duration(mongoConfig.ConnectTimeout) * time.Second
	if timeout <= 0 {
		timeout = connectTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(mongoConfig.URI).
		SetConnectTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	store := users.NewMongoStore(client, mongoConfig.Database, mongoConfig.Collection)
	if err := store.HealthCheck(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to reach MongoDB: %w", err)
	}
	if err := store.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("MongoDB store initialized",
		zap.String("database", mongoConfig.Database),
		zap.String("collection", mongoConfig.Collection))
	return store, nil
}

func openNeo4j(ctx context.Context, logger *zap.Logger) (Backend, error) {
	neo4jConfig := config.Neo4j()
	if neo4jConfig.URI == "" {
		return nil, fmt.Errorf("Neo4j URI is required")
	}

	auth := neo4j.BasicAuth(neo4jConfig.Username, neo4jConfig.Password, "")
	driver, err := neo4j.NewDriverWithContext(neo4jConfig.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := driver.VerifyConnectivity(connectCtx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}

	store := users.NewNeo4jStore(driver, neo4jConfig.Database)
	if err := store.EnsureConstraints(connectCtx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to initialize Neo4j schema: %w", err)
	}

	logger.Info("Neo4j store initialized",
		zap.String("uri", neo4jConfig.URI),
		zap.String("database", neo4jConfig.Database))
	return store, nil
}
