// Package backend constructs the shared handle to everything remote: the
// Postgres database, the receipts object store, and the auth capability.
// It is built once per process and fails fast when the two required
// credentials (database URL, API key) are missing.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/expense-portal/internal"
	"github.com/frahmantamala/expense-portal/internal/auth"
	authpostgres "github.com/frahmantamala/expense-portal/internal/auth/postgres"
	"github.com/frahmantamala/expense-portal/internal/storage"
)

type Client struct {
	DB      *gorm.DB
	SQL     *sqlx.DB
	Storage *storage.Client
	Auth    *auth.Service
	APIKey  string
}

// New validates the backend credentials, opens the database, and wires the
// storage and auth capabilities on top.
func New(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Backend.Validate(); err != nil {
		return nil, err
	}

	sqlDB, err := initDB(cfg)
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	storageClient, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	bus := auth.NewEventBus(logger)
	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(
		authpostgres.NewAccountRepository(gormDB),
		tokenGen,
		bus,
		logger,
		cfg.Security.BCryptCost,
	)

	return &Client{
		DB:      gormDB,
		SQL:     sqlDB,
		Storage: storageClient,
		Auth:    authService,
		APIKey:  cfg.Backend.APIKey,
	}, nil
}

func (c *Client) Close() error {
	return c.SQL.Close()
}

func initDB(cfg *internal.Config) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Backend.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
