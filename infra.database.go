package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Database owns the ORM handle and its connection pool. It is built once
// at startup and handed to the components that need a session.
type Database struct {
	logger *zap.Logger
	config *DatabaseConfig
	db     *gorm.DB
}

// DSN builds the postgres connection url from the configuration.
func (c *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// GetDatabaseClient connects to the configured postgres server and
// provides a ready to use pooled database.
func GetDatabaseClient(config *Config, logger *zap.Logger) (*Database, error) {
	return OpenDatabase(postgres.Open(config.Database.DSN()), &config.Database, logger)
}

// OpenDatabase opens the database behind the given dialector, configures the
// pool then checks the connection. The pgx driver checks liveness of idle
// connections before reuse so no pre-ping is configured here.
func OpenDatabase(dialector gorm.Dialector, config *DatabaseConfig, logger *zap.Logger) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(logger, config),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access the connection pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(config.PoolSize)
	sqlDB.SetMaxOpenConns(config.PoolSize + config.MaxOverflow)
	sqlDB.SetConnMaxLifetime(config.RecycleInterval)

	database := &Database{logger: logger, config: config, db: db}

	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err = database.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("test connection failed: %w", err)
	}

	logger.Info("database connection pool ready",
		zap.String("db.dialect", dialector.Name()),
		zap.Int("db.pool_size", config.PoolSize),
		zap.Int("db.max_overflow", config.MaxOverflow),
		zap.Duration("db.recycle", config.RecycleInterval),
	)
	return database, nil
}

// InitSchema creates the missing tables and columns. It never drops
// nor rewrites existing data so it is safe to call on every start.
func (d *Database) InitSchema(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(&Book{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// WithSession runs fn inside a single transaction bound to ctx. The
// transaction is committed when fn returns nil and rolled back when it
// returns an error or panics. The connection goes back to the pool on
// every path.
func (d *Database) WithSession(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(fn)
}

// Ping checks that a pooled connection to the database is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// BulkBatchSize is the number of rows sent per insert statement
// during a bulk creation.
func (d *Database) BulkBatchSize() int {
	return d.config.BulkBatchSize
}

// Close releases all pooled connections.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
