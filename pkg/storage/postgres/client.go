package postgres

import (
	"context"
	"fmt"

	"memepump/config"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client is the trade archive sink.
type Client struct {
	DB *gorm.DB
}

func NewClient(dsn string) (*Client, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &Client{DB: db}, nil
}

// InitializeAndMigrateTradeRecord connects to Postgres, optionally creates the DB,
// applies the pool settings and runs AutoMigrate.
func InitializeAndMigrateTradeRecord(cfg config.ArchiveConfig, createDB bool) (*Client, error) {
	if createDB {
		if err := CreateDatabase(cfg.Postgres, cfg.Env); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	client, err := NewClient(cfg.Postgres.DSN(cfg.Env))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := client.configurePool(cfg.Postgres); err != nil {
		_ = client.Close()
		return nil, err
	}

	if err := client.AutoMigrateTradeRecord(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *Client) configurePool(cfg config.PostgresConfig) error {
	db, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return nil
}

func (p *Client) AutoMigrateTradeRecord() error {
	if err := p.DB.AutoMigrate(&TradeRecord{}); err != nil {
		return fmt.Errorf("auto-migrate trade table: %w", err)
	}
	return nil
}

func (p *Client) IsHealthy(ctx context.Context) bool {
	db, err := p.DB.DB()
	if err != nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

func (p *Client) Close() error {
	db, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	return db.Close()
}
