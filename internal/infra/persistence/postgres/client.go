package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	_ "github.com/lib/pq"
)

type Client struct {
	db *sql.DB
}

func InitClient(cfg *config.Config) (*Client, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}
	if cfg.Postgres.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库不可达: %w", err)
	}
	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// EnsureSchema 建表,已存在时跳过
// entities以place_id唯一,scrape_history以source唯一,这两个约束是upsert语义的基础
func (c *Client) EnsureSchema(ctx context.Context) error {
	ddls := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			id BIGSERIAL PRIMARY KEY,
			place_id TEXT NOT NULL UNIQUE,
			name TEXT,
			address TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			rating DOUBLE PRECISION,
			review_count INT,
			entity_categories TEXT[],
			website TEXT,
			phone TEXT,
			email TEXT,
			link TEXT,
			source_query TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS scrape_history (
			id BIGSERIAL PRIMARY KEY,
			source TEXT NOT NULL UNIQUE,
			search_key TEXT,
			location_key TEXT,
			requested INT,
			returned INT,
			dropped INT,
			status TEXT,
			run_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, ddl := range ddls {
		if _, err := c.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("建表失败: %w", err)
		}
	}
	return nil
}
