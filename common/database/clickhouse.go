package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Username        string
	Password        string
	Database        string
}

// ClickHouse holds the analytics connection used for ingestion run history.
type ClickHouse struct {
	conn   clickhouse.Conn
	logger *zap.Logger
}

func NewClickHouse(ctx context.Context, opts Options, logger *zap.Logger) (*ClickHouse, error) {
	hostAndParams := strings.Split(opts.DSN, "?")
	host := strings.TrimPrefix(hostAndParams[0], "clickhouse://")

	conn, err := clickhouse.Open(&clickhouse.Options{
		Protocol: clickhouse.Native,
		Addr:     []string{host},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout:     time.Second * 30,
		MaxOpenConns:    opts.MaxOpenConns,
		MaxIdleConns:    opts.MaxIdleConns,
		ConnMaxLifetime: opts.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create clickhouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	logger.Info("connected to clickhouse", zap.String("addr", host), zap.String("database", opts.Database))

	return &ClickHouse{
		conn:   conn,
		logger: logger,
	}, nil
}

func (db *ClickHouse) Close() error {
	return db.conn.Close()
}

func (db *ClickHouse) Conn() clickhouse.Conn {
	return db.conn
}
