package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"finsight/internal/adapters/config"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

const (
	pingAttempts = 3
	pingBackoff  = 2 * time.Second
)

// Client owns the native-protocol connection pool
type Client struct {
	conn driver.Conn
}

// NewClient opens the pool and waits for the server to answer a ping.
// ClickHouse is often the last container up, so a few pings are allowed.
func NewClient(ctx context.Context, cfg config.ClickHouseConfig) (*Client, error) {
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Compression:     &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    maxConns,
		MaxIdleConns:    maxConns / 2,
		ConnMaxLifetime: time.Hour,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "open clickhouse")
	}

	log := logger.Get().With("component", "clickhouse")
	for attempt := 1; ; attempt++ {
		err = conn.Ping(ctx)
		if err == nil {
			break
		}
		if attempt == pingAttempts {
			_ = conn.Close()
			return nil, errors.Wrapf(errors.ErrUnavailable, "ping clickhouse %s:%d: %v", cfg.Host, cfg.Port, err)
		}
		log.Warnw("ClickHouse not ready, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return nil, errors.Wrap(ctx.Err(), "ping clickhouse")
		case <-time.After(pingBackoff):
		}
	}

	return &Client{conn: conn}, nil
}

// Conn exposes the driver for repositories (Select, PrepareBatch)
func (c *Client) Conn() driver.Conn {
	return c.conn
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Health(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Exec runs a statement that returns no rows, such as DDL
func (c *Client) Exec(ctx context.Context, query string, args ...interface{}) error {
	return c.conn.Exec(ctx, query, args...)
}

// Query selects rows into dest, a pointer to a slice of structs with ch tags
func (c *Client) Query(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return c.conn.Select(ctx, dest, query, args...)
}
