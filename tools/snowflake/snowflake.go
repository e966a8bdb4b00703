// Package snowflake runs SQL against the Snowflake warehouse.
package snowflake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
)

const DefaultQueryTimeout = 2 * time.Minute

var ErrMissingAccount = errors.New("snowflake account and user are required")

// Config holds connection settings.
type Config struct {
	Account   string
	User      string
	Password  string
	Warehouse string
	Database  string
	Schema    string
	Role      string
	// QueryTimeout bounds every statement. Zero uses DefaultQueryTimeout.
	QueryTimeout time.Duration
}

// DSN builds the gosnowflake data source name.
func (c Config) DSN() (string, error) {
	if strings.TrimSpace(c.Account) == "" || strings.TrimSpace(c.User) == "" {
		return "", ErrMissingAccount
	}
	return gosnowflake.DSN(&gosnowflake.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Warehouse: c.Warehouse,
		Database:  c.Database,
		Schema:    c.Schema,
		Role:      c.Role,
	})
}

// Result is the payload of a query.
type Result struct {
	Success  bool             `json:"success"`
	Data     []map[string]any `json:"data"`
	RowCount int              `json:"row_count"`
}

// Client wraps a *sql.DB. The pool connects lazily on the first query, so a
// warehouse outage surfaces as query errors rather than a failed backend.
type Client struct {
	db      *sql.DB
	user    string
	timeout time.Duration
}

// Open creates a client for cfg.
func Open(cfg Config) (*Client, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snowflake: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(10 * time.Minute)
	logger.Info("Snowflake client configured", "account", cfg.Account, "user", cfg.User, "warehouse", cfg.Warehouse, "database", cfg.Database)
	return NewClient(db, cfg.User, cfg.QueryTimeout), nil
}

// NewClient wraps an existing pool.
func NewClient(db *sql.DB, user string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Client{db: db, user: user, timeout: timeout}
}

// User returns the account the client queries as.
func (c *Client) User() string {
	return c.user
}

// Query runs one statement with positional bindings and returns every row
// as a column-name keyed map.
func (c *Client) Query(ctx context.Context, query string, bindings ...any) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, errors.New("sql is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query, bindings...)
	if err != nil {
		return Result{}, fmt.Errorf("snowflake query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("snowflake columns: %w", err)
	}

	data := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return Result{}, fmt.Errorf("snowflake scan: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normalize(values[i])
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("snowflake rows: %w", err)
	}

	logger.Debug("Snowflake query finished", "rows", len(data), "duration", time.Since(start))
	return Result{Success: true, Data: data, RowCount: len(data)}, nil
}

// normalize converts driver values into JSON-friendly ones.
func normalize(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return v
	}
}

// Close closes the pool.
func (c *Client) Close() error {
	return c.db.Close()
}
