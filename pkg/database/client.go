package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/pogolab/stackctl/pkg/log"
)

const (
	// DefaultStatementTimeout bounds ordinary statements. Table
	// operations (optimize, repair) get longer, caller-chosen bounds.
	DefaultStatementTimeout = 30 * time.Second

	// DialTimeout bounds the initial TCP connect
	DialTimeout = 5 * time.Second
)

// Options configures the MariaDB connection
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Client wraps a database/sql handle to MariaDB with error
// classification and statement timeouts
type Client struct {
	db *sql.DB
}

// Open connects to the MariaDB server as the given user. Parameters are
// interpolated client-side (InterpolateParams) so that DDL statements
// such as CREATE USER can carry placeholders, which server-side
// prepares do not reliably support across MariaDB versions.
func Open(opts Options) (*Client, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	cfg.User = opts.User
	cfg.Passwd = opts.Password
	cfg.Timeout = DialTimeout
	cfg.InterpolateParams = true
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, &Error{Kind: KindConnection, Op: "open", Err: err}
	}

	// The tool is strictly sequential; one connection keeps server-side
	// state (and locks) predictable.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	return &Client{db: db}, nil
}

// NewFromDB wraps an existing handle; used by tests with sqlmock
func NewFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// Ping verifies connectivity and credentials. Failures here are always
// connection errors and abort the session per the error contract.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DialTimeout)
	defer cancel()
	if err := c.db.PingContext(ctx); err != nil {
		return &Error{Kind: KindConnection, Op: "ping", Err: err}
	}
	return nil
}

// Close closes the underlying handle
func (c *Client) Close() error {
	return c.db.Close()
}

// Exec runs a statement under the default timeout and classifies any
// failure
func (c *Client) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.ExecTimeout(ctx, DefaultStatementTimeout, query, args...)
}

// ExecTimeout runs a statement under an explicit timeout. Long-running
// table operations pass their own bound here so a stuck OPTIMIZE cannot
// hang the session forever.
func (c *Client) ExecTimeout(ctx context.Context, timeout time.Duration, query string, args ...any) (sql.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, Classify("exec", err)
	}
	return res, nil
}

// SelectInt runs a single-value query under the default timeout and
// returns the integer result
func (c *Client) SelectInt(ctx context.Context, query string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultStatementTimeout)
	defer cancel()

	var n int64
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, Classify("query", err)
	}
	return n, nil
}

// SelectStrings runs a query returning a single string column under the
// default timeout and collects all rows
func (c *Client) SelectStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultStatementTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Classify("query", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, Classify("query", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify("query", err)
	}
	return out, nil
}

// Admin runs a statement like OPTIMIZE/ANALYZE/CHECK/REPAIR that
// returns a result set instead of an affected-rows count. The result
// set is drained and the Msg_text of the last row returned.
func (c *Client) Admin(ctx context.Context, timeout time.Duration, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return "", Classify("admin", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", Classify("admin", err)
	}

	// Admin statements return (Table, Op, Msg_type, Msg_text) rows;
	// scan generically and keep the last message.
	var msg string
	values := make([]sql.RawBytes, len(cols))
	scan := make([]any, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return "", Classify("admin", err)
		}
		if len(values) > 0 {
			msg = string(values[len(values)-1])
		}
	}
	if err := rows.Err(); err != nil {
		return "", Classify("admin", err)
	}

	logger := log.WithComponent("database")
	logger.Debug().Str("query", query).Str("result", msg).Msg("admin statement done")
	return msg, nil
}
