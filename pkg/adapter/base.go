package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdash/pkg/core"
)

// ErrNotOpen is returned when a session is requested before Open.
var ErrNotOpen = errors.New("database connection not established")

// BaseSQLAdapter provides database/sql sessions for adapters.
// Embed it in concrete adapters and set DB from Open.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger

	// Convert maps driver-specific scan values to plain Go values. Optional.
	Convert func(any) any
}

// Connect acquires a dedicated connection from the pool.
func (b *BaseSQLAdapter) Connect(ctx context.Context) (Session, error) {
	if b.DB == nil {
		return nil, ErrNotOpen
	}
	conn, err := b.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &SQLSession{conn: conn, logger: b.logger(), convert: b.Convert}, nil
}

// Close closes the database handle.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	b.logger().Debug("closing database connection")
	err := b.DB.Close()
	b.DB = nil
	return err
}

// IsConnected returns true if the database handle is open.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// SQLSession is a Session over a single *sql.Conn.
type SQLSession struct {
	conn    *sql.Conn
	logger  *slog.Logger
	convert func(any) any
}

// Query runs sqlStr and reads every row into memory.
func (s *SQLSession) Query(ctx context.Context, sqlStr string) (*core.ResultSet, error) {
	s.logger.Debug("query", slog.String("sql", sqlStr))

	rows, err := s.conn.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, &core.QueryExecutionError{SQL: sqlStr, Err: err}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &core.QueryExecutionError{SQL: sqlStr, Err: err}
	}

	rs := &core.ResultSet{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &core.QueryExecutionError{SQL: sqlStr, Err: fmt.Errorf("failed to scan row: %w", err)}
		}
		row := make(core.Row, len(cols))
		for i, col := range cols {
			row[col] = s.value(values[i])
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.QueryExecutionError{SQL: sqlStr, Err: err}
	}
	return rs, nil
}

// Exec runs a statement that returns no rows.
func (s *SQLSession) Exec(ctx context.Context, sqlStr string) error {
	s.logger.Debug("exec", slog.String("sql", sqlStr))
	if _, err := s.conn.ExecContext(ctx, sqlStr); err != nil {
		return &core.QueryExecutionError{SQL: sqlStr, Err: err}
	}
	return nil
}

// Close returns the connection to the pool.
func (s *SQLSession) Close() error {
	return s.conn.Close()
}

func (s *SQLSession) value(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	if s.convert != nil {
		return s.convert(v)
	}
	return v
}
