package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// PoolAdapter exposes a *pgxpool.Pool as mnx.DBConnection so the database
// manager stays free of pgxpool types. Safe for concurrent use.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

func NewPoolAdapter(pool *pgxpool.Pool) mnx.DBConnection {
	return &PoolAdapter{pool: pool}
}

func (p *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) mnx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

func (p *PoolAdapter) Acquire(ctx context.Context) (mnx.PooledConnection, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pooledConnAdapter{conn: conn}, nil
}

type pooledConnAdapter struct {
	conn *pgxpool.Conn
}

func (p *pooledConnAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.conn.Exec(ctx, sql, args...)
}

func (p *pooledConnAdapter) Release() {
	p.conn.Release()
}

var _ mnx.DBConnection = (*PoolAdapter)(nil)
