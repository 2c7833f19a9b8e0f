// Package pg implementa los repositorios sobre PostgreSQL (pgxpool).
// Las transiciones OTP son UPDATE condicionales, atómicos entre procesos.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
	"github.com/dropDatabas3/procurauth/internal/store"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.Config) (store.Connection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	} else {
		poolCfg.MaxConns = 10
	}
	poolCfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	conn := NewConn(pool)
	if cfg.AutoMigrate {
		res, err := NewMigrator(pool).Run(ctx)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.L().Info("postgres migrations applied",
			logger.Component("store.pg"),
			logger.Count(len(res.Applied)),
		)
	}
	return conn, nil
}

// Conn envuelve el pool.
type Conn struct {
	pool  *pgxpool.Pool
	otp   *OTPRepo
	users *UserRepo
}

// NewConn arma los repositorios sobre un pool existente.
func NewConn(pool *pgxpool.Pool) *Conn {
	return &Conn{pool: pool, otp: &OTPRepo{pool: pool}, users: &UserRepo{pool: pool}}
}

func (c *Conn) Name() string { return "postgres" }

func (c *Conn) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *Conn) Close() error {
	c.pool.Close()
	return nil
}

// Pool expone el pool (métricas, migraciones).
func (c *Conn) Pool() *pgxpool.Pool { return c.pool }

func (c *Conn) OTP() repository.OTPRepository    { return c.otp }
func (c *Conn) Users() repository.UserRepository { return c.users }

// isUniqueViolation detecta SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
