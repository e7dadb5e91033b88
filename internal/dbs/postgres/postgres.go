package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const pkg = "postgres/"

type Config struct {
	Addr     string
	Port     int
	User     string
	Password string
	DB       string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders cfg as a postgres:// connection URL.
func DSN(cfg Config) (string, error) {
	if cfg.Addr == "" || cfg.User == "" || cfg.DB == "" {
		return "", fmt.Errorf("%s: addr, user and db are required", pkg+"DSN")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   cfg.Addr + ":" + strconv.Itoa(cfg.Port),
		Path:   cfg.DB,
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}

	if cfg.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", cfg.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// New opens the pq driver through otelsql so every statement is traced.
func New(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	op := pkg + "New"

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: register otelsql: %w", op, err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", op, err)
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

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return sqlx.NewDb(db, "postgres"), nil
}
