package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type PostgresDB struct {
	Conn *sql.DB
}

func NewPostgresDB(host string, port int, user, password, dbname string, log *zap.SugaredLogger) (*PostgresDB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Infow("connected to PostgreSQL", "host", host, "dbname", dbname)
	return &PostgresDB{Conn: conn}, nil
}

// EnsureSchema creates the orders table and its indexes if they do not exist.
// The unique index on external_id is what makes the first-insert race lose
// loudly instead of producing two orders for the same key.
func (db *PostgresDB) EnsureSchema() error {
	_, err := db.Conn.Exec(`
CREATE TABLE IF NOT EXISTS orders (
    id             text PRIMARY KEY,
    external_id    text NOT NULL UNIQUE,
    status         text NOT NULL,
    items          jsonb NOT NULL,
    total_amount   numeric(19,4) NOT NULL DEFAULT 0,
    created_at     timestamptz NOT NULL,
    updated_at     timestamptz NOT NULL,
    correlation_id text,
    version        bigint NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS orders_status_updated_at_idx ON orders (status, updated_at DESC);`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (db *PostgresDB) Close() error {
	return db.Conn.Close()
}
