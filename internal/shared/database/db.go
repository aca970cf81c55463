package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/nasoro/gateway/internal/shared/models"
)

// DB is an optional Postgres-backed access-log sink. When DATABASE_URL
// is unset the gateway falls back to the flat-file sink; either way the
// request pipeline never waits on the write.
type DB struct {
	conn *sql.DB
	log  zerolog.Logger
}

// New creates a new database connection
func New(databaseURL string, log zerolog.Logger) (*DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return &DB{conn: conn, log: log}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record inserts an access log entry asynchronously. Failures are
// logged and swallowed.
func (db *DB) Record(entry models.AccessLogEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.insertAccess(ctx, entry); err != nil {
			db.log.Warn().Err(err).Msg("access log insert failed")
		}
	}()
}

func (db *DB) insertAccess(ctx context.Context, entry models.AccessLogEntry) error {
	query := `
		INSERT INTO access_logs (ts, client_key, method, path)
		VALUES ($1, $2, $3, $4)
	`

	_, err := db.conn.ExecContext(ctx,
		query,
		entry.Timestamp,
		entry.ClientKey,
		entry.Method,
		entry.Path,
	)

	return err
}
