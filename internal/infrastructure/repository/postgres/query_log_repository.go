package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
)

// QueryLogRepository persists answered-query audit records.
type QueryLogRepository struct {
	db *sql.DB
}

func NewQueryLogRepository(db *sql.DB) *QueryLogRepository {
	return &QueryLogRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *QueryLogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker replicas.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS query_log (
	event_id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL,
	question TEXT NOT NULL,
	action TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	correct_count INT NOT NULL DEFAULT 0,
	ambiguous_count INT NOT NULL DEFAULT 0,
	incorrect_count INT NOT NULL DEFAULT 0,
	merged_count INT NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	answered_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_query_log_user_answered
	ON query_log (user_id, answered_at DESC);`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure query_log schema: %w", err)
	}
	return tx.Commit()
}

func (r *QueryLogRepository) Insert(ctx context.Context, event domain.QueryAnsweredEvent) error {
	const query = `
INSERT INTO query_log (
	event_id, request_id, user_id, question, action, model,
	correct_count, ambiguous_count, incorrect_count, merged_count,
	duration_ms, answered_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (event_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		event.EventID,
		event.RequestID,
		event.UserID,
		event.Question,
		string(event.Action),
		event.Model,
		event.Correct,
		event.Ambiguous,
		event.Incorrect,
		event.Merged,
		event.DurationMS,
		event.AnsweredAt,
	)
	if err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	return nil
}
