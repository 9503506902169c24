package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const historySchema = `
CREATE TABLE IF NOT EXISTS conversion_history (
	id          UUID PRIMARY KEY,
	category    TEXT NOT NULL,
	from_unit   TEXT NOT NULL,
	to_unit     TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	result      DOUBLE PRECISION,
	error_code  TEXT,
	ip_address  TEXT,
	user_agent  TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conversion_history_created_at_idx
	ON conversion_history (created_at DESC);
`

const insertHistorySQL = `
INSERT INTO conversion_history
	(id, category, from_unit, to_unit, value, result, error_code, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const recentHistorySQL = `
SELECT id, category, from_unit, to_unit, value, result, error_code, ip_address, user_agent, created_at
FROM conversion_history
ORDER BY created_at DESC
LIMIT $1`

const purgeHistorySQL = `DELETE FROM conversion_history WHERE created_at < $1`

// PgHistory stores conversion history in PostgreSQL.
type PgHistory struct {
	db DBTX
}

// NewPgHistory wraps a pool or transaction.
func NewPgHistory(db DBTX) *PgHistory {
	return &PgHistory{db: db}
}

// EnsureSchema creates the history table and index if missing.
func (p *PgHistory) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, historySchema); err != nil {
		return fmt.Errorf("history schema: %w", err)
	}
	return nil
}

// Record inserts one entry. Entries without an ID get a fresh UUID.
func (p *PgHistory) Record(ctx context.Context, e HistoryEntry) error {
	id, err := parseOrNewUUID(e.ID)
	if err != nil {
		return fmt.Errorf("history record: %w", err)
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result := pgtype.Float8{}
	if e.Result != nil {
		result = pgtype.Float8{Float64: *e.Result, Valid: true}
	}

	_, err = p.db.Exec(ctx, insertHistorySQL,
		pgtype.UUID{Bytes: id, Valid: true},
		e.Category,
		e.From,
		e.To,
		e.Value,
		result,
		toPgText(e.ErrorCode),
		toPgText(e.IPAddress),
		toPgText(e.UserAgent),
		pgtype.Timestamptz{Time: createdAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("history record: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (p *PgHistory) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := p.db.Query(ctx, recentHistorySQL, limit)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			id        pgtype.UUID
			e         HistoryEntry
			result    pgtype.Float8
			errorCode pgtype.Text
			ip        pgtype.Text
			ua        pgtype.Text
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &e.Category, &e.From, &e.To, &e.Value, &result, &errorCode, &ip, &ua, &createdAt); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}

		e.ID = pgUUIDToString(id)
		if result.Valid {
			v := result.Float64
			e.Result = &v
		}
		e.ErrorCode = errorCode.String
		e.IPAddress = ip.String
		e.UserAgent = ua.String
		e.CreatedAt = createdAt.Time
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}

// Purge deletes entries created before cutoff.
func (p *PgHistory) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, purgeHistorySQL, pgtype.Timestamptz{Time: cutoff, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("history purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

// toPgText converts a string to pgtype.Text.
// Returns invalid (NULL) if the string is empty or only whitespace.
func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// pgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func pgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

func parseOrNewUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(s)
}
