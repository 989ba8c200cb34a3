// Package history persists reconciliation run history in PostgreSQL.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"time"

	"github.com/PranavYehale/FCTC-TOOL/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL creates the run history table. It is idempotent.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS reconcile_runs (
	id            UUID PRIMARY KEY,
	academic_year TEXT NOT NULL,
	exam_file     TEXT NOT NULL,
	roster_file   TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_code    TEXT,
	summary       JSONB NOT NULL DEFAULT '{}'::jsonb,
	files         TEXT[] NOT NULL DEFAULT '{}',
	ip_address    INET,
	user_agent    TEXT,
	started_at    TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS reconcile_runs_started_at_idx ON reconcile_runs (started_at DESC);
`

// Store implements core.RunStore on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.RunStore = (*Store)(nil)

// NewStore creates a store on pool. Call Migrate before first use.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the run history table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate run history: %w", err)
	}
	return nil
}

// RecordRun inserts one run. Recording the same ID twice is a no-op.
func (s *Store) RecordRun(ctx context.Context, run core.RunRecord) error {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	files := run.Files
	if files == nil {
		files = []string{}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO reconcile_runs (
			id, academic_year, exam_file, roster_file, status, error_code,
			summary, files, ip_address, user_agent, started_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`,
		pgtype.UUID{Bytes: run.ID, Valid: true},
		run.Year,
		run.ExamFile,
		run.RosterFile,
		string(run.Status),
		textOrNull(run.ErrorCode),
		summary,
		files,
		parseIP(run.ClientIP),
		textOrNull(run.UserAgent),
		run.StartedAt,
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// uses core.DefaultMemoryRuns.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]core.RunRecord, error) {
	if limit <= 0 {
		limit = core.DefaultMemoryRuns
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, academic_year, exam_file, roster_file, status, error_code,
			summary, files, ip_address, user_agent, started_at, duration_ms
		FROM reconcile_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]core.RunRecord, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// PruneRuns deletes runs started before cutoff.
func (s *Store) PruneRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reconcile_runs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRun(rows pgx.Rows) (core.RunRecord, error) {
	var (
		id         pgtype.UUID
		year       string
		examFile   string
		rosterFile string
		status     string
		errorCode  pgtype.Text
		summary    []byte
		files      []string
		ipAddress  *netip.Addr
		userAgent  pgtype.Text
		startedAt  pgtype.Timestamptz
		durationMS int64
	)

	err := rows.Scan(
		&id, &year, &examFile, &rosterFile, &status, &errorCode,
		&summary, &files, &ipAddress, &userAgent, &startedAt, &durationMS,
	)
	if err != nil {
		return core.RunRecord{}, err
	}

	run := core.RunRecord{
		ID:         uuid.UUID(id.Bytes),
		Year:       year,
		ExamFile:   examFile,
		RosterFile: rosterFile,
		Status:     core.RunStatus(status),
		Files:      files,
		StartedAt:  startedAt.Time,
		Duration:   time.Duration(durationMS) * time.Millisecond,
	}
	if errorCode.Valid {
		run.ErrorCode = errorCode.String
	}
	if userAgent.Valid {
		run.UserAgent = userAgent.String
	}
	if ipAddress != nil {
		run.ClientIP = ipAddress.String()
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &run.Summary); err != nil {
			return core.RunRecord{}, fmt.Errorf("decode summary of run %s: %w", run.ID, err)
		}
	}
	return run, nil
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// parseIP returns nil for empty or malformed addresses so they are stored
// as NULL.
func parseIP(s string) *netip.Addr {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return nil
	}
	return &addr
}
