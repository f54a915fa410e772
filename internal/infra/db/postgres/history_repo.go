package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/clausecode/internal/domain/history"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS saved_analyses (
  id            TEXT PRIMARY KEY,
  timestamp     TIMESTAMPTZ NOT NULL,
  agent         TEXT NOT NULL,
  analysis_type TEXT NOT NULL,
  language      TEXT NOT NULL DEFAULT '',
  page_title    TEXT NOT NULL,
  page_url      TEXT NOT NULL,
  result_text   TEXT NOT NULL,
  page_content  TEXT NOT NULL,
  user_id       TEXT NOT NULL DEFAULT '',
  created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_saved_analyses_ts ON saved_analyses (timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_saved_analyses_user ON saved_analyses (user_id);`

func (r *HistoryRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save inserts or updates a saved analysis
func (r *HistoryRepository) Save(ctx context.Context, rec *history.Record) error {
	const q = `
INSERT INTO saved_analyses
  (id, timestamp, agent, analysis_type, language, page_title, page_url, result_text, page_content, user_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  timestamp=EXCLUDED.timestamp,
  agent=EXCLUDED.agent,
  analysis_type=EXCLUDED.analysis_type,
  language=EXCLUDED.language,
  page_title=EXCLUDED.page_title,
  page_url=EXCLUDED.page_url,
  result_text=EXCLUDED.result_text,
  page_content=EXCLUDED.page_content,
  user_id=EXCLUDED.user_id;
`
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.Timestamp, stringOrDash(rec.Agent), stringOrDash(rec.AnalysisType), rec.Language,
		stringOrDash(rec.PageTitle), stringOrDash(rec.PageURL), rec.ResultText, rec.PageContent,
		rec.UserID, createdAt)
	return err
}

const columns = `id, timestamp, agent, analysis_type, language, page_title, page_url, result_text, page_content, user_id, created_at`

func (r *HistoryRepository) Get(ctx context.Context, id history.RecordID) (*history.Record, error) {
	var rec history.Record
	err := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM saved_analyses WHERE id=$1`, id).Scan(
		&rec.ID, &rec.Timestamp, &rec.Agent, &rec.AnalysisType, &rec.Language,
		&rec.PageTitle, &rec.PageURL, &rec.ResultText, &rec.PageContent, &rec.UserID, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns saved analyses ordered by timestamp desc
func (r *HistoryRepository) List(ctx context.Context, f history.Filter) ([]*history.Record, error) {
	where, args := filterClause(f)
	args = append(args, history.ClampLimit(f.Limit))
	q := fmt.Sprintf(`SELECT %s FROM saved_analyses%s ORDER BY timestamp DESC, id DESC LIMIT $%d`,
		columns, where, len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*history.Record{}
	for rows.Next() {
		var rec history.Record
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Agent, &rec.AnalysisType, &rec.Language,
			&rec.PageTitle, &rec.PageURL, &rec.ResultText, &rec.PageContent, &rec.UserID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *HistoryRepository) Delete(ctx context.Context, id history.RecordID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_analyses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return history.ErrNotFound
	}
	return nil
}

// filterClause numbers its placeholders from $1.
func filterClause(f history.Filter) (string, []any) {
	var conds []string
	var args []any
	for _, c := range []struct{ col, v string }{
		{"agent", f.Agent},
		{"analysis_type", f.AnalysisType},
		{"user_id", f.UserID},
	} {
		if c.v == "" {
			continue
		}
		args = append(args, c.v)
		conds = append(conds, fmt.Sprintf("%s=$%d", c.col, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
