package mysql

import (
	"context"
	"database/sql"
	"errors"
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
  id            VARCHAR(36)  NOT NULL PRIMARY KEY,
  timestamp     DATETIME(6)  NOT NULL,
  agent         VARCHAR(64)  NOT NULL,
  analysis_type VARCHAR(64)  NOT NULL,
  language      VARCHAR(64)  NOT NULL DEFAULT '',
  page_title    VARCHAR(512) NOT NULL,
  page_url      VARCHAR(2048) NOT NULL,
  result_text   LONGTEXT     NOT NULL,
  page_content  LONGTEXT     NOT NULL,
  user_id       VARCHAR(255) NOT NULL DEFAULT '',
  created_at    DATETIME(6)  NOT NULL,
  INDEX idx_saved_analyses_ts (timestamp),
  INDEX idx_saved_analyses_user (user_id)
)`

// Migrate creates the table when missing.
func (r *HistoryRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save inserts a saved analysis, replacing one with the same id
func (r *HistoryRepository) Save(ctx context.Context, rec *history.Record) error {
	const q = `
INSERT INTO saved_analyses
  (id, timestamp, agent, analysis_type, language, page_title, page_url, result_text, page_content, user_id, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  timestamp=VALUES(timestamp), agent=VALUES(agent), analysis_type=VALUES(analysis_type),
  language=VALUES(language), page_title=VALUES(page_title), page_url=VALUES(page_url),
  result_text=VALUES(result_text), page_content=VALUES(page_content), user_id=VALUES(user_id);
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
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM saved_analyses WHERE id=?`, id)
	rec, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, history.ErrNotFound
	}
	return rec, err
}

// List returns saved analyses newest first
func (r *HistoryRepository) List(ctx context.Context, f history.Filter) ([]*history.Record, error) {
	where, args := filterClause(f)
	q := `SELECT ` + columns + ` FROM saved_analyses` + where + ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	args = append(args, history.ClampLimit(f.Limit))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*history.Record{}
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *HistoryRepository) Delete(ctx context.Context, id history.RecordID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_analyses WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return history.ErrNotFound
	}
	return nil
}

func filterClause(f history.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(col, v string) {
		if v != "" {
			conds = append(conds, col+"=?")
			args = append(args, v)
		}
	}
	add("agent", f.Agent)
	add("analysis_type", f.AnalysisType)
	add("user_id", f.UserID)
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*history.Record, error) {
	var rec history.Record
	if err := s.Scan(&rec.ID, &rec.Timestamp, &rec.Agent, &rec.AnalysisType, &rec.Language,
		&rec.PageTitle, &rec.PageURL, &rec.ResultText, &rec.PageContent, &rec.UserID, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
