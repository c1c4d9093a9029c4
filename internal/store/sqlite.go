package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS automation_config (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	enabled     INTEGER NOT NULL DEFAULT 0,
	location    TEXT NOT NULL DEFAULT '',
	day_of_week TEXT NOT NULL DEFAULT 'monday',
	time        TEXT NOT NULL DEFAULT '09:00',
	industries  TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME
);

CREATE TABLE IF NOT EXISTS leads (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	business   TEXT NOT NULL,
	industry   TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	website    TEXT NOT NULL DEFAULT '',
	seo_score  INTEGER NOT NULL DEFAULT 0,
	phone      TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT '',
	issues     TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetAutomationConfig(ctx context.Context) (*model.AutomationConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+automationColumns+` FROM automation_config ORDER BY created_at DESC, id DESC LIMIT 1`)
	cfg, err := scanSQLiteAutomation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get automation config")
	}
	return cfg, nil
}

func (s *SQLiteStore) SaveAutomationConfig(ctx context.Context, cfg model.AutomationConfig) (*model.AutomationConfig, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM automation_config ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO automation_config (enabled, location, day_of_week, time, industries, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			cfg.Enabled, cfg.Location, cfg.DayOfWeek, cfg.Time, cfg.Industries, time.Now().UTC(),
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: insert automation config")
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, eris.Wrap(err, "sqlite: last insert id")
		}
	case err != nil:
		return nil, eris.Wrap(err, "sqlite: find automation config")
	default:
		res, err := s.db.ExecContext(ctx,
			`UPDATE automation_config
			 SET enabled = ?, location = ?, day_of_week = ?, time = ?, industries = ?, updated_at = ?
			 WHERE id = ?`,
			cfg.Enabled, cfg.Location, cfg.DayOfWeek, cfg.Time, cfg.Industries, time.Now().UTC(), id,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: update automation config %d", id)
		}
		if err := checkRowsAffected(res, "automation config", id); err != nil {
			return nil, err
		}
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+automationColumns+` FROM automation_config WHERE id = ?`, id)
	saved, err := scanSQLiteAutomation(row)
	return saved, eris.Wrapf(err, "sqlite: reload automation config %d", id)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, limit int) ([]model.StoredLead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	leads := []model.StoredLead{}
	for rows.Next() {
		var l model.StoredLead
		var issues string
		if err := rows.Scan(&l.ID, &l.Business, &l.Industry, &l.Location, &l.Website,
			&l.SEOScore, &l.Phone, &l.Email, &issues, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		if l.Issues, err = decodeIssues([]byte(issues)); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}

// helpers

func scanSQLiteAutomation(row scannable) (*model.AutomationConfig, error) {
	var c model.AutomationConfig
	var updated sql.NullTime
	if err := row.Scan(&c.ID, &c.Enabled, &c.Location, &c.DayOfWeek, &c.Time, &c.Industries, &c.CreatedAt, &updated); err != nil {
		return nil, err
	}
	if updated.Valid {
		t := updated.Time
		c.UpdatedAt = &t
	}
	return &c, nil
}

func checkRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %d", entity, id)
	}
	return nil
}
