package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS automation_config (
	id          BIGSERIAL PRIMARY KEY,
	enabled     BOOLEAN NOT NULL DEFAULT false,
	location    TEXT NOT NULL DEFAULT '',
	day_of_week TEXT NOT NULL DEFAULT 'monday',
	time        TEXT NOT NULL DEFAULT '09:00',
	industries  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS leads (
	id         BIGSERIAL PRIMARY KEY,
	business   TEXT NOT NULL,
	industry   TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	website    TEXT NOT NULL DEFAULT '',
	seo_score  INTEGER NOT NULL DEFAULT 0,
	phone      TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT '',
	issues     JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
`

const automationColumns = `id, enabled, location, day_of_week, time, industries, created_at, updated_at`

const leadColumns = `id, business, industry, location, website, seo_score, phone, email, issues, created_at`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetAutomationConfig(ctx context.Context) (*model.AutomationConfig, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+automationColumns+` FROM automation_config ORDER BY created_at DESC LIMIT 1`)
	cfg, err := scanAutomation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get automation config")
	}
	return cfg, nil
}

func (s *PostgresStore) SaveAutomationConfig(ctx context.Context, cfg model.AutomationConfig) (*model.AutomationConfig, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM automation_config ORDER BY created_at DESC LIMIT 1`).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		row := s.pool.QueryRow(ctx,
			`INSERT INTO automation_config (enabled, location, day_of_week, time, industries)
			 VALUES ($1, $2, $3, $4, $5) RETURNING `+automationColumns,
			cfg.Enabled, cfg.Location, cfg.DayOfWeek, cfg.Time, cfg.Industries,
		)
		saved, err := scanAutomation(row)
		return saved, eris.Wrap(err, "postgres: insert automation config")
	case err != nil:
		return nil, eris.Wrap(err, "postgres: find automation config")
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE automation_config
		 SET enabled = $1, location = $2, day_of_week = $3, time = $4, industries = $5, updated_at = $6
		 WHERE id = $7 RETURNING `+automationColumns,
		cfg.Enabled, cfg.Location, cfg.DayOfWeek, cfg.Time, cfg.Industries, time.Now().UTC(), id,
	)
	saved, err := scanAutomation(row)
	return saved, eris.Wrapf(err, "postgres: update automation config %d", id)
}

func (s *PostgresStore) ListLeads(ctx context.Context, limit int) ([]model.StoredLead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	leads := []model.StoredLead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate leads")
}

func scanAutomation(row scannable) (*model.AutomationConfig, error) {
	var c model.AutomationConfig
	if err := row.Scan(&c.ID, &c.Enabled, &c.Location, &c.DayOfWeek, &c.Time, &c.Industries, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanLead(row scannable) (*model.StoredLead, error) {
	var l model.StoredLead
	var issues []byte
	if err := row.Scan(&l.ID, &l.Business, &l.Industry, &l.Location, &l.Website,
		&l.SEOScore, &l.Phone, &l.Email, &issues, &l.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	l.Issues, err = decodeIssues(issues)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func decodeIssues(raw []byte) ([]string, error) {
	issues := []string{}
	if len(raw) == 0 {
		return issues, nil
	}
	if err := json.Unmarshal(raw, &issues); err != nil {
		return nil, eris.Wrap(err, "decode issues")
	}
	return issues, nil
}
