package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/exportdss/downstream-cli/internal/db"
	"github.com/exportdss/downstream-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS api_cache (
	cache_key    TEXT PRIMARY KEY,
	request_type TEXT NOT NULL,
	hs_code      TEXT NOT NULL,
	response     BYTEA NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS commodity_searches (
	id               TEXT PRIMARY KEY,
	user_input       TEXT NOT NULL,
	commodity_name   TEXT,
	raw_hs_code      TEXT,
	semi_hs_code     TEXT,
	finished_hs_code TEXT,
	classification   JSONB,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analysis_results (
	id               TEXT PRIMARY KEY,
	commodity_name   TEXT,
	raw_hs_code      TEXT,
	semi_hs_code     TEXT,
	finished_hs_code TEXT,
	summary          JSONB,
	narrative        TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_api_cache_hs_code ON api_cache(hs_code);
CREATE INDEX IF NOT EXISTS idx_api_cache_expires ON api_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_searches_input ON commodity_searches(user_input);
CREATE INDEX IF NOT EXISTS idx_analyses_commodity ON analysis_results(commodity_name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetCachedResponse(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT response FROM api_cache WHERE cache_key = $1 AND expires_at > now()`,
		key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached response")
	}
	return payload, nil
}

func (s *PostgresStore) SetCachedResponse(ctx context.Context, key, kind, code string, payload []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_cache (cache_key, request_type, hs_code, response, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (cache_key) DO UPDATE SET
			request_type = EXCLUDED.request_type,
			hs_code      = EXCLUDED.hs_code,
			response     = EXCLUDED.response,
			created_at   = EXCLUDED.created_at,
			expires_at   = EXCLUDED.expires_at`,
		key, kind, code, payload, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached response")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM api_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) SaveSearch(ctx context.Context, rec *model.SearchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO commodity_searches
		 (id, user_input, commodity_name, raw_hs_code, semi_hs_code, finished_hs_code, classification, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Input, rec.Commodity, rec.RawCode, rec.SemiCode, rec.FinishedCode,
		rec.Classification, rec.CreatedAt,
	)
	return eris.Wrap(err, "postgres: save search")
}

func (s *PostgresStore) GetSearch(ctx context.Context, input string) (*model.SearchRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_input, commodity_name, raw_hs_code, semi_hs_code, finished_hs_code, classification, created_at
		 FROM commodity_searches WHERE user_input = $1
		 ORDER BY created_at DESC LIMIT 1`,
		input,
	)

	var rec model.SearchRecord
	err := row.Scan(&rec.ID, &rec.Input, &rec.Commodity, &rec.RawCode, &rec.SemiCode,
		&rec.FinishedCode, &rec.Classification, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get search")
	}
	return &rec, nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, rec *model.AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_results
		 (id, commodity_name, raw_hs_code, semi_hs_code, finished_hs_code, summary, narrative, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Commodity, rec.RawCode, rec.SemiCode, rec.FinishedCode,
		rec.Summary, rec.Narrative, rec.CreatedAt,
	)
	return eris.Wrap(err, "postgres: save analysis")
}
