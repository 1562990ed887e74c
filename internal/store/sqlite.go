package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/exportdss/downstream-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS api_cache (
	cache_key    TEXT PRIMARY KEY,
	request_type TEXT NOT NULL,
	hs_code      TEXT NOT NULL,
	response     BLOB NOT NULL,
	created_at   DATETIME NOT NULL,
	expires_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS commodity_searches (
	id               TEXT PRIMARY KEY,
	user_input       TEXT NOT NULL,
	commodity_name   TEXT,
	raw_hs_code      TEXT,
	semi_hs_code     TEXT,
	finished_hs_code TEXT,
	classification   TEXT,
	created_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_results (
	id               TEXT PRIMARY KEY,
	commodity_name   TEXT,
	raw_hs_code      TEXT,
	semi_hs_code     TEXT,
	finished_hs_code TEXT,
	summary          TEXT,
	narrative        TEXT,
	created_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_api_cache_hs_code ON api_cache(hs_code);
CREATE INDEX IF NOT EXISTS idx_api_cache_expires ON api_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_searches_input ON commodity_searches(user_input);
CREATE INDEX IF NOT EXISTS idx_analyses_commodity ON analysis_results(commodity_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCachedResponse(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT response FROM api_cache WHERE cache_key = ? AND expires_at > ?`,
		key, s.now().UTC(),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached response")
	}
	return payload, nil
}

func (s *SQLiteStore) SetCachedResponse(ctx context.Context, key, kind, code string, payload []byte, ttl time.Duration) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_cache (cache_key, request_type, hs_code, response, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
			request_type = excluded.request_type,
			hs_code      = excluded.hs_code,
			response     = excluded.response,
			created_at   = excluded.created_at,
			expires_at   = excluded.expires_at`,
		key, kind, code, payload, now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached response")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM api_cache WHERE expires_at <= ?`, s.now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) SaveSearch(ctx context.Context, rec *model.SearchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commodity_searches
		 (id, user_input, commodity_name, raw_hs_code, semi_hs_code, finished_hs_code, classification, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Input, rec.Commodity, rec.RawCode, rec.SemiCode, rec.FinishedCode,
		string(rec.Classification), rec.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: save search")
}

func (s *SQLiteStore) GetSearch(ctx context.Context, input string) (*model.SearchRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_input, commodity_name, raw_hs_code, semi_hs_code, finished_hs_code, classification, created_at
		 FROM commodity_searches WHERE user_input = ?
		 ORDER BY created_at DESC LIMIT 1`,
		input,
	)

	var rec model.SearchRecord
	var classification sql.NullString
	err := row.Scan(&rec.ID, &rec.Input, &rec.Commodity, &rec.RawCode, &rec.SemiCode,
		&rec.FinishedCode, &classification, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get search")
	}
	if classification.Valid {
		rec.Classification = []byte(classification.String)
	}
	return &rec, nil
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, rec *model.AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_results
		 (id, commodity_name, raw_hs_code, semi_hs_code, finished_hs_code, summary, narrative, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Commodity, rec.RawCode, rec.SemiCode, rec.FinishedCode,
		string(rec.Summary), rec.Narrative, rec.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: save analysis")
}
