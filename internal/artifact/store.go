package artifact

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/duralab/frpdur/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store keeps artifacts in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the artifact database at path, creating and migrating it as
// needed. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", path)
	} else {
		dsn = ":memory:?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping artifact database: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save writes all artifacts in one transaction so a run is stored fully or
// not at all.
func (s *Store) Save(ctx context.Context, artifacts []*Artifact) error {
	if len(artifacts) == 0 {
		return fmt.Errorf("no artifacts to save")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range artifacts {
		cols, err := json.Marshal(a.FeatureColumns)
		if err != nil {
			return err
		}
		params, err := json.Marshal(a.Params)
		if err != nil {
			return err
		}
		scores, err := json.Marshal(a.CVScores)
		if err != nil {
			return err
		}
		validation, err := json.Marshal(a.Validation)
		if err != nil {
			return err
		}
		test, err := json.Marshal(a.Test)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO artifacts (id, run_id, family, target, best, feature_columns, params, cv_scores, validation, test, payload, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.RunID, a.Family, a.Target, a.Best, string(cols), string(params), string(scores),
			string(validation), string(test), []byte(a.Payload), a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert artifact %s: %w", a.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit artifacts: %w", err)
	}
	return nil
}

const artifactColumns = `id, run_id, family, target, best, feature_columns, params, cv_scores, validation, test, payload, created_at`

// Get retrieves one artifact by ID.
func (s *Store) Get(ctx context.Context, id string) (*Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE id = ?`, id)
	a, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artifact %s not found", id)
	}
	return a, err
}

// LatestBest returns the most recently stored champion artifact.
func (s *Store) LatestBest(ctx context.Context) (*Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE best = 1 ORDER BY created_at DESC, id DESC LIMIT 1`)
	a, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no trained artifacts in store")
	}
	return a, err
}

// Summary is a listing row without the model payload.
type Summary struct {
	ID        string
	RunID     string
	Family    string
	Target    string
	Best      bool
	TestR2    float64
	TestRMSE  float64
	CreatedAt time.Time
}

// List returns summaries of all stored artifacts, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, family, target, best, test, created_at FROM artifacts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var testJSON string
		if err := rows.Scan(&sum.ID, &sum.RunID, &sum.Family, &sum.Target, &sum.Best, &testJSON, &sum.CreatedAt); err != nil {
			return nil, err
		}
		var m model.Metrics
		if err := json.Unmarshal([]byte(testJSON), &m); err != nil {
			return nil, fmt.Errorf("failed to decode metrics for %s: %w", sum.ID, err)
		}
		sum.TestR2 = m.R2
		sum.TestRMSE = m.RMSE
		out = append(out, sum)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row scanner) (*Artifact, error) {
	var a Artifact
	var cols, params, scores, validation, test string
	var payload []byte
	if err := row.Scan(&a.ID, &a.RunID, &a.Family, &a.Target, &a.Best, &cols, &params, &scores, &validation, &test, &payload, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cols), &a.FeatureColumns); err != nil {
		return nil, fmt.Errorf("failed to decode feature columns: %w", err)
	}
	if params != "" && params != "null" {
		if err := json.Unmarshal([]byte(params), &a.Params); err != nil {
			return nil, fmt.Errorf("failed to decode params: %w", err)
		}
	}
	if scores != "" && scores != "null" {
		if err := json.Unmarshal([]byte(scores), &a.CVScores); err != nil {
			return nil, fmt.Errorf("failed to decode cv scores: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(validation), &a.Validation); err != nil {
		return nil, fmt.Errorf("failed to decode validation metrics: %w", err)
	}
	if err := json.Unmarshal([]byte(test), &a.Test); err != nil {
		return nil, fmt.Errorf("failed to decode test metrics: %w", err)
	}
	a.Payload = json.RawMessage(payload)
	return &a, nil
}
