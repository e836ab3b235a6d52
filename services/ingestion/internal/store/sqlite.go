package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobfeed/services/ingestion/internal/models"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS jobs (
		id               TEXT PRIMARY KEY,
		title            TEXT NOT NULL,
		description      TEXT NOT NULL,
		requirements     TEXT NOT NULL DEFAULT '[]',
		salary           TEXT NOT NULL,
		experience_level INTEGER NOT NULL,
		location         TEXT NOT NULL,
		job_type         TEXT NOT NULL,
		position         INTEGER NOT NULL,
		company          TEXT NOT NULL,
		created_by       TEXT NOT NULL,
		applications     TEXT NOT NULL DEFAULT '[]',
		source           TEXT NOT NULL DEFAULT '',
		created_at       DATETIME NOT NULL,
		UNIQUE (title, location, company)
	)
`

// SQLiteStore keeps jobs in an embedded SQLite database. List-valued fields
// are stored as JSON text.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the jobs
// table exists. path may be a plain file path or a file: URI.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if !strings.Contains(dsn, "_pragma=busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// sqlite wants a single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) FindOne(ctx context.Context, key models.Key) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, requirements, salary, experience_level,
			location, job_type, position, company, created_by, applications,
			source, created_at
		FROM jobs
		WHERE title = ? AND location = ? AND company = ?
	`, key.Title, key.Location, key.Company.String())

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding job %q: %w", key.Title, err)
	}
	return job, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, job models.Job) (models.Job, error) {
	job = withDefaults(job)

	requirements, err := json.Marshal(job.Requirements)
	if err != nil {
		return job, fmt.Errorf("encoding requirements: %w", err)
	}
	applications, err := json.Marshal(job.Applications)
	if err != nil {
		return job, fmt.Errorf("encoding applications: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (
			id, title, description, requirements, salary, experience_level,
			location, job_type, position, company, created_by, applications,
			source, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (title, location, company) DO NOTHING
	`,
		job.ID.String(), job.Title, job.Description, string(requirements), job.Salary,
		job.ExperienceLevel, job.Location, job.JobType, job.Position,
		job.Company.String(), job.CreatedBy.String(), string(applications),
		job.Source, job.CreatedAt,
	)
	if err != nil {
		return job, fmt.Errorf("inserting job %q: %w", job.Title, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return job, fmt.Errorf("inserting job %q: %w", job.Title, err)
	}
	if n == 0 {
		return job, ErrDuplicate
	}

	return job, nil
}

// Count returns the number of stored jobs.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting jobs: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanJob(row *sql.Row) (*models.Job, error) {
	var (
		job                                       models.Job
		id, company, createdBy, reqJSON, appsJSON string
		createdAt                                 time.Time
	)
	if err := row.Scan(&id, &job.Title, &job.Description, &reqJSON, &job.Salary,
		&job.ExperienceLevel, &job.Location, &job.JobType, &job.Position, &company,
		&createdBy, &appsJSON, &job.Source, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing job id: %w", err)
	}
	if job.Company, err = uuid.Parse(company); err != nil {
		return nil, fmt.Errorf("parsing company ref: %w", err)
	}
	if job.CreatedBy, err = uuid.Parse(createdBy); err != nil {
		return nil, fmt.Errorf("parsing created_by ref: %w", err)
	}
	if err := json.Unmarshal([]byte(reqJSON), &job.Requirements); err != nil {
		return nil, fmt.Errorf("decoding requirements: %w", err)
	}
	if err := json.Unmarshal([]byte(appsJSON), &job.Applications); err != nil {
		return nil, fmt.Errorf("decoding applications: %w", err)
	}
	job.CreatedAt = createdAt

	return &job, nil
}
