package store

import (
	"context"
	"errors"
	"fmt"

	"jobfeed/services/ingestion/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS jobs (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		requirements TEXT[] NOT NULL DEFAULT '{}',
		salary TEXT NOT NULL,
		experience_level INTEGER NOT NULL,
		location TEXT NOT NULL,
		job_type TEXT NOT NULL,
		position INTEGER NOT NULL,
		company UUID NOT NULL,
		created_by UUID NOT NULL,
		applications UUID[] NOT NULL DEFAULT '{}',
		source TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT jobs_dedup_key UNIQUE (title, location, company)
	)
`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) FindOne(ctx context.Context, key models.Key) (*models.Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id::text, title, description, requirements, salary, experience_level,
			location, job_type, position, company::text, created_by::text,
			applications::text[], source, created_at
		FROM jobs
		WHERE title = $1 AND location = $2 AND company = $3::uuid
	`, key.Title, key.Location, key.Company.String())

	var (
		job                    models.Job
		id, company, createdBy string
		applications           []string
	)
	err := row.Scan(&id, &job.Title, &job.Description, &job.Requirements, &job.Salary,
		&job.ExperienceLevel, &job.Location, &job.JobType, &job.Position, &company,
		&createdBy, &applications, &job.Source, &job.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding job %q: %w", key.Title, err)
	}

	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing job id: %w", err)
	}
	if job.Company, err = uuid.Parse(company); err != nil {
		return nil, fmt.Errorf("parsing company ref: %w", err)
	}
	if job.CreatedBy, err = uuid.Parse(createdBy); err != nil {
		return nil, fmt.Errorf("parsing created_by ref: %w", err)
	}
	job.Applications = make([]uuid.UUID, 0, len(applications))
	for _, a := range applications {
		ref, err := uuid.Parse(a)
		if err != nil {
			return nil, fmt.Errorf("parsing application ref: %w", err)
		}
		job.Applications = append(job.Applications, ref)
	}

	return &job, nil
}

// Insert relies on the jobs_dedup_key constraint: a conflicting row is left
// untouched and reported as ErrDuplicate.
func (s *PostgresStore) Insert(ctx context.Context, job models.Job) (models.Job, error) {
	job = withDefaults(job)

	applications := make([]string, 0, len(job.Applications))
	for _, a := range job.Applications {
		applications = append(applications, a.String())
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (
			id, title, description, requirements, salary, experience_level,
			location, job_type, position, company, created_by, applications,
			source, created_at
		) VALUES (
			$1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10::uuid, $11::uuid, $12::uuid[], $13, $14
		)
		ON CONFLICT (title, location, company) DO NOTHING
	`,
		job.ID.String(), job.Title, job.Description, job.Requirements, job.Salary,
		job.ExperienceLevel, job.Location, job.JobType, job.Position,
		job.Company.String(), job.CreatedBy.String(), applications,
		job.Source, job.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return job, ErrDuplicate
		}
		return job, fmt.Errorf("inserting job %q: %w", job.Title, err)
	}
	if tag.RowsAffected() == 0 {
		return job, ErrDuplicate
	}

	return job, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
