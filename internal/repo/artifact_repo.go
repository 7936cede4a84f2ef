package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

// ArtifactRepo — реестр артефактов, произведённых jobs.
type ArtifactRepo struct {
	pool *pgxpool.Pool
}

func NewArtifactRepo(pool *pgxpool.Pool) *ArtifactRepo {
	return &ArtifactRepo{pool: pool}
}

func (r *ArtifactRepo) Create(ctx context.Context, artifact *domain.Artifact) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO artifacts (id, job_id, name, path, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		artifact.ID,
		artifact.JobID,
		artifact.Name,
		artifact.Path,
		artifact.Size,
		artifact.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// GetByJobAndName возвращает артефакт job по объявленному имени output'а.
// Именно так разрешаются forward-ссылки: job ещё не существовал в момент
// объявления ссылки, но к моменту разрешения его output уже записан.
func (r *ArtifactRepo) GetByJobAndName(ctx context.Context, jobID uuid.UUID, name string) (*domain.Artifact, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, job_id, name, path, size, created_at
		FROM artifacts
		WHERE job_id = $1 AND name = $2`, jobID, name)

	artifact, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return artifact, nil
}

func (r *ArtifactRepo) ListByJobID(ctx context.Context, jobID uuid.UUID) ([]*domain.Artifact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, job_id, name, path, size, created_at
		FROM artifacts
		WHERE job_id = $1
		ORDER BY name`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*domain.Artifact
	for rows.Next() {
		artifact, err := scanArtifactFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

// ListByPrefix возвращает артефакты, чей путь начинается с prefix,
// в лексикографическом порядке путей.
func (r *ArtifactRepo) ListByPrefix(ctx context.Context, prefix string) ([]*domain.Artifact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, job_id, name, path, size, created_at
		FROM artifacts
		WHERE path LIKE $1 || '%'
		ORDER BY path`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list artifacts by prefix: %w", err)
	}
	defer rows.Close()

	var artifacts []*domain.Artifact
	for rows.Next() {
		artifact, err := scanArtifactFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

func scanArtifact(row pgx.Row) (*domain.Artifact, error) {
	var artifact domain.Artifact
	err := row.Scan(
		&artifact.ID,
		&artifact.JobID,
		&artifact.Name,
		&artifact.Path,
		&artifact.Size,
		&artifact.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

func scanArtifactFromRows(rows pgx.Rows) (*domain.Artifact, error) {
	var artifact domain.Artifact
	err := rows.Scan(
		&artifact.ID,
		&artifact.JobID,
		&artifact.Name,
		&artifact.Path,
		&artifact.Size,
		&artifact.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}
