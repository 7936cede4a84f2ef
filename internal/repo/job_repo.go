package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

// JobRepo — хранилище jobs.
type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (r *JobRepo) Create(ctx context.Context, job *domain.Job) error {
	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	dependsOn, err := json.Marshal(job.DependsOn)
	if err != nil {
		return fmt.Errorf("marshal depends_on: %w", err)
	}
	outputs, err := json.Marshal(job.Outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO jobs (id, launch_id, type, status, params, profile, depends_on, gate, top_level, attempt, outputs, started_at, finished_at, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		job.ID,
		job.LaunchID,
		job.Type,
		job.Status,
		params,
		job.Profile,
		dependsOn,
		job.Gate,
		job.TopLevel,
		job.Attempt,
		outputs,
		job.StartedAt,
		job.FinishedAt,
		nullString(job.Error),
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, launch_id, type, status, params, profile, depends_on, gate, top_level, attempt, outputs, started_at, finished_at, error, created_at
		FROM jobs
		WHERE id = $1`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListByLaunchID возвращает все jobs запуска в порядке создания.
// Порядок стабилен: граф зависимостей строится из него детерминированно.
func (r *JobRepo) ListByLaunchID(ctx context.Context, launchID uuid.UUID) ([]*domain.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, launch_id, type, status, params, profile, depends_on, gate, top_level, attempt, outputs, started_at, finished_at, error, created_at
		FROM jobs
		WHERE launch_id = $1
		ORDER BY created_at`, launchID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJobFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ListQueued возвращает jobs в статусе QUEUED, ожидающие воркера.
// Используется воркером как polling-fallback на случай потери сообщения.
func (r *JobRepo) ListQueued(ctx context.Context, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, launch_id, type, status, params, profile, depends_on, gate, top_level, attempt, outputs, started_at, finished_at, error, created_at
		FROM jobs
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`, domain.JobStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJobFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *JobRepo) Update(ctx context.Context, job *domain.Job) error {
	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	outputs, err := json.Marshal(job.Outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = $2, params = $3, attempt = $4, outputs = $5, started_at = $6, finished_at = $7, error = $8
		WHERE id = $1`,
		job.ID,
		job.Status,
		params,
		job.Attempt,
		outputs,
		job.StartedAt,
		job.FinishedAt,
		nullString(job.Error),
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Claim атомарно переводит job из QUEUED в RUNNING.
// Если job отсутствует или уже взят другим воркером, возвращает
// ErrInvalidState: проигравший воркер молча пропускает job.
func (r *JobRepo) Claim(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = $2, started_at = $3, attempt = attempt + 1
		WHERE id = $1 AND status = $4`,
		id, domain.JobStatusRunning, now, domain.JobStatusQueued)
	if err != nil {
		return fmt.Errorf("claim job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// CountByLaunchAndStatus возвращает количество jobs запуска в заданном статусе.
func (r *JobRepo) CountByLaunchAndStatus(ctx context.Context, launchID uuid.UUID, status domain.JobStatus) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM jobs
		WHERE launch_id = $1 AND status = $2`, launchID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var params, dependsOn, outputs []byte
	var errMsg *string

	err := row.Scan(
		&job.ID,
		&job.LaunchID,
		&job.Type,
		&job.Status,
		&params,
		&job.Profile,
		&dependsOn,
		&job.Gate,
		&job.TopLevel,
		&job.Attempt,
		&outputs,
		&job.StartedAt,
		&job.FinishedAt,
		&errMsg,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(params) > 0 {
		if err := json.Unmarshal(params, &job.Params); err != nil {
			return nil, fmt.Errorf("unmarshal params: %w", err)
		}
	}
	if len(dependsOn) > 0 {
		if err := json.Unmarshal(dependsOn, &job.DependsOn); err != nil {
			return nil, fmt.Errorf("unmarshal depends_on: %w", err)
		}
	}
	if len(outputs) > 0 {
		if err := json.Unmarshal(outputs, &job.Outputs); err != nil {
			return nil, fmt.Errorf("unmarshal outputs: %w", err)
		}
	}
	if errMsg != nil {
		job.Error = *errMsg
	}
	return &job, nil
}

func scanJobFromRows(rows pgx.Rows) (*domain.Job, error) {
	var job domain.Job
	var params, dependsOn, outputs []byte
	var errMsg *string

	err := rows.Scan(
		&job.ID,
		&job.LaunchID,
		&job.Type,
		&job.Status,
		&params,
		&job.Profile,
		&dependsOn,
		&job.Gate,
		&job.TopLevel,
		&job.Attempt,
		&outputs,
		&job.StartedAt,
		&job.FinishedAt,
		&errMsg,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(params) > 0 {
		if err := json.Unmarshal(params, &job.Params); err != nil {
			return nil, fmt.Errorf("unmarshal params: %w", err)
		}
	}
	if len(dependsOn) > 0 {
		if err := json.Unmarshal(dependsOn, &job.DependsOn); err != nil {
			return nil, fmt.Errorf("unmarshal depends_on: %w", err)
		}
	}
	if len(outputs) > 0 {
		if err := json.Unmarshal(outputs, &job.Outputs); err != nil {
			return nil, fmt.Errorf("unmarshal outputs: %w", err)
		}
	}
	if errMsg != nil {
		job.Error = *errMsg
	}
	return &job, nil
}
