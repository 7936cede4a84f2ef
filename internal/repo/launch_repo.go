package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

// LaunchRepo — хранилище запусков.
type LaunchRepo struct {
	pool *pgxpool.Pool
}

func NewLaunchRepo(pool *pgxpool.Pool) *LaunchRepo {
	return &LaunchRepo{pool: pool}
}

// LaunchFilter — параметры выборки запусков.
type LaunchFilter struct {
	RunID  string
	Status domain.LaunchStatus
	Limit  int
	Offset int
}

// Create сохраняет запуск. Если ключ идемпотентности уже занят,
// возвращает ErrAlreadyExists — повторная заявка на тот же прогон
// не порождает второй запуск.
func (r *LaunchRepo) Create(ctx context.Context, launch *domain.Launch) error {
	request, err := json.Marshal(launch.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	tarball, err := marshalTarballRef(launch.TarballRef)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO launches (id, run_id, status, request, tarball, started_at, finished_at, error, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (idempotency_key) DO NOTHING`,
		launch.ID,
		launch.RunID,
		launch.Status,
		request,
		tarball,
		launch.StartedAt,
		launch.FinishedAt,
		nullString(launch.Error),
		nullString(launch.IdempotencyKey),
		launch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert launch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *LaunchRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Launch, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, run_id, status, request, tarball, started_at, finished_at, error, idempotency_key, created_at
		FROM launches
		WHERE id = $1`, id)

	launch, err := scanLaunch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get launch: %w", err)
	}
	return launch, nil
}

func (r *LaunchRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Launch, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, run_id, status, request, tarball, started_at, finished_at, error, idempotency_key, created_at
		FROM launches
		WHERE idempotency_key = $1`, key)

	launch, err := scanLaunch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get launch by idempotency key: %w", err)
	}
	return launch, nil
}

func (r *LaunchRepo) List(ctx context.Context, filter LaunchFilter) ([]*domain.Launch, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, run_id, status, request, tarball, started_at, finished_at, error, idempotency_key, created_at
		FROM launches
		WHERE ($1 = '' OR run_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		filter.RunID, string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list launches: %w", err)
	}
	defer rows.Close()

	var launches []*domain.Launch
	for rows.Next() {
		launch, err := scanLaunchFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		launches = append(launches, launch)
	}
	return launches, rows.Err()
}

// ListUnfinished возвращает запуски, не дошедшие до терминального статуса.
// Используется оркестратором при старте для восстановления состояния.
func (r *LaunchRepo) ListUnfinished(ctx context.Context) ([]*domain.Launch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, run_id, status, request, tarball, started_at, finished_at, error, idempotency_key, created_at
		FROM launches
		WHERE status IN ($1, $2, $3)
		ORDER BY created_at`,
		domain.LaunchStatusPending, domain.LaunchStatusLaunching, domain.LaunchStatusLaunched)
	if err != nil {
		return nil, fmt.Errorf("list unfinished launches: %w", err)
	}
	defer rows.Close()

	var launches []*domain.Launch
	for rows.Next() {
		launch, err := scanLaunchFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		launches = append(launches, launch)
	}
	return launches, rows.Err()
}

func (r *LaunchRepo) Update(ctx context.Context, launch *domain.Launch) error {
	tarball, err := marshalTarballRef(launch.TarballRef)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE launches
		SET status = $2, tarball = $3, started_at = $4, finished_at = $5, error = $6
		WHERE id = $1`,
		launch.ID,
		launch.Status,
		tarball,
		launch.StartedAt,
		launch.FinishedAt,
		nullString(launch.Error),
	)
	if err != nil {
		return fmt.Errorf("update launch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanLaunch(row pgx.Row) (*domain.Launch, error) {
	var launch domain.Launch
	var request, tarball []byte
	var errMsg, idempotencyKey *string

	err := row.Scan(
		&launch.ID,
		&launch.RunID,
		&launch.Status,
		&request,
		&tarball,
		&launch.StartedAt,
		&launch.FinishedAt,
		&errMsg,
		&idempotencyKey,
		&launch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(request, &launch.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if err := unmarshalTarballRef(tarball, &launch.TarballRef); err != nil {
		return nil, err
	}
	if errMsg != nil {
		launch.Error = *errMsg
	}
	if idempotencyKey != nil {
		launch.IdempotencyKey = *idempotencyKey
	}
	return &launch, nil
}

func scanLaunchFromRows(rows pgx.Rows) (*domain.Launch, error) {
	var launch domain.Launch
	var request, tarball []byte
	var errMsg, idempotencyKey *string

	err := rows.Scan(
		&launch.ID,
		&launch.RunID,
		&launch.Status,
		&request,
		&tarball,
		&launch.StartedAt,
		&launch.FinishedAt,
		&errMsg,
		&idempotencyKey,
		&launch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(request, &launch.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if err := unmarshalTarballRef(tarball, &launch.TarballRef); err != nil {
		return nil, err
	}
	if errMsg != nil {
		launch.Error = *errMsg
	}
	if idempotencyKey != nil {
		launch.IdempotencyKey = *idempotencyKey
	}
	return &launch, nil
}

// marshalTarballRef сериализует ссылку на сводный архив; пустая ссылка
// хранится как NULL, а не как пустой объект.
func marshalTarballRef(ref domain.ArtifactRef) ([]byte, error) {
	if ref.IsZero() {
		return nil, nil
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return nil, fmt.Errorf("marshal tarball ref: %w", err)
	}
	return data, nil
}

func unmarshalTarballRef(data []byte, ref *domain.ArtifactRef) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, ref); err != nil {
		return fmt.Errorf("unmarshal tarball ref: %w", err)
	}
	return nil
}

// nullString преобразует пустую строку в NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
