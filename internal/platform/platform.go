package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/repo"
	"github.com/shaiso/Lanekeeper/internal/store"
)

// Submission — запрос на создание job.
type Submission struct {
	// LaunchID — launch, в рамках которого создаётся job.
	LaunchID uuid.UUID

	// Type — тип job (идентификатор executor'а воркера).
	Type string

	// Params — входные параметры. Значения могут быть
	// domain.ArtifactRef, в том числе forward-ссылками.
	Params map[string]any

	// Profile — compute profile для выполнения.
	Profile string

	// DependsOn — явные зависимости (в дополнение к неявным
	// из forward-ссылок в Params).
	DependsOn []uuid.UUID

	// Gate — режим открытия зависимостей. Пустое значение
	// трактуется как SUCCESS.
	Gate domain.Gate

	// Credential — секрет авторизации. Присутствие секрета
	// переключает job в независимую top-level единицу.
	Credential domain.Secret
}

type Config struct {
	Jobs   *repo.JobRepo
	Store  store.Store
	Logger *slog.Logger
}

// Platform — платформа исполнения, хранящая jobs в Postgres
// и артефакты в store.
type Platform struct {
	jobs   *repo.JobRepo
	store  store.Store
	logger *slog.Logger
}

func New(cfg Config) *Platform {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Platform{
		jobs:   cfg.Jobs,
		store:  cfg.Store,
		logger: logger,
	}
}

// Submit создаёт job в статусе PENDING и возвращает handle.
//
// Forward-ссылки в параметрах кодируются и добавляют производителей
// в зависимости job. Сам job не ставится в очередь: это сделает
// orchestrator, когда gate откроется. Секрет из submission не
// персистится и не логируется.
func (p *Platform) Submit(ctx context.Context, sub Submission) (domain.JobHandle, error) {
	if sub.Type == "" {
		return domain.JobHandle{}, ErrMissingType
	}
	if sub.LaunchID == uuid.Nil {
		return domain.JobHandle{}, ErrMissingLaunch
	}

	params, implicit, err := encodeParams(sub.Params)
	if err != nil {
		return domain.JobHandle{}, fmt.Errorf("encode params: %w", err)
	}

	gate := sub.Gate
	if gate == "" {
		gate = domain.GateSuccess
	}

	job := &domain.Job{
		ID:        uuid.New(),
		LaunchID:  sub.LaunchID,
		Type:      sub.Type,
		Status:    domain.JobStatusPending,
		Params:    params,
		Profile:   sub.Profile,
		DependsOn: mergeDeps(sub.DependsOn, implicit),
		Gate:      gate,
		TopLevel:  sub.Credential.Present(),
		CreatedAt: time.Now(),
	}

	if err := p.jobs.Create(ctx, job); err != nil {
		return domain.JobHandle{}, fmt.Errorf("submit %s job: %w", sub.Type, err)
	}

	p.logger.Info("job submitted",
		"job_id", job.ID,
		"launch_id", job.LaunchID,
		"type", job.Type,
		"profile", job.Profile,
		"depends_on", len(job.DependsOn),
		"top_level", job.TopLevel,
		"credential", sub.Credential,
	)
	return job.Handle(), nil
}

// ResolveOutput возвращает ссылку на объявленный output job'а.
//
// Вызов не блокирует и не проверяет, завершился ли job: до успеха
// производителя ссылка остаётся forward-ссылкой.
func (p *Platform) ResolveOutput(handle domain.JobHandle, output string) domain.ArtifactRef {
	return domain.ArtifactRef{JobID: handle.ID, Output: output}
}

// ListArtifacts возвращает артефакты хранилища под префиксом,
// рекурсивно, в лексикографическом порядке путей.
func (p *Platform) ListArtifacts(ctx context.Context, prefix string) ([]domain.ArtifactRef, error) {
	entries, err := p.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list artifacts %q: %w", prefix, err)
	}

	refs := make([]domain.ArtifactRef, 0, len(entries))
	for _, entry := range entries {
		refs = append(refs, domain.ArtifactRef{Path: entry.Path})
	}
	return refs, nil
}
