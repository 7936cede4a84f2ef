package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/store"
)

// CollectExecutor — executor для job типа "collect".
//
// Агрегатор запуска: рекурсивно листит всё, что произвели lane jobs,
// регистрирует каждый найденный файл как артефакт и публикует итоговый
// манифест. Один общий листинг вместо самоотчёта каждого lane job —
// ретраи lanes не дают частичных и дублирующихся отчётов.
//
// Пустой листинг легален: gate агрегатора — терминальность lane jobs,
// не их успех, поэтому все lanes могли завершиться ошибкой.
//
// Params:
//   - run_id (string): идентификатор run (обязательно)
//   - prefix (string): префикс листинга {folder}/{runId}/reads (обязательно)
//
// Outputs:
//   - manifest (string): путь манифеста {folder}/{runId}/manifest.json
//   - artifacts (int): количество найденных артефактов
type CollectExecutor struct {
	store     store.Store
	artifacts ArtifactRegistry
	logger    *slog.Logger
}

// Execute собирает итоговый листинг запуска.
func (e *CollectExecutor) Execute(ctx context.Context, job *domain.Job) (*ExecutionResult, error) {
	runID, err := paramString(job.Params, domain.ParamRunID)
	if err != nil {
		return nil, err
	}
	prefix, err := paramString(job.Params, domain.ParamListPrefix)
	if err != nil {
		return nil, err
	}

	entries, err := e.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	if len(entries) == 0 {
		e.logger.Warn("no artifacts under prefix", "job_id", job.ID, "run_id", runID, "prefix", prefix)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, entry.Path)

		name := strings.TrimPrefix(strings.TrimPrefix(entry.Path, prefix), "/")
		if err := e.artifacts.Create(ctx, &domain.Artifact{
			ID:        uuid.New(),
			JobID:     job.ID,
			Name:      name,
			Path:      entry.Path,
			Size:      entry.Size,
			CreatedAt: time.Now(),
		}); err != nil {
			return nil, fmt.Errorf("register artifact %s: %w", entry.Path, err)
		}
	}

	manifestPath := path.Join(path.Dir(prefix), "manifest.json")
	if err := e.writeManifest(ctx, manifestPath, paths); err != nil {
		return nil, err
	}

	if err := e.artifacts.Create(ctx, &domain.Artifact{
		ID:        uuid.New(),
		JobID:     job.ID,
		Name:      domain.OutputManifest,
		Path:      manifestPath,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("register manifest: %w", err)
	}

	e.logger.Info("final artifact set collected",
		"job_id", job.ID,
		"run_id", runID,
		"prefix", prefix,
		"artifacts", len(paths),
		"manifest", manifestPath,
	)

	return &ExecutionResult{Outputs: map[string]any{
		domain.OutputManifest: manifestPath,
		"artifacts":           len(paths),
	}}, nil
}

func (e *CollectExecutor) writeManifest(ctx context.Context, manifestPath string, paths []string) error {
	w, err := e.store.Create(ctx, manifestPath)
	if err != nil {
		return fmt.Errorf("create manifest %s: %w", manifestPath, err)
	}
	defer w.Close()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(paths); err != nil {
		return fmt.Errorf("write manifest %s: %w", manifestPath, err)
	}
	return w.Close()
}
