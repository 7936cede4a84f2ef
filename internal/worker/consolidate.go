package worker

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/store"
)

// ConsolidateExecutor — executor для job типа "consolidate".
//
// Склеивает частичные tar-загрузки run в один сводный архив.
// Загрузки читаются потоково в порядке манифеста; повторные члены
// пропускаются — выигрывает первый.
//
// Params:
//   - run_id (string): идентификатор run (обязательно)
//   - manifest ([]string): пути частичных архивов (обязательно, непустой)
//   - folder (string): корневая папка результатов. Default: "/"
//
// Outputs:
//   - tarball (string): путь сводного архива {folder}/{runId}/{runId}.tar
//   - uploads (int): количество склеенных загрузок
type ConsolidateExecutor struct {
	store     store.Store
	artifacts ArtifactRegistry
	logger    *slog.Logger
}

// Execute склеивает загрузки и регистрирует сводный tarball.
func (e *ConsolidateExecutor) Execute(ctx context.Context, job *domain.Job) (*ExecutionResult, error) {
	runID, err := paramString(job.Params, domain.ParamRunID)
	if err != nil {
		return nil, err
	}
	uploads, err := paramStrings(job.Params, domain.ParamManifest)
	if err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, ErrEmptyManifest
	}
	folder := stringParam(job.Params, domain.ParamFolder, "/")

	outPath := path.Join(folder, runID, runID+".tar")
	w, err := e.store.Create(ctx, outPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", outPath, err)
	}
	defer w.Close()

	tw := tar.NewWriter(w)
	seen := make(map[string]struct{})
	for _, upload := range uploads {
		if err := e.appendUpload(ctx, tw, upload, seen); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("finalize %s: %w", outPath, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", outPath, err)
	}

	// Размер — best effort: сводный архив уже записан.
	var size int64
	if entry, err := e.store.Stat(ctx, outPath); err == nil {
		size = entry.Size
	}

	if err := e.artifacts.Create(ctx, &domain.Artifact{
		ID:        uuid.New(),
		JobID:     job.ID,
		Name:      domain.OutputTarball,
		Path:      outPath,
		Size:      size,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("register tarball: %w", err)
	}

	e.logger.Info("run tarball consolidated",
		"job_id", job.ID,
		"run_id", runID,
		"uploads", len(uploads),
		"tarball", outPath,
		"size", size,
	)

	return &ExecutionResult{Outputs: map[string]any{
		domain.OutputTarball: outPath,
		"uploads":            len(uploads),
	}}, nil
}

// appendUpload дописывает члены одного частичного архива в сводный.
func (e *ConsolidateExecutor) appendUpload(ctx context.Context, tw *tar.Writer, upload string, seen map[string]struct{}) error {
	rc, err := e.store.Open(ctx, upload)
	if err != nil {
		return fmt.Errorf("open upload %s: %w", upload, err)
	}
	defer rc.Close()

	tr := tar.NewReader(rc)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read upload %s: %w", upload, err)
		}

		if _, dup := seen[hdr.Name]; dup {
			e.logger.Debug("duplicate member skipped", "upload", upload, "member", hdr.Name)
			continue
		}
		seen[hdr.Name] = struct{}{}

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write member %s: %w", hdr.Name, err)
		}
		if _, err := io.Copy(tw, tr); err != nil {
			return fmt.Errorf("copy member %s: %w", hdr.Name, err)
		}
	}
}
