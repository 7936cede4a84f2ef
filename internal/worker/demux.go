package worker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

// defaultDemuxCommand — шаблон команды demux по умолчанию.
// Переопределяется через DEMUX_CMD.
const defaultDemuxCommand = `demux-lane --tarball {{quote .Tarball}} --lane {{.Lane}} --outdir {{quote .OutDir}}` +
	` --quality-threshold {{.Quality}} --max-reads-per-tile {{.MaxReads}} --max-records-in-memory {{.MaxRecords}}` +
	`{{if .Center}} --center {{quote .Center}}{{end}}`

// DemuxExecutor — executor для job типа "demux".
//
// Демультиплексирует одну lane: рендерит шаблон команды и запускает
// её через shell. Команда читает сводный tarball и пишет reads
// в выходную папку lane.
//
// Params:
//   - run_id (string): идентификатор run (обязательно)
//   - tarball (string): путь сводного архива в хранилище (обязательно)
//   - lane (number): индекс lane, 1-based (обязательно)
//   - folder (string): выходная папка lane в хранилище (обязательно)
//   - quality_threshold (number): порог качества. Default: 25
//   - max_reads_per_tile (number): лимит reads на tile. Default: 0
//   - max_records_in_memory (number): лимит записей в памяти. Default: 0
//   - center (string): метка sequencing center; может отсутствовать
//
// Outputs:
//   - folder (string): выходная папка lane в хранилище
//   - lane (number): индекс lane
type DemuxExecutor struct {
	dataDir string
	command string
	logger  *slog.Logger
}

// Execute запускает demux-команду для одной lane.
func (e *DemuxExecutor) Execute(ctx context.Context, job *domain.Job) (*ExecutionResult, error) {
	runID, err := paramString(job.Params, domain.ParamRunID)
	if err != nil {
		return nil, err
	}
	tarball, err := paramString(job.Params, domain.ParamTarball)
	if err != nil {
		return nil, err
	}
	lane, err := paramUint(job.Params, domain.ParamLane)
	if err != nil {
		return nil, err
	}
	folder, err := paramString(job.Params, domain.ParamFolder)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(e.dataDir, filepath.FromSlash(folder))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create out dir: %w", err)
	}

	cmdline, err := renderCommand(e.command, commandContext{
		RunID:      runID,
		Tarball:    filepath.Join(e.dataDir, filepath.FromSlash(tarball)),
		Lane:       lane,
		OutDir:     outDir,
		Quality:    int(uintParam(job.Params, domain.ParamQuality, 25)),
		MaxReads:   uintParam(job.Params, domain.ParamMaxReads, 0),
		MaxRecords: uintParam(job.Params, domain.ParamMaxRecords, 0),
		Center:     stringParam(job.Params, domain.ParamCenter, ""),
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("running demux command",
		"job_id", job.ID,
		"run_id", runID,
		"lane", lane,
		"command", cmdline,
	)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", cmdline)
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		// Ненулевой код выхода — логическая ошибка job, не воркера.
		return &ExecutionResult{
			Outputs: map[string]any{
				domain.ParamFolder: folder,
				domain.ParamLane:   lane,
			},
			Error: fmt.Sprintf("demux command: %v: %s", err, truncate(output.String(), 500)),
		}, nil
	}

	e.logger.Debug("demux command finished",
		"job_id", job.ID,
		"lane", lane,
		"output", truncate(output.String(), 500),
	)

	return &ExecutionResult{Outputs: map[string]any{
		domain.ParamFolder: folder,
		domain.ParamLane:   lane,
	}}, nil
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
