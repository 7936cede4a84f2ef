package launch

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/platform"
	"github.com/shaiso/Lanekeeper/internal/runinfo"
	"github.com/shaiso/Lanekeeper/internal/sizing"
	"github.com/shaiso/Lanekeeper/internal/store"
)

// Platform — то, что pipeline требует от платформы исполнения.
type Platform interface {
	Submit(ctx context.Context, sub platform.Submission) (domain.JobHandle, error)
	ResolveOutput(handle domain.JobHandle, output string) domain.ArtifactRef
}

type Config struct {
	Platform Platform
	Store    store.Store
	Logger   *slog.Logger
}

// Launcher — pipeline запуска обработки run.
type Launcher struct {
	platform Platform
	store    store.Store
	logger   *slog.Logger
}

func New(cfg Config) *Launcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		platform: cfg.Platform,
		store:    cfg.Store,
		logger:   logger,
	}
}

// Launch выполняет pipeline целиком и возвращает план запуска.
//
// Ошибка любой стадии прерывает pipeline до отправки следующего job.
// Уже отправленные jobs не отзываются: их жизненный цикл принадлежит
// платформе.
func (l *Launcher) Launch(ctx context.Context, launchID uuid.UUID, req domain.LaunchRequest) (*domain.LaunchPlan, error) {
	// 1. Валидация запроса и умолчания.
	if err := normalizeRequest(&req); err != nil {
		return nil, err
	}

	// 2. Парсинг run-дескриптора. Каждое поле обязательно: отсутствие
	// не заменяется умолчанием, потому что sizing ниже зависит от
	// реальных значений.
	desc, err := l.parseDescriptor(ctx, req.RunInfo)
	if err != nil {
		return nil, err
	}
	logger := l.logger.With("launch_id", launchID, "run_id", desc.RunID)

	// 3. Выбор compute profiles по суммарному числу tiles.
	profile := sizing.SizeFor(desc)
	logger.Info("compute profile selected",
		"total_tiles", desc.TotalTileCount(),
		"consolidation_profile", profile.ConsolidationProfile,
		"lane_profile", profile.LaneJobProfile,
		"quality", profile.QualityThreshold,
	)

	// 4. Манифест загрузки.
	manifest, err := l.loadManifest(ctx, req)
	if err != nil {
		return nil, err
	}

	// 5. Credential читается один раз; дальше существует только
	// внутри submissions, в логах — плейсхолдер.
	var credential domain.Secret
	if req.CredentialRef != "" {
		credential, err = ReadCredential(req.CredentialRef)
		if err != nil {
			return nil, err
		}
		logger.Info("credential loaded", "credential", credential)
	}

	plan := &domain.LaunchPlan{
		RunID:        desc.RunID,
		OutputFolder: path.Join(req.Folder, desc.RunID),
	}

	// 6. Сводный tarball: pass-through либо consolidation job.
	plan.RunTarballRef, err = l.consolidate(ctx, launchID, req, desc, profile, manifest, credential, logger)
	if err != nil {
		return nil, err
	}

	// 7. Без workflow дальше идти некуда: результат launch —
	// только сводный tarball.
	if !req.HasWorkflow() {
		logger.Info("no workflow requested, lane fan-out skipped")
		return plan, nil
	}

	// 8. По одному demux job на lane.
	plan.LaneJobs, err = l.launchLanes(ctx, launchID, req, desc, profile, plan.RunTarballRef, credential, logger)
	if err != nil {
		return nil, err
	}

	// 9. Агрегатор: единственный job, который ждёт терминальности
	// всех lane jobs и собирает итоговый листинг.
	aggregator, err := l.submitAggregator(ctx, launchID, req, desc, profile, plan.LaneJobs, credential)
	if err != nil {
		return nil, err
	}
	plan.Aggregator = &aggregator

	logger.Info("launch plan submitted",
		"tarball", plan.RunTarballRef.String(),
		"lane_jobs", len(plan.LaneJobs),
		"aggregator", aggregator.ID,
	)
	return plan, nil
}

func (l *Launcher) parseDescriptor(ctx context.Context, runInfo string) (domain.RunDescriptor, error) {
	rc, err := l.store.Open(ctx, runInfo)
	if err != nil {
		return domain.RunDescriptor{}, fmt.Errorf("open run descriptor %s: %w", runInfo, err)
	}
	defer rc.Close()

	desc, err := runinfo.Parse(rc)
	if err != nil {
		return domain.RunDescriptor{}, fmt.Errorf("parse run descriptor %s: %w", runInfo, err)
	}
	return desc, nil
}

// consolidate решает, откуда берётся сводный tarball run.
//
// Единственная загрузка проходит насквозь без единого submission.
// Для нескольких загрузок отправляется ровно один consolidation job,
// и ссылка на его объявленный output становится runTarballRef:
// pipeline не ждёт материализации, а lane jobs, объявленные против
// этой ссылки, платформа сама упорядочит после consolidation.
func (l *Launcher) consolidate(
	ctx context.Context,
	launchID uuid.UUID,
	req domain.LaunchRequest,
	desc domain.RunDescriptor,
	profile domain.ComputeProfile,
	manifest domain.UploadManifest,
	credential domain.Secret,
	logger *slog.Logger,
) (domain.ArtifactRef, error) {
	if manifest.Single() {
		logger.Info("single upload, consolidation skipped", "tarball", manifest[0].Path)
		return manifest[0], nil
	}

	handle, err := l.platform.Submit(ctx, platform.Submission{
		LaunchID: launchID,
		Type:     req.Consolidator,
		Params: map[string]any{
			domain.ParamRunID:    desc.RunID,
			domain.ParamManifest: manifest.Paths(),
			domain.ParamFolder:   req.Folder,
		},
		Profile:    profile.ConsolidationProfile,
		Credential: credential,
	})
	if err != nil {
		return domain.ArtifactRef{}, &SubmissionError{Stage: StageConsolidation, Err: err}
	}

	logger.Info("consolidation job submitted", "job_id", handle.ID, "uploads", len(manifest))
	return l.platform.ResolveOutput(handle, domain.OutputTarball), nil
}

// launchLanes отправляет по одному demux job на lane, 1..LaneCount.
//
// Отправка последовательная, но jobs независимы: порядок их
// выполнения — забота платформы. Отказ отправки обрывает fan-out
// на текущем lane; план либо получает ровно LaneCount handles,
// либо ни одного.
func (l *Launcher) launchLanes(
	ctx context.Context,
	launchID uuid.UUID,
	req domain.LaunchRequest,
	desc domain.RunDescriptor,
	profile domain.ComputeProfile,
	tarball domain.ArtifactRef,
	credential domain.Secret,
	logger *slog.Logger,
) ([]domain.JobHandle, error) {
	handles := make([]domain.JobHandle, 0, desc.LaneCount)
	for lane := uint(1); lane <= desc.LaneCount; lane++ {
		params := map[string]any{
			domain.ParamRunID:      desc.RunID,
			domain.ParamTarball:    tarball,
			domain.ParamLane:       lane,
			domain.ParamFolder:     laneFolder(req.Folder, desc.RunID, lane),
			domain.ParamQuality:    profile.QualityThreshold.Score(),
			domain.ParamMaxReads:   profile.MaxReadsPerTile,
			domain.ParamMaxRecords: profile.MaxRecordsInMemory,
		}
		// Ключ center полностью отсутствует, когда метка не задана:
		// пустая строка не передаётся.
		if req.Center != "" {
			params[domain.ParamCenter] = req.Center
		}

		handle, err := l.platform.Submit(ctx, platform.Submission{
			LaunchID:   launchID,
			Type:       req.Workflow,
			Params:     params,
			Profile:    profile.LaneJobProfile,
			Credential: credential,
		})
		if err != nil {
			return nil, &SubmissionError{Stage: StageLane, Lane: lane, Err: err}
		}
		handles = append(handles, handle)
	}

	logger.Info("lane jobs submitted", "lanes", len(handles))
	return handles, nil
}

// submitAggregator отправляет единственный collect job.
//
// Его dependency set — все lane jobs без исключения, gate —
// TERMINAL: агрегатор стартует после того, как каждый lane job
// дошёл до терминального статуса, успех не обязателен. Набор
// произведённых артефактов неизвестен до фактического выполнения
// lanes, поэтому итоговый листинг собирает один job, а не каждый
// lane job сам по себе: единый листинг не даёт частичных и
// дублирующихся отчётов при ретраях.
func (l *Launcher) submitAggregator(
	ctx context.Context,
	launchID uuid.UUID,
	req domain.LaunchRequest,
	desc domain.RunDescriptor,
	profile domain.ComputeProfile,
	laneJobs []domain.JobHandle,
	credential domain.Secret,
) (domain.JobHandle, error) {
	deps := make([]uuid.UUID, 0, len(laneJobs))
	for _, h := range laneJobs {
		deps = append(deps, h.ID)
	}

	handle, err := l.platform.Submit(ctx, platform.Submission{
		LaunchID: launchID,
		Type:     domain.JobTypeCollect,
		Params: map[string]any{
			domain.ParamRunID:      desc.RunID,
			domain.ParamListPrefix: path.Join(req.Folder, desc.RunID, "reads"),
		},
		Profile:    profile.ConsolidationProfile,
		DependsOn:  deps,
		Gate:       domain.GateTerminal,
		Credential: credential,
	})
	if err != nil {
		return domain.JobHandle{}, &SubmissionError{Stage: StageAggregation, Err: err}
	}
	return handle, nil
}

// laneFolder возвращает выходную папку lane: {folder}/{runId}/reads/L{lane}.
func laneFolder(folder, runID string, lane uint) string {
	return path.Join(folder, runID, "reads", fmt.Sprintf("L%d", lane))
}
