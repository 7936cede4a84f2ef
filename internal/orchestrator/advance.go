package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/graph"
	"github.com/shaiso/Lanekeeper/internal/platform"
	"github.com/shaiso/Lanekeeper/internal/telemetry"
)

// advance продвигает граф jobs launch на один шаг:
//
//  1. Каскадно проваливает PENDING jobs с упавшими SUCCESS-зависимостями
//  2. Переводит PENDING jobs с открытыми gates в QUEUED
//  3. Финализирует launch, когда все jobs терминальны
//
// Пустой граф (pass-through без workflow) финализируется сразу.
func (o *Orchestrator) advance(ctx context.Context, launch *domain.Launch) error {
	jobs, err := o.jobs.ListByLaunchID(ctx, launch.ID)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	g, err := graph.Build(jobs)
	if err != nil {
		// Сломанный граф не лечится повторной оценкой
		return o.failLaunch(ctx, launch, fmt.Sprintf("%v: %v", ErrInvalidJobGraph, err))
	}

	// 1. Каскад: упавшая SUCCESS-зависимость хоронит всех потомков.
	// Агрегатор с TERMINAL gate каскад не трогает.
	for _, job := range markDoomed(g) {
		if err := o.jobs.Update(ctx, job); err != nil {
			return fmt.Errorf("update doomed job %s: %w", job.ID, err)
		}
		o.logger.Warn("job failed by dependency",
			"job_id", job.ID,
			"launch_id", launch.ID,
			"type", job.Type,
			"error", job.Error,
		)
	}

	// 2. Открытые gates: PENDING → QUEUED
	for _, node := range g.Ready() {
		if err := o.queueJob(ctx, node.Job); err != nil {
			o.logger.Error("failed to queue job",
				"job_id", node.Job.ID,
				"launch_id", launch.ID,
				"error", err,
			)
			// Продолжаем с остальными; этот подхватит следующий poll
		}
	}

	// 3. Финализация
	if g.IsComplete() {
		return o.completeLaunch(ctx, launch, g)
	}

	return nil
}

// queueJob переводит job в QUEUED и публикует jobs.ready.
//
// Перед постановкой в очередь forward-ссылки в параметрах заменяются
// конкретными путями: на этот момент все зависимости job терминальны,
// а объявленные outputs зарегистрированы производителями.
func (o *Orchestrator) queueJob(ctx context.Context, job *domain.Job) error {
	resolved, err := platform.ResolveParams(job.Params, o.artifactLookup(ctx))
	if err != nil {
		// Производитель завершился, но не зарегистрировал output.
		// Job не может стартовать; каскад добьёт зависимых при
		// следующей оценке.
		job.MarkFailed(fmt.Sprintf("resolve params: %v", err))
		if uerr := o.jobs.Update(ctx, job); uerr != nil {
			return fmt.Errorf("update job after resolve failure: %w", uerr)
		}
		return fmt.Errorf("resolve params: %w", err)
	}
	job.Params = resolved

	job.MarkQueued()
	if err := o.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("update job to queued: %w", err)
	}

	if err := o.publisher.PublishJobReady(ctx, job.ID, job.LaunchID); err != nil {
		o.logger.Warn("failed to publish job.ready",
			"job_id", job.ID,
			"error", err,
		)
		// Job уже в QUEUED — воркер заберёт через polling
	}

	o.logger.Debug("job queued",
		"job_id", job.ID,
		"launch_id", job.LaunchID,
		"type", job.Type,
	)

	return nil
}

// artifactLookup возвращает функцию разрешения forward-ссылок
// по зарегистрированным артефактам.
func (o *Orchestrator) artifactLookup(ctx context.Context) func(uuid.UUID, string) (string, error) {
	return func(jobID uuid.UUID, output string) (string, error) {
		artifact, err := o.artifacts.GetByJobAndName(ctx, jobID, output)
		if err != nil {
			return "", fmt.Errorf("output %q of job %s: %w", output, jobID, err)
		}
		return artifact.Path, nil
	}
}

// completeLaunch финализирует launch, все jobs которого терминальны.
func (o *Orchestrator) completeLaunch(ctx context.Context, launch *domain.Launch, g *graph.Graph) error {
	if g.Failed() {
		failed := failedJobs(g)
		launch.MarkFailed(fmt.Sprintf("jobs failed: %v", failed))
		o.logger.Warn("launch failed",
			"launch_id", launch.ID,
			"run_id", launch.RunID,
			"failed_jobs", failed,
			"duration", launch.Duration(),
		)
	} else {
		launch.MarkCompleted()
		o.logger.Info("launch completed",
			"launch_id", launch.ID,
			"run_id", launch.RunID,
			"jobs", g.Size(),
			"duration", launch.Duration(),
		)
	}

	if err := o.launches.Update(ctx, launch); err != nil {
		return fmt.Errorf("update launch status: %w", err)
	}

	telemetry.LaunchesFinished.WithLabelValues(string(launch.Status)).Inc()
	return nil
}

// markDoomed каскадно проваливает PENDING jobs, чьи SUCCESS-зависимости
// упали. Возвращает затронутые jobs в порядке каскада; их статусы
// обновлены в памяти, сохранение — на вызывающем.
func markDoomed(g *graph.Graph) []*domain.Job {
	var failed []*domain.Job
	for {
		doomed := g.Doomed()
		if len(doomed) == 0 {
			return failed
		}
		for _, node := range doomed {
			dep := failedDependency(node)
			if dep != nil {
				node.Job.MarkFailed(fmt.Sprintf("dependency failed: %s %s", dep.Type, dep.ID))
			} else {
				node.Job.MarkFailed("dependency failed")
			}
			failed = append(failed, node.Job)
		}
	}
}

// failedDependency возвращает первую упавшую зависимость узла.
func failedDependency(node *graph.Node) *domain.Job {
	for _, dep := range node.DependsOn {
		if dep.Job.Status == domain.JobStatusFailed {
			return dep.Job
		}
	}
	return nil
}

// failedJobs возвращает описания упавших jobs графа
// в топологическом порядке.
func failedJobs(g *graph.Graph) []string {
	failed := make([]string, 0)
	for _, node := range g.Order {
		if node.Job.Status == domain.JobStatusFailed {
			failed = append(failed, fmt.Sprintf("%s %s", node.Job.Type, node.Job.ID))
		}
	}
	return failed
}
