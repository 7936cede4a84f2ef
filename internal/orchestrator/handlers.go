package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/mq"
	"github.com/shaiso/Lanekeeper/internal/repo"
	"github.com/shaiso/Lanekeeper/internal/telemetry"
)

// handleLaunchRequested обрабатывает событие о новом launch.
func (o *Orchestrator) handleLaunchRequested(ctx context.Context, delivery *mq.Delivery) error {
	// Парсим payload
	payload, err := mq.ParsePayload[mq.LaunchRequestedPayload](&delivery.Message)
	if err != nil {
		o.logger.Error("failed to parse launch.requested payload", "error", err)
		return err
	}

	o.logger.Debug("received launch.requested event", "launch_id", payload.LaunchID)

	// Обрабатываем launch
	if err := o.processLaunch(ctx, payload.LaunchID); err != nil {
		// Ожидаемые ситуации — не возвращаем ошибку (ack)
		if isExpectedSkip(err) {
			o.logger.Debug("launch not processed", "launch_id", payload.LaunchID, "reason", err)
			return nil
		}
		o.logger.Error("failed to process launch", "launch_id", payload.LaunchID, "error", err)
		return err
	}

	return nil
}

// handleJobCompleted обрабатывает событие о завершённом job.
func (o *Orchestrator) handleJobCompleted(ctx context.Context, delivery *mq.Delivery) error {
	// Парсим payload
	payload, err := mq.ParsePayload[mq.JobCompletedPayload](&delivery.Message)
	if err != nil {
		o.logger.Error("failed to parse job.completed payload", "error", err)
		return err
	}

	o.logger.Debug("received job.completed event",
		"job_id", payload.JobID,
		"launch_id", payload.LaunchID,
		"type", payload.Type,
		"status", payload.Status,
	)

	// Переоцениваем граф launch
	if err := o.evaluate(ctx, payload.LaunchID); err != nil {
		// Параллельная оценка уже идёт (poll): статус job в БД,
		// она или следующий poll его увидит. Ack.
		if isExpectedSkip(err) {
			o.logger.Debug("launch not evaluated", "launch_id", payload.LaunchID, "reason", err)
			return nil
		}
		o.logger.Error("failed to evaluate launch",
			"job_id", payload.JobID,
			"launch_id", payload.LaunchID,
			"error", err,
		)
		return err
	}

	return nil
}

// processLaunch прогоняет pipeline запуска для PENDING launch.
func (o *Orchestrator) processLaunch(ctx context.Context, launchID uuid.UUID) error {
	// 1. Guard от одновременной обработки
	if err := o.addActive(launchID); err != nil {
		return err
	}
	defer o.removeActive(launchID)

	// 2. Загружаем launch из БД
	launch, err := o.launches.GetByID(ctx, launchID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrLaunchNotFound, launchID)
		}
		return fmt.Errorf("get launch: %w", err)
	}

	// 3. Проверяем статус
	if launch.Status != domain.LaunchStatusPending {
		return ErrLaunchNotPending
	}

	// 4. Переводим в LAUNCHING
	launch.MarkLaunching()
	if err := o.launches.Update(ctx, launch); err != nil {
		return fmt.Errorf("update launch to launching: %w", err)
	}

	// 5. Pipeline: дескриптор, sizing, submissions
	plan, err := o.launcher.Launch(ctx, launch.ID, launch.Request)
	if err != nil {
		// Уже отправленные jobs не отзываются, но без агрегатора
		// launch им не нужен: провал фиксируется здесь.
		return o.failLaunch(ctx, launch, fmt.Sprintf("launch pipeline: %v", err))
	}

	// 6. Сохраняем результаты плана
	launch.RunID = plan.RunID
	launch.TarballRef = plan.RunTarballRef
	launch.MarkLaunched()
	if err := o.launches.Update(ctx, launch); err != nil {
		return fmt.Errorf("update launch to launched: %w", err)
	}

	o.logger.Info("launch started",
		"launch_id", launch.ID,
		"run_id", launch.RunID,
		"tarball", launch.TarballRef.String(),
		"lane_jobs", len(plan.LaneJobs),
	)

	// 7. Открываем gates у jobs без зависимостей
	// (pass-through без workflow завершает launch сразу: граф пуст)
	return o.advance(ctx, launch)
}

// evaluate перестраивает граф jobs launch и продвигает его.
//
// Вызывается на каждом событии jobs.completed и из polling fallback.
func (o *Orchestrator) evaluate(ctx context.Context, launchID uuid.UUID) error {
	if err := o.addActive(launchID); err != nil {
		return err
	}
	defer o.removeActive(launchID)

	launch, err := o.launches.GetByID(ctx, launchID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrLaunchNotFound, launchID)
		}
		return fmt.Errorf("get launch: %w", err)
	}

	// Запоздавшее событие для уже закрытого launch
	if launch.IsFinished() {
		o.logger.Debug("launch already finished", "launch_id", launchID, "status", launch.Status)
		return nil
	}

	return o.advance(ctx, launch)
}

// failLaunch переводит launch в статус FAILED.
func (o *Orchestrator) failLaunch(ctx context.Context, launch *domain.Launch, errMsg string) error {
	launch.MarkFailed(errMsg)

	if err := o.launches.Update(ctx, launch); err != nil {
		return fmt.Errorf("update launch to failed: %w", err)
	}

	telemetry.LaunchesFinished.WithLabelValues(string(launch.Status)).Inc()
	o.logger.Warn("launch failed early",
		"launch_id", launch.ID,
		"error", errMsg,
	)

	return fmt.Errorf("launch failed: %s", errMsg)
}

// restoreState закрывает launches, оборванные рестартом.
//
// LAUNCHING в БД на момент старта означает, что pipeline был прерван
// посреди submissions. Повторный прогон продублировал бы jobs, поэтому
// такой launch закрывается с ошибкой; PENDING и LAUNCHED подхватит
// обычный poll.
func (o *Orchestrator) restoreState(ctx context.Context) error {
	launches, err := o.launches.ListUnfinished(ctx)
	if err != nil {
		return fmt.Errorf("list unfinished launches: %w", err)
	}

	interrupted := 0
	for _, launch := range launches {
		if launch.Status != domain.LaunchStatusLaunching {
			continue
		}

		launch.MarkFailed("launch interrupted: orchestrator restarted during submission")
		if err := o.launches.Update(ctx, launch); err != nil {
			o.logger.Error("failed to close interrupted launch",
				"launch_id", launch.ID,
				"error", err,
			)
			continue
		}

		telemetry.LaunchesFinished.WithLabelValues(string(launch.Status)).Inc()
		interrupted++
		o.logger.Warn("interrupted launch closed",
			"launch_id", launch.ID,
			"run_id", launch.RunID,
		)
	}

	if interrupted > 0 || len(launches) > 0 {
		o.logger.Info("state restored",
			"unfinished", len(launches),
			"interrupted", interrupted,
		)
	}

	return nil
}
