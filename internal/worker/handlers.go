package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/mq"
	"github.com/shaiso/Lanekeeper/internal/repo"
	"github.com/shaiso/Lanekeeper/internal/telemetry"
)

// Параметры retry. Политика фиксированная: exponential backoff
// от секунды до retryMaxDelay.
const (
	retryInitialDelay = time.Second
	retryMaxDelay     = 30 * time.Second
)

// handleJobReady обрабатывает событие о новом job из очереди jobs.ready.
func (w *Worker) handleJobReady(ctx context.Context, delivery *mq.Delivery) error {
	// Парсим payload
	payload, err := mq.ParsePayload[mq.JobReadyPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse job.ready payload", "error", err)
		return err
	}

	w.logger.Debug("received job.ready event",
		"job_id", payload.JobID,
		"launch_id", payload.LaunchID,
	)

	// Обрабатываем job
	if err := w.processJob(ctx, payload.JobID); err != nil {
		// Ожидаемые ситуации — не возвращаем ошибку (ack)
		if errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrJobNotQueued) {
			w.logger.Debug("job not processed", "job_id", payload.JobID, "reason", err)
			return nil
		}
		w.logger.Error("failed to process job", "job_id", payload.JobID, "error", err)
		return err
	}

	return nil
}

// processJob загружает job из БД, выполняет и обрабатывает результат.
func (w *Worker) processJob(ctx context.Context, jobID uuid.UUID) error {
	// 1. Загружаем job из БД
	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return fmt.Errorf("get job: %w", err)
	}

	// 2. Быстрая проверка статуса
	if job.Status != domain.JobStatusQueued {
		return ErrJobNotQueued
	}

	// 3. Атомарный claim: QUEUED → RUNNING. Проигравший гонку воркер
	// молча пропускает job.
	if err := w.jobs.Claim(ctx, job.ID); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			return ErrJobNotQueued
		}
		return fmt.Errorf("claim job: %w", err)
	}
	job.MarkRunning()

	w.logger.Info("job started",
		"job_id", job.ID,
		"launch_id", job.LaunchID,
		"type", job.Type,
		"attempt", job.Attempt,
	)

	// 4. Выполняем с retry
	result, execErr := w.executeWithRetry(ctx, job)

	// 5. Обрабатываем результат
	if execErr == nil && (result == nil || result.Error == "") {
		// Успех
		var outputs map[string]any
		if result != nil {
			outputs = result.Outputs
		}
		job.MarkSucceeded(outputs)
		if err := w.jobs.Update(ctx, job); err != nil {
			return fmt.Errorf("update job to succeeded: %w", err)
		}

		telemetry.JobsExecuted.WithLabelValues(job.Type, string(job.Status)).Inc()
		w.logger.Info("job succeeded",
			"job_id", job.ID,
			"launch_id", job.LaunchID,
			"type", job.Type,
			"attempt", job.Attempt,
		)

		return w.publishCompletion(ctx, job, "")
	}

	// Ошибка
	errMsg := ""
	if execErr != nil {
		errMsg = execErr.Error()
	} else {
		errMsg = result.Error
	}

	job.MarkFailed(errMsg)
	if err := w.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("update job to failed: %w", err)
	}

	telemetry.JobsExecuted.WithLabelValues(job.Type, string(job.Status)).Inc()
	w.logger.Warn("job failed",
		"job_id", job.ID,
		"launch_id", job.LaunchID,
		"type", job.Type,
		"attempt", job.Attempt,
		"error", errMsg,
	)

	return w.publishCompletion(ctx, job, errMsg)
}

// publishCompletion публикует событие job.completed.
func (w *Worker) publishCompletion(ctx context.Context, job *domain.Job, errMsg string) error {
	if w.publisher == nil {
		w.logger.Warn("publisher not available, skipping job.completed publish",
			"job_id", job.ID,
		)
		return nil
	}

	payload := mq.JobCompletedPayload{
		JobID:    job.ID,
		LaunchID: job.LaunchID,
		Type:     job.Type,
		Status:   string(job.Status),
		Error:    errMsg,
		Attempt:  job.Attempt,
	}

	if err := w.publisher.PublishJobCompleted(ctx, payload); err != nil {
		w.logger.Warn("failed to publish job.completed",
			"job_id", job.ID,
			"error", err,
		)
		// Не возвращаем ошибку — job обновлён в БД, оркестратор подхватит через polling
	}

	return nil
}

// executeWithRetry выполняет job с retry.
//
// Неизвестный тип job не ретраится: без executor'а повтор бессмыслен.
func (w *Worker) executeWithRetry(ctx context.Context, job *domain.Job) (*ExecutionResult, error) {
	executor, err := w.registry.Get(job.Type)
	if err != nil {
		return nil, err
	}

	var lastResult *ExecutionResult
	var lastErr error

	for {
		// Выполняем
		lastResult, lastErr = executor.Execute(ctx, job)

		// Успех — ни инфраструктурной, ни логической ошибки
		if lastErr == nil && (lastResult == nil || lastResult.Error == "") {
			return lastResult, nil
		}

		// Логическая ошибка (команда отработала и вернула отказ)
		// не ретраится: с теми же входами она повторится.
		// Retry — только для инфраструктурных сбоев.
		if lastErr == nil {
			break
		}

		// Попытки исчерпаны
		if job.Attempt >= w.maxAttempts {
			break
		}

		// Считаем backoff
		delay := calculateBackoff(job.Attempt)

		w.logger.Debug("retrying job",
			"job_id", job.ID,
			"attempt", job.Attempt,
			"delay", delay,
		)

		// Ждём с учётом context
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		// Новая попытка
		job.MarkRunning()
		if err := w.jobs.Update(ctx, job); err != nil {
			return nil, fmt.Errorf("update job for retry: %w", err)
		}
	}

	return lastResult, lastErr
}

// calculateBackoff вычисляет задержку перед retry:
// delay = retryInitialDelay * 2^(attempt-1), capped at retryMaxDelay.
func calculateBackoff(attempt int) time.Duration {
	delay := retryInitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > retryMaxDelay {
			return retryMaxDelay
		}
	}
	return delay
}
