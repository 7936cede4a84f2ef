package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/mq"
	"github.com/shaiso/Lanekeeper/internal/repo"
)

// Default configuration values.
const (
	defaultPollInterval = 10 * time.Second
)

// Pipeline — то, чем оркестратор отправляет план запуска.
// Реализация — launch.Launcher.
type Pipeline interface {
	Launch(ctx context.Context, launchID uuid.UUID, req domain.LaunchRequest) (*domain.LaunchPlan, error)
}

// Orchestrator управляет жизненным циклом launches.
//
// Orchestrator — центральный компонент системы, который:
//   - Получает новые launches из очереди RabbitMQ (event-driven)
//   - Периодически проверяет незавершённые launches в БД (polling fallback)
//   - Прогоняет pipeline запуска (парсинг дескриптора, sizing, submissions)
//   - Следит за графом зависимостей jobs и открывает gates
//   - Каскадно проваливает jobs с упавшими SUCCESS-зависимостями
//   - Финализирует launches (COMPLETED/FAILED)
//
// Состояние графа не кэшируется в памяти: jobs в БД — единственный
// источник истины, граф перестраивается на каждом событии. Поэтому
// рестарт оркестратора теряет только launches, оборванные посреди
// pipeline (их закрывает restoreState).
type Orchestrator struct {
	// Repositories
	launches  *repo.LaunchRepo
	jobs      *repo.JobRepo
	artifacts *repo.ArtifactRepo

	// Pipeline запуска
	launcher Pipeline

	// MQ
	publisher *mq.Publisher
	conn      *mq.Connection

	// Active launches — единственная летучая часть состояния:
	// guard от одновременной обработки launch консьюмером и poll'ом.
	active map[uuid.UUID]struct{}
	mu     sync.RWMutex

	// Consumers
	launchConsumer *mq.Consumer
	jobConsumer    *mq.Consumer

	// Configuration
	pollInterval time.Duration

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Repositories
	Launches  *repo.LaunchRepo
	Jobs      *repo.JobRepo
	Artifacts *repo.ArtifactRepo

	// Launcher — pipeline запуска.
	Launcher Pipeline

	// MQ
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// PollInterval — интервал polling fallback (default: 10s).
	PollInterval time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		launches:     cfg.Launches,
		jobs:         cfg.Jobs,
		artifacts:    cfg.Artifacts,
		launcher:     cfg.Launcher,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		active:       make(map[uuid.UUID]struct{}),
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Start запускает Orchestrator.
//
// Запускает:
//   - Восстановление после рестарта (закрытие оборванных launches)
//   - Consumer для launches.requested
//   - Consumer для jobs.completed
//   - Polling горутину для fallback
func (o *Orchestrator) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	o.cancelFunc = cancel

	o.logger.Info("starting orchestrator",
		"poll_interval", o.pollInterval,
	)

	// Восстановление — до консьюмеров: пока они не запущены,
	// любой LAUNCHING в БД гарантированно оборван рестартом.
	if err := o.restoreState(ctx); err != nil {
		o.logger.Error("failed to restore state", "error", err)
	}

	// Создаём consumers. Без RabbitMQ остаётся polling:
	// launches и завершения jobs подхватываются с задержкой
	// до pollInterval.
	if o.conn != nil {
		o.launchConsumer = mq.NewConsumer(o.conn, o.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueLaunchesRequested),
			Handler:  o.handleLaunchRequested,
			Prefetch: 10,
		})

		o.jobConsumer = mq.NewConsumer(o.conn, o.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueJobsCompleted),
			Handler:  o.handleJobCompleted,
			Prefetch: 10,
		})

		// Запускаем launch consumer
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if err := o.launchConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				o.logger.Error("launch consumer error", "error", err)
			}
		}()

		// Запускаем job consumer
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if err := o.jobConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				o.logger.Error("job consumer error", "error", err)
			}
		}()
	} else {
		o.logger.Warn("no MQ connection, consumers disabled, polling only")
	}

	// Запускаем polling
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.pollLoop(ctx)
	}()

	o.logger.Info("orchestrator started")
	return nil
}

// Stop останавливает Orchestrator.
func (o *Orchestrator) Stop() {
	o.stoppedMu.Lock()
	o.stopped = true
	o.stoppedMu.Unlock()

	o.logger.Info("stopping orchestrator...")

	if o.cancelFunc != nil {
		o.cancelFunc()
	}

	// Останавливаем consumers
	if o.launchConsumer != nil {
		o.launchConsumer.Stop()
	}
	if o.jobConsumer != nil {
		o.jobConsumer.Stop()
	}

	// Ждём завершения горутин
	o.wg.Wait()

	o.logger.Info("orchestrator stopped")
}

// IsStopped проверяет, остановлен ли Orchestrator.
func (o *Orchestrator) IsStopped() bool {
	o.stoppedMu.RLock()
	defer o.stoppedMu.RUnlock()
	return o.stopped
}

// pollLoop — цикл polling для fallback.
func (o *Orchestrator) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем launches,
	// созданные пока оркестратор был выключен)
	o.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
//
// PENDING launches запускаются, LAUNCHED переоцениваются — это
// страховка от потерянных сообщений launches.requested и
// jobs.completed соответственно.
func (o *Orchestrator) poll(ctx context.Context) {
	launches, err := o.launches.ListUnfinished(ctx)
	if err != nil {
		o.logger.Error("failed to list unfinished launches", "error", err)
		return
	}

	if len(launches) == 0 {
		return
	}

	o.logger.Debug("poll found unfinished launches", "count", len(launches))

	for _, launch := range launches {
		if o.isActive(launch.ID) {
			continue
		}

		switch launch.Status {
		case domain.LaunchStatusPending:
			if err := o.processLaunch(ctx, launch.ID); err != nil && !isExpectedSkip(err) {
				o.logger.Error("failed to process launch from poll",
					"launch_id", launch.ID,
					"error", err,
				)
			}

		case domain.LaunchStatusLaunched:
			if err := o.evaluate(ctx, launch.ID); err != nil && !isExpectedSkip(err) {
				o.logger.Error("failed to evaluate launch from poll",
					"launch_id", launch.ID,
					"error", err,
				)
			}
		}
	}
}

// isExpectedSkip — ошибки, означающие «кто-то другой уже занимается».
func isExpectedSkip(err error) bool {
	return errors.Is(err, ErrLaunchAlreadyActive) ||
		errors.Is(err, ErrLaunchNotPending) ||
		errors.Is(err, ErrLaunchNotFound)
}

// isActive проверяет, обрабатывается ли launch прямо сейчас.
func (o *Orchestrator) isActive(launchID uuid.UUID) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, exists := o.active[launchID]
	return exists
}

// addActive добавляет launch в активные.
func (o *Orchestrator) addActive(launchID uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.active[launchID]; exists {
		return ErrLaunchAlreadyActive
	}

	o.active[launchID] = struct{}{}
	return nil
}

// removeActive удаляет launch из активных.
func (o *Orchestrator) removeActive(launchID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, launchID)
}

// ActiveCount возвращает количество launches в обработке.
func (o *Orchestrator) ActiveCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.active)
}
