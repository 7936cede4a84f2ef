package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/mq"
	"github.com/shaiso/Lanekeeper/internal/repo"
	"github.com/shaiso/Lanekeeper/internal/store"
	"github.com/shaiso/Lanekeeper/internal/telemetry"
)

// Имена объектов, которыми секвенатор завершает загрузку run.
// Папка без полного набора считается ещё загружающейся.
const (
	descriptorName = "RunInfo.xml"
	manifestName   = "manifest.json"
	markerName     = "CopyComplete.txt"
)

// defaultInbox — корень inbox-зоны хранилища.
const defaultInbox = "/incoming"

// Watcher — сканер inbox-зоны хранилища.
//
// Секвенаторы выгружают run в {inbox}/{run}/: частичные tar-архивы,
// манифест, дескриптор и в конце — маркер завершения. Watcher находит
// папки с полным набором и создаёт для каждой launch.
type Watcher struct {
	store     store.Store
	launches  *repo.LaunchRepo
	publisher *mq.Publisher
	logger    *slog.Logger
	inbox     string
	request   domain.LaunchRequest
}

// Config — конфигурация Watcher.
type Config struct {
	Store     store.Store
	Launches  *repo.LaunchRepo
	Publisher *mq.Publisher
	Logger    *slog.Logger
	Inbox     string               // корень inbox-зоны (default: /incoming)
	Request   domain.LaunchRequest // шаблон запроса: workflow, folder, center
}

// New создаёт новый Watcher.
func New(cfg Config) *Watcher {
	inbox := cfg.Inbox
	if inbox == "" {
		inbox = defaultInbox
	}

	return &Watcher{
		store:     cfg.Store,
		launches:  cfg.Launches,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		inbox:     inbox,
		request:   cfg.Request,
	}
}

// Tick выполняет один скан inbox-зоны.
//
// 1. Листинг объектов под inbox-префиксом
// 2. Отбор run-папок с полным набором загрузки
// 3. Для каждой готовой папки — идемпотентное создание launch
// 4. Публикация launch.requested в RabbitMQ
//
// Ошибки одной папки не блокируют обработку остальных.
func (w *Watcher) Tick(ctx context.Context) error {
	// 1. Листинг inbox
	entries, err := w.store.List(ctx, w.inbox)
	if err != nil {
		return fmt.Errorf("list inbox %s: %w", w.inbox, err)
	}

	// 2. Готовые папки
	ready := readyRuns(w.inbox, entries)
	if len(ready) == 0 {
		return nil
	}

	w.logger.Debug("found completed uploads", "count", len(ready))

	// 3. Обрабатываем каждую папку
	var processed, created int
	for _, folder := range ready {
		launchCreated, err := w.processRun(ctx, folder)
		if err != nil {
			w.logger.Error("failed to process run folder",
				"folder", folder,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}

		processed++
		if launchCreated {
			created++
		}
	}

	if created > 0 {
		w.logger.Info("watch tick completed",
			"ready", len(ready),
			"processed", processed,
			"launches_created", created,
		)
	}

	return nil
}

// processRun обрабатывает одну готовую run-папку.
// Возвращает true, если launch был создан (не был дубликатом).
func (w *Watcher) processRun(ctx context.Context, folder string) (bool, error) {
	// 1. Ключ идемпотентности — имя run-папки. Повторные сканы
	// (и перезапуски watcher) не создают второй launch для той же
	// загрузки.
	idempKey := path.Base(folder)

	// 2. Проверяем, не создан ли уже launch
	existing, err := w.launches.GetByIdempotencyKey(ctx, idempKey)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return false, fmt.Errorf("check idempotency: %w", err)
	}
	if existing != nil {
		w.logger.Debug("launch already exists (idempotency)",
			"folder", folder,
			"launch_id", existing.ID,
		)
		return false, nil
	}

	// 3. Создаём launch из шаблона запроса
	req := w.request
	req.Manifest = path.Join(folder, manifestName)
	req.Parts = nil
	req.RunInfo = ""

	launch := &domain.Launch{
		ID:             uuid.New(),
		Status:         domain.LaunchStatusPending,
		Request:        req,
		IdempotencyKey: idempKey,
		CreatedAt:      time.Now(),
	}

	if err := w.launches.Create(ctx, launch); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			// Гонка со вторым watcher (смена лидера между Get и Create)
			w.logger.Debug("launch already exists (create conflict)",
				"folder", folder,
			)
			return false, nil
		}
		return false, fmt.Errorf("create launch: %w", err)
	}

	telemetry.LaunchesCreated.Inc()
	w.logger.Info("created launch from upload",
		"launch_id", launch.ID,
		"folder", folder,
		"manifest", req.Manifest,
	)

	// 4. Публикуем событие (если publisher настроен)
	if w.publisher != nil {
		if err := w.publisher.PublishLaunchRequested(ctx, launch.ID); err != nil {
			// Не фатальная ошибка — launch уже создан в БД,
			// orchestrator заберёт его через polling
			w.logger.Warn("failed to publish launch.requested",
				"launch_id", launch.ID,
				"error", err,
			)
		}
	}

	return true, nil
}

// readyRuns возвращает run-папки первого уровня под inbox, содержащие
// полный набор загрузки: дескриптор, манифест и маркер завершения.
// Порядок папок лексикографический (порядок листинга хранилища).
func readyRuns(inbox string, entries []store.Entry) []string {
	type uploadSet struct {
		descriptor bool
		manifest   bool
		marker     bool
	}

	folders := make(map[string]*uploadSet)
	var order []string

	for _, e := range entries {
		rel := strings.TrimPrefix(e.Path, inbox)
		rel = strings.TrimPrefix(rel, "/")

		// Готовность определяют только объекты в корне run-папки;
		// вложенные пути (части архива и т.п.) пропускаем.
		parts := strings.Split(rel, "/")
		if len(parts) != 2 {
			continue
		}

		folder, name := parts[0], parts[1]
		set, ok := folders[folder]
		if !ok {
			set = &uploadSet{}
			folders[folder] = set
			order = append(order, folder)
		}

		switch name {
		case descriptorName:
			set.descriptor = true
		case manifestName:
			set.manifest = true
		case markerName:
			set.marker = true
		}
	}

	var ready []string
	for _, folder := range order {
		set := folders[folder]
		if set.descriptor && set.manifest && set.marker {
			ready = append(ready, path.Join(inbox, folder))
		}
	}

	return ready
}
