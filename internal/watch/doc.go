// Package watch реализует автоматический запуск оркестрации
// по завершённым загрузкам run.
//
// Watcher периодически сканирует inbox-зону хранилища и создаёт
// launch для каждой run-папки, набравшей полный комплект загрузки:
// дескриптор RunInfo.xml, манифест manifest.json и маркер
// CopyComplete.txt. Ключ идемпотентности (имя папки) гарантирует
// не более одного launch на загрузку.
//
// Структура:
//   - watch.go — основная логика Watcher (Tick, processRun, readyRuns)
//   - cron.go  — парсинг cron-выражения каденса сканирования
//
// Использование:
//
//	w := watch.New(watch.Config{
//	    Store:     st,
//	    Launches:  launchRepo,
//	    Publisher: publisher, // опционально
//	    Logger:    logger,
//	    Request:   domain.LaunchRequest{Workflow: "demux-2.4"},
//	})
//
//	// Вызывается по cron-каденсу (WATCH_CRON)
//	if err := w.Tick(ctx); err != nil {
//	    logger.Error("watch tick failed", "error", err)
//	}
//
// Leader Election:
//
// Watcher не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock.
// Метод Tick() вызывается только лидером.
package watch
