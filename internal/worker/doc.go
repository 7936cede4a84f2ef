// Package worker реализует выполнение jobs секвенирования.
//
// # Обзор
//
// Worker — потребитель очереди jobs.ready. Он забирает QUEUED jobs,
// атомарно переводит их в RUNNING и выполняет соответствующий executor:
// consolidate (слияние upload-тарболов), demux (разбор lane через
// внешнюю команду), collect (сбор итоговых артефактов).
//
// Несколько экземпляров worker могут работать параллельно: каждый job
// достаётся ровно одному благодаря атомарному claim в БД.
//
// # Ключевые компоненты
//
//   - Worker — жизненный цикл: подписка на jobs.ready + polling fallback
//   - Registry — реестр executors по типу job
//   - ConsolidateExecutor — слияние тарболов манифеста в один архив
//   - DemuxExecutor — запуск команды демультиплексирования для lane
//   - CollectExecutor — рекурсивный листинг и манифест результатов
//
// # Обработка job
//
//  1. Получение события jobs.ready (или строки из polling)
//  2. Загрузка job из БД, проверка статуса QUEUED
//  3. Атомарный claim: QUEUED → RUNNING (проигравший гонку пропускает)
//  4. Выполнение executor с retry
//  5. Обновление статуса (SUCCEEDED/FAILED) и публикация jobs.completed
//
// # Retry
//
// Инфраструктурные ошибки ретраятся с exponential backoff
// (1s, 2s, 4s... до 30s), максимум MaxAttempts попыток.
// Логические отказы и неизвестный тип job не ретраятся.
//
// # Ошибки
//
// Executor различает два рода ошибок:
//
//   - инфраструктурная (вернулась error) — сбой самого выполнения:
//     недоступное хранилище, невалидные параметры; может пройти
//     при повторе
//   - логическая (ExecutionResult.Error) — выполнение прошло, но
//     команда завершилась неуспешно; outputs при этом сохраняются,
//     повтор с теми же входами бессмыслен
//
// Инфраструктурная ошибка после исчерпания попыток и логический
// отказ с первой же попытки приводят к FAILED.
package worker
