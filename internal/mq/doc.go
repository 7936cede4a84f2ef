// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - launch.requested — новый launch ожидает оркестрации
//   - job.ready        — job готов к выполнению воркером
//   - job.completed    — job завершён
//
// Exchanges:
//   - lanekeeper.launches — события launches
//   - lanekeeper.jobs     — события jobs
//   - lanekeeper.dlq      — dead letter queue
package mq
