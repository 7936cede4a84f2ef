// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, publisher, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - launch_handler.go   — обработчики для /launches
//   - job_handler.go      — обработчики для /jobs
//   - artifact_handler.go — обработчики для /artifacts
//
// API предоставляет REST endpoints для создания launches и наблюдения
// за их jobs и артефактами.
package api
