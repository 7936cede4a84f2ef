// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog (env LOG_LEVEL, LOG_FORMAT)
//   - metrics.go — счётчики Prometheus (launches, jobs, API requests)
//
// Все демоны инициализируют логгер через SetupLogger и экспортируют
// метрики default registry через promhttp на своём /metrics endpoint.
package telemetry
