package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики Prometheus. Регистрируются в default registry,
// экспортируются через promhttp на /metrics каждого демона.
var (
	// LaunchesCreated — количество созданных launches (API + watcher).
	LaunchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanekeeper_launches_created_total",
		Help: "Total launches created",
	})

	// LaunchesFinished — завершённые launches по терминальному статусу.
	LaunchesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lanekeeper_launches_finished_total",
		Help: "Total launches finished, by terminal status",
	}, []string{"status"})

	// JobsExecuted — выполненные воркерами jobs по типу и статусу.
	JobsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lanekeeper_jobs_executed_total",
		Help: "Total jobs executed by workers, by type and terminal status",
	}, []string{"type", "status"})

	// APIRequests — HTTP-запросы, прошедшие через middleware API.
	APIRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanekeeper_api_http_requests_total",
		Help: "Total HTTP requests handled by the API",
	})
)
