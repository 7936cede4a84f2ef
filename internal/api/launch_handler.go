package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/repo"
	"github.com/shaiso/Lanekeeper/internal/telemetry"
)

// defaultListLimit — лимит списочных выборок по умолчанию.
const defaultListLimit = 50

// ListLaunches возвращает список launches с фильтрацией.
// GET /api/v1/launches?run_id=...&status=...&limit=...&offset=...
func (h *Handler) ListLaunches(w http.ResponseWriter, r *http.Request) {
	filter := repo.LaunchFilter{
		RunID:  r.URL.Query().Get("run_id"),
		Status: domain.LaunchStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit", defaultListLimit),
		Offset: queryInt(r, "offset", 0),
	}

	launches, err := h.launches.List(r.Context(), filter)
	if HandleRepoError(w, r, err, "") {
		return
	}

	result := make([]LaunchResponse, len(launches))
	for i, launch := range launches {
		result[i] = LaunchFromDomain(*launch)
	}

	List(w, result, len(result))
}

// CreateLaunch создаёт новый launch и публикует launch.requested.
// POST /api/v1/launches
func (h *Handler) CreateLaunch(w http.ResponseWriter, r *http.Request) {
	var req CreateLaunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	// Минимальная валидация источника загрузки; остальные правила
	// применяет pipeline при обработке launch
	if req.Manifest == "" && len(req.Parts) == 0 {
		BadRequest(w, "either manifest or parts is required")
		return
	}
	if req.Manifest != "" && len(req.Parts) > 0 {
		BadRequest(w, "manifest and parts are mutually exclusive")
		return
	}

	// Проверяем idempotency key
	if req.IdempotencyKey != "" {
		existing, err := h.launches.GetByIdempotencyKey(r.Context(), req.IdempotencyKey)
		if err == nil && existing != nil {
			// Возвращаем существующий launch
			Success(w, LaunchFromDomain(*existing))
			return
		}
	}

	launch := &domain.Launch{
		ID:             uuid.New(),
		Status:         domain.LaunchStatusPending,
		Request:        req.toDomain(),
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
	}

	if err := h.launches.Create(r.Context(), launch); HandleRepoError(w, r, err, "") {
		return
	}

	telemetry.LaunchesCreated.Inc()

	// Публикуем событие в очередь
	if h.publisher != nil {
		if err := h.publisher.PublishLaunchRequested(r.Context(), launch.ID); err != nil {
			h.logger.Warn("failed to publish launch.requested", "launch_id", launch.ID, "error", err)
		}
	}

	Created(w, LaunchFromDomain(*launch))
}

// GetLaunch возвращает launch по ID.
// GET /api/v1/launches/{id}
func (h *Handler) GetLaunch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid launch id")
		return
	}

	launch, err := h.launches.GetByID(r.Context(), id)
	if HandleRepoError(w, r, err, "launch not found") {
		return
	}

	Success(w, LaunchFromDomain(*launch))
}

// ListLaunchJobs возвращает jobs, отправленные launch'ем.
// GET /api/v1/launches/{id}/jobs
func (h *Handler) ListLaunchJobs(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid launch id")
		return
	}

	// Проверяем, что launch существует
	if _, err := h.launches.GetByID(r.Context(), id); HandleRepoError(w, r, err, "launch not found") {
		return
	}

	jobs, err := h.jobs.ListByLaunchID(r.Context(), id)
	if HandleRepoError(w, r, err, "") {
		return
	}

	result := make([]JobResponse, len(jobs))
	for i, job := range jobs {
		result[i] = JobFromDomain(*job)
	}

	List(w, result, len(result))
}

// queryInt парсит числовой query-параметр с дефолтным значением.
func queryInt(r *http.Request, name string, defaultVal int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
