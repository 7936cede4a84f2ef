package domain

import (
	"time"

	"github.com/google/uuid"
)

// Параметры jobs, общие для всех типов.
//
// Ключи согласованы между launcher'ом (кладёт) и воркерами (читают):
// переименование здесь ломает уже сохранённые jobs.
const (
	ParamRunID      = "run_id"
	ParamManifest   = "manifest"
	ParamTarball    = "tarball"
	ParamLane       = "lane"
	ParamFolder     = "folder"
	ParamCenter     = "center"
	ParamQuality    = "quality_threshold"
	ParamMaxReads   = "max_reads_per_tile"
	ParamMaxRecords = "max_records_in_memory"
	ParamListPrefix = "prefix"
)

// Типы jobs, известные воркеру из коробки. Consolidator и workflow
// в запросе могут называть другие идентификаторы, если воркер
// зарегистрировал под ними свои executors.
const (
	JobTypeConsolidate = "consolidate"
	JobTypeDemux       = "demux"
	JobTypeCollect     = "collect"
)

// JobHandle — непрозрачная ссылка на отправленный job.
//
// Handle принадлежит оркестратору до тех пор, пока job не разрешится
// (успех) или не будет вытеснен отчётом об ошибке. Терминальный статус
// jobs инспектирует только агрегатор — через платформу, не через handle.
type JobHandle struct {
	// ID — идентификатор job на платформе.
	ID uuid.UUID `json:"id"`
}

// Job — единица работы на платформе.
//
// Job создаётся при submission и выполняется воркером, когда
// orchestrator откроет его gate (зависимости достигли нужного статуса).
type Job struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// LaunchID — ссылка на родительский launch. Заполнен всегда,
	// включая top-level jobs: топология не отменяет gating.
	LaunchID uuid.UUID `json:"launch_id,omitempty"`

	// Type — тип job: идентификатор executor'а воркера
	// ("consolidate", "demux", "collect").
	Type string `json:"type"`

	// Status — текущий статус job.
	Status JobStatus `json:"status"`

	// Params — входные параметры job. Значения-ссылки на forward
	// outputs кодируются объектом {"$artifact": {...}} и разрешаются
	// оркестратором перед постановкой в очередь.
	Params map[string]any `json:"params,omitempty"`

	// Profile — compute profile, с которым job запрошен.
	Profile string `json:"profile,omitempty"`

	// DependsOn — явные зависимости job (ID других jobs).
	DependsOn []uuid.UUID `json:"depends_on,omitempty"`

	// Gate — режим открытия зависимостей (SUCCESS | TERMINAL).
	Gate Gate `json:"gate"`

	// TopLevel — true, если job отправлен как независимая top-level
	// единица (с credential), а не как под-job процесса оркестрации.
	TopLevel bool `json:"top_level,omitempty"`

	// Attempt — номер попытки выполнения (начиная с 1).
	Attempt int `json:"attempt"`

	// Outputs — объявленные результаты выполнения.
	// Заполняется воркером: имя output'а → путь в хранилище.
	Outputs map[string]any `json:"outputs,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки при неудаче.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания job.
	CreatedAt time.Time `json:"created_at"`
}

// Handle возвращает непрозрачную ссылку на job.
func (j *Job) Handle() JobHandle {
	return JobHandle{ID: j.ID}
}

// Duration возвращает продолжительность выполнения.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// IsFinished возвращает true, если job завершён.
func (j *Job) IsFinished() bool {
	return j.Status.IsTerminal()
}

// DependsOnJob возвращает true, если id входит в зависимости job.
func (j *Job) DependsOnJob(id uuid.UUID) bool {
	for _, dep := range j.DependsOn {
		if dep == id {
			return true
		}
	}
	return false
}

// MarkQueued переводит job в статус QUEUED (gate открыт).
func (j *Job) MarkQueued() {
	j.Status = JobStatusQueued
}

// MarkRunning переводит job в статус RUNNING.
func (j *Job) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Attempt++
}

// MarkSucceeded переводит job в статус SUCCEEDED с результатами.
func (j *Job) MarkSucceeded(outputs map[string]any) {
	now := time.Now()
	j.Status = JobStatusSucceeded
	j.FinishedAt = &now
	j.Outputs = outputs
}

// MarkFailed переводит job в статус FAILED с ошибкой.
func (j *Job) MarkFailed(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.FinishedAt = &now
	j.Error = err
}
