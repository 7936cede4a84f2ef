package domain

import (
	"time"

	"github.com/google/uuid"
)

// Launch — один вызов оркестрации запуска run.
//
// Launch создаётся когда:
// - Пользователь отправляет запрос через API/CLI
// - Watcher находит завершённую загрузку run в inbox
//
// Каждый launch порождает свой набор jobs на платформе.
type Launch struct {
	// ID — уникальный идентификатор launch.
	ID uuid.UUID `json:"id"`

	// RunID — идентификатор run из дескриптора.
	// Пустой до того, как pipeline распарсил дескриптор.
	RunID string `json:"run_id,omitempty"`

	// Status — текущий статус оркестрации.
	Status LaunchStatus `json:"status"`

	// Request — входные параметры launch (см. LaunchRequest).
	Request LaunchRequest `json:"request"`

	// TarballRef — итоговая ссылка на run tarball:
	// pass-through артефакт либо forward reference на output
	// consolidation job. Заполняется pipeline'ом.
	TarballRef ArtifactRef `json:"tarball_ref,omitempty"`

	// StartedAt — время начала pipeline (когда статус стал LAUNCHING).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (COMPLETED или FAILED).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если launch завершился с FAILED.
	Error string `json:"error,omitempty"`

	// IdempotencyKey — ключ идемпотентности для предотвращения дубликатов.
	// Watcher использует имя run-папки: повторный скан не создаёт
	// второй launch для того же run.
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// CreatedAt — время создания launch.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность оркестрации.
// Возвращает 0, если launch ещё не завершён.
func (l *Launch) Duration() time.Duration {
	if l.StartedAt == nil || l.FinishedAt == nil {
		return 0
	}
	return l.FinishedAt.Sub(*l.StartedAt)
}

// IsFinished возвращает true, если launch завершён (в любом статусе).
func (l *Launch) IsFinished() bool {
	return l.Status.IsTerminal()
}

// MarkLaunching переводит launch в статус LAUNCHING.
func (l *Launch) MarkLaunching() {
	now := time.Now()
	l.Status = LaunchStatusLaunching
	l.StartedAt = &now
}

// MarkLaunched переводит launch в статус LAUNCHED.
func (l *Launch) MarkLaunched() {
	l.Status = LaunchStatusLaunched
}

// MarkCompleted переводит launch в статус COMPLETED.
func (l *Launch) MarkCompleted() {
	now := time.Now()
	l.Status = LaunchStatusCompleted
	l.FinishedAt = &now
}

// MarkFailed переводит launch в статус FAILED с ошибкой.
func (l *Launch) MarkFailed(err string) {
	now := time.Now()
	l.Status = LaunchStatusFailed
	l.FinishedAt = &now
	l.Error = err
}

// LaunchRequest — входные параметры оркестрации.
//
// Это "заказ" для Lanekeeper: где лежит загрузка run,
// какими executables её обрабатывать и куда класть результат.
// Принимается в JSON (API) и YAML (шаблон запроса watcher).
type LaunchRequest struct {
	// Manifest — ссылка на upload manifest в хранилище
	// (JSON-список частичных tar-архивов run).
	// Взаимоисключим с Parts.
	Manifest string `json:"manifest,omitempty" yaml:"manifest"`

	// Parts — inline-список частичных архивов, альтернатива Manifest.
	Parts []string `json:"parts,omitempty" yaml:"parts"`

	// RunInfo — ссылка на run-дескриптор (RunInfo.xml).
	// По умолчанию ищется рядом с манифестом.
	RunInfo string `json:"run_info,omitempty" yaml:"run_info"`

	// Workflow — идентификатор demux workflow для lane jobs.
	// Пустое значение пропускает fan-out и агрегацию целиком:
	// результатом launch остаётся только run tarball.
	Workflow string `json:"workflow,omitempty" yaml:"workflow"`

	// Consolidator — идентификатор consolidation job.
	Consolidator string `json:"consolidator,omitempty" yaml:"consolidator"`

	// Folder — корневая папка результатов. По умолчанию "/".
	Folder string `json:"folder,omitempty" yaml:"folder"`

	// Center — метка sequencing center. Необязательна; если не задана,
	// ключ center полностью отсутствует в параметрах lane jobs
	// (не передаётся пустой строкой).
	Center string `json:"center,omitempty" yaml:"center"`

	// CredentialRef — ссылка на файл с секретом платформы.
	// Секрет читается не более одного раза и никогда не логируется.
	// Его присутствие переключает топологию: jobs отправляются
	// как независимые top-level единицы.
	CredentialRef string `json:"credential_ref,omitempty" yaml:"credential_ref"`
}

// HasWorkflow возвращает true, если запрошен demux workflow
// (иначе launch ограничивается consolidation).
func (r LaunchRequest) HasWorkflow() bool {
	return r.Workflow != ""
}

// LaunchPlan — результат pipeline, живёт только внутри одного
// вызова оркестрации.
//
// План строится инкрементально: RunTarballRef разрешается до отправки
// первого lane job, потому что каждый lane job зависит от него.
// LaneJobs — append-only: пишет только fan-out, читает только
// отправка агрегатора.
type LaunchPlan struct {
	// RunID — идентификатор run из дескриптора.
	RunID string

	// RunTarballRef — ссылка на run tarball (конкретная или forward).
	RunTarballRef ArtifactRef

	// LaneJobs — handles всех отправленных lane jobs, по порядку lanes.
	LaneJobs []JobHandle

	// Aggregator — handle collect job, если агрегация запрошена.
	Aggregator *JobHandle

	// OutputFolder — корневая папка результатов ({folder}/{runId}).
	OutputFolder string
}
