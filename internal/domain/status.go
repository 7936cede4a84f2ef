package domain

// LaunchStatus — статус оркестрации запуска.
//
// Жизненный цикл:
//
//	PENDING → LAUNCHING → LAUNCHED → COMPLETED
//	                   ↘ FAILED (на любом этапе pipeline)
type LaunchStatus string

const (
	// LaunchStatusPending — launch создан, но pipeline ещё не начался.
	LaunchStatusPending LaunchStatus = "PENDING"

	// LaunchStatusLaunching — orchestrator выполняет pipeline
	// (парсинг дескриптора, sizing, отправка jobs).
	LaunchStatusLaunching LaunchStatus = "LAUNCHING"

	// LaunchStatusLaunched — все submissions выполнены,
	// jobs выполняются на платформе.
	LaunchStatusLaunched LaunchStatus = "LAUNCHED"

	// LaunchStatusCompleted — все jobs достигли терминального статуса,
	// итоговая коллекция артефактов собрана.
	LaunchStatusCompleted LaunchStatus = "COMPLETED"

	// LaunchStatusFailed — launch завершился с ошибкой
	// (malformed descriptor, submission failure или упавший job).
	LaunchStatusFailed LaunchStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (launch завершён).
func (s LaunchStatus) IsTerminal() bool {
	switch s {
	case LaunchStatusCompleted, LaunchStatusFailed:
		return true
	default:
		return false
	}
}

// JobStatus — статус job на платформе.
//
// Жизненный цикл:
//
//	PENDING → QUEUED → RUNNING → SUCCEEDED
//	                           ↘ FAILED (может быть retry → обратно в RUNNING)
//
// PENDING означает, что зависимости job ещё не удовлетворены.
// Orchestrator переводит job в QUEUED, когда gate открывается.
type JobStatus string

const (
	// JobStatusPending — job создан, ожидает зависимостей.
	JobStatusPending JobStatus = "PENDING"

	// JobStatusQueued — зависимости удовлетворены, job в очереди.
	JobStatusQueued JobStatus = "QUEUED"

	// JobStatusRunning — job выполняется воркером.
	JobStatusRunning JobStatus = "RUNNING"

	// JobStatusSucceeded — job успешно завершён.
	JobStatusSucceeded JobStatus = "SUCCEEDED"

	// JobStatusFailed — job завершился с ошибкой (после всех retry
	// воркера, либо каскадно из-за упавшей зависимости).
	JobStatusFailed JobStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
// Терминальность — единственное, что видит gate типа TERMINAL:
// после SUCCEEDED или FAILED переходов больше не будет.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed:
		return true
	default:
		return false
	}
}

// Gate — режим открытия зависимостей job.
type Gate string

const (
	// GateSuccess — job стартует только если ВСЕ зависимости SUCCEEDED.
	// Падение любой зависимости каскадно проваливает job.
	// Режим по умолчанию: потребитель артефакта не может работать
	// без результата производителя.
	GateSuccess Gate = "SUCCESS"

	// GateTerminal — job стартует когда все зависимости достигли
	// терминального статуса, независимо от успеха. Используется
	// агрегатором: итоговый листинг собирается даже если часть
	// lane jobs упала.
	GateTerminal Gate = "TERMINAL"
)

// ParseGate парсит строку в Gate. Неизвестное значение — GateSuccess.
func ParseGate(s string) Gate {
	switch s {
	case "TERMINAL":
		return GateTerminal
	default:
		return GateSuccess
	}
}
