package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrLaunchNotFound — launch не найден в БД.
	ErrLaunchNotFound = errors.New("launch not found")

	// ErrLaunchNotPending — launch не в статусе PENDING.
	ErrLaunchNotPending = errors.New("launch is not in PENDING status")

	// ErrLaunchAlreadyActive — launch уже обрабатывается.
	ErrLaunchAlreadyActive = errors.New("launch already being processed")

	// ErrInvalidJobGraph — сохранённые jobs не образуют корректный граф.
	ErrInvalidJobGraph = errors.New("invalid job graph")
)
