package graph

import "errors"

// Ошибки построения графа зависимостей.
var (
	// ErrDuplicateJob — несколько jobs с одинаковым ID.
	ErrDuplicateJob = errors.New("duplicate job in graph")

	// ErrUnknownDependency — job зависит от job вне графа.
	ErrUnknownDependency = errors.New("job depends on unknown job")

	// ErrSelfDependency — job зависит от самого себя.
	ErrSelfDependency = errors.New("job depends on itself")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("cyclic dependency detected")
)
