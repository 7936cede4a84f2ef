package worker

import "errors"

// Ошибки воркера.
var (
	// ErrJobNotFound — job не найден в БД.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotQueued — job не в статусе QUEUED (ещё не готов
	// либо уже взят другим воркером).
	ErrJobNotQueued = errors.New("job is not in QUEUED status")

	// ErrUnknownJobType — нет executor'а для данного типа job.
	ErrUnknownJobType = errors.New("unknown job type")

	// ErrMissingParam — в параметрах job нет обязательного ключа.
	ErrMissingParam = errors.New("missing job parameter")

	// ErrCommandRender — шаблон команды не отрендерился.
	ErrCommandRender = errors.New("command template render failed")

	// ErrEmptyManifest — consolidation получил пустой список загрузок.
	ErrEmptyManifest = errors.New("consolidation manifest is empty")
)
