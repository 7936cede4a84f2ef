package launch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest — запрос не прошёл валидацию.
	ErrInvalidRequest = errors.New("invalid launch request")

	// ErrPartialManifest — манифест загрузки не перечисляет ни одного
	// артефакта. Фатально: консолидировать нечего.
	ErrPartialManifest = errors.New("upload manifest lists no artifacts")

	// ErrEmptyCredential — файл-референс секрета пуст.
	ErrEmptyCredential = errors.New("credential file is empty")
)

// Стадии pipeline для ошибок отправки.
const (
	StageConsolidation = "consolidation"
	StageLane          = "lane"
	StageAggregation   = "aggregation"
)

// SubmissionError — платформа отвергла job.
//
// Фатальна для своей стадии: оставшиеся submissions стадии
// не отправляются. Для lane-стадии Lane называет индекс lane,
// на котором отправка оборвалась.
type SubmissionError struct {
	Stage string
	Lane  uint
	Err   error
}

func (e *SubmissionError) Error() string {
	if e.Lane > 0 {
		return fmt.Sprintf("submission failed at stage %s, lane %d: %v", e.Stage, e.Lane, e.Err)
	}
	return fmt.Sprintf("submission failed at stage %s: %v", e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
