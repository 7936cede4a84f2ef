package runinfo

import (
	"errors"
	"fmt"
)

// ErrMalformedDescriptor — базовая ошибка парсинга run-дескриптора.
// Терминальная: дескриптор с отсутствующим полем не ретраится,
// launch останавливается до sizing.
var ErrMalformedDescriptor = errors.New("malformed run descriptor")

// MalformedRunDescriptorError — ошибка парсинга с именем поля.
//
// Каждое обязательное поле, отсутствующее или пустое в дескрипторе,
// называется явно: подстановка нуля вместо счётчика привела бы
// к неверному выбору инстансов ниже по pipeline.
type MalformedRunDescriptorError struct {
	Field  string // структурный путь поля, например "Run.FlowcellLayout.LaneCount"
	Reason string // что именно не так: "is missing", "is empty", ...
}

// Error реализует интерфейс error.
func (e *MalformedRunDescriptorError) Error() string {
	return fmt.Sprintf("malformed run descriptor: field %s %s", e.Field, e.Reason)
}

// Unwrap возвращает базовую ошибку для errors.Is.
func (e *MalformedRunDescriptorError) Unwrap() error {
	return ErrMalformedDescriptor
}

func newFieldError(field, reason string) *MalformedRunDescriptorError {
	return &MalformedRunDescriptorError{Field: field, Reason: reason}
}
