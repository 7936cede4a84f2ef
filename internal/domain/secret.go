package domain

import "log/slog"

// RedactedPlaceholder — строка, попадающая в логи вместо значения секрета.
const RedactedPlaceholder = "[REDACTED]"

// Secret — непрозрачный секрет (credential для авторизации submissions).
//
// Значение читается из референса не более одного раза и живёт только
// в памяти процесса: Secret не сериализуется ни в БД, ни в сообщения.
// String и LogValue возвращают плейсхолдер, поэтому Secret безопасно
// передавать в slog и fmt без риска утечки.
type Secret struct {
	value string
}

// NewSecret оборачивает значение секрета.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Present возвращает true, если секрет задан.
func (s Secret) Present() bool {
	return s.value != ""
}

// Reveal возвращает само значение секрета.
//
// Единственный легальный потребитель — авторизация submission на
// платформе. Результат нельзя логировать и нельзя класть в параметры job.
func (s Secret) Reveal() string {
	return s.value
}

// String реализует fmt.Stringer: значение никогда не возвращается.
func (s Secret) String() string {
	if !s.Present() {
		return ""
	}
	return RedactedPlaceholder
}

// LogValue реализует slog.LogValuer: в лог уходит только плейсхолдер.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}
