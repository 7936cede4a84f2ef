package watch

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// DefaultCadence — каденс сканирования по умолчанию: каждую минуту.
const DefaultCadence = "* * * * *"

// cronParser — парсер cron-выражений (стандартные 5 полей).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseCadence парсит cron-выражение каденса сканирования.
// Пустое выражение означает каденс по умолчанию.
// Время следующего скана вычисляется в локальной timezone процесса.
func ParseCadence(expr string) (cron.Schedule, error) {
	if expr == "" {
		expr = DefaultCadence
	}

	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cadence %q: %w", expr, err)
	}
	return schedule, nil
}
