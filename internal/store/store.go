package store

import (
	"context"
	"errors"
	"io"
)

// Ошибки хранилища.
var (
	// ErrInvalidPath — путь выходит за корень хранилища или пуст.
	ErrInvalidPath = errors.New("invalid store path")
)

// Entry — объект хранилища: путь и размер.
type Entry struct {
	// Path — путь объекта относительно корня хранилища,
	// всегда со слешем в начале: "/run1/reads/L1/sample.bam".
	Path string `json:"path"`

	// Size — размер в байтах.
	Size int64 `json:"size"`
}

// Store — хранилище артефактов run'ов.
//
// Пути — слеш-разделённые, "/" — корень. Store используется воркерами
// (чтение частей, запись tarball), платформой (листинг) и watcher'ом
// (поиск завершённых загрузок).
type Store interface {
	// Open открывает объект на чтение.
	// Отсутствующий объект — ошибка fs.ErrNotExist.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Create создаёт объект на запись, включая недостающие папки.
	Create(ctx context.Context, path string) (io.WriteCloser, error)

	// List возвращает все объекты под префиксом, рекурсивно,
	// в лексикографическом порядке путей.
	List(ctx context.Context, prefix string) ([]Entry, error)

	// Stat возвращает описание объекта.
	Stat(ctx context.Context, path string) (Entry, error)
}
