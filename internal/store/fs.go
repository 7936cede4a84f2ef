package store

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FS — хранилище на файловой системе (смонтированный том с загрузками
// секвенатора и результатами demux).
type FS struct {
	root string
}

// NewFS создаёт хранилище с корнем в указанной директории.
// Директория должна существовать.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat store root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store root %s is not a directory", abs)
	}

	return &FS{root: abs}, nil
}

// Root возвращает корневую директорию хранилища.
func (s *FS) Root() string {
	return s.root
}

// resolve переводит путь хранилища в путь файловой системы.
// Сегменты ".." отвергаются до нормализации: путь не должен
// выходить за корень хранилища.
func (s *FS) resolve(p string) (string, error) {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
		}
	}

	cleaned := path.Clean("/" + p)
	if cleaned == "/" {
		return s.root, nil
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

// Open открывает объект на чтение.
func (s *FS) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Create создаёт объект на запись вместе с недостающими папками.
func (s *FS) Create(ctx context.Context, p string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create parent dirs: %w", err)
	}
	return os.Create(full)
}

// List возвращает все объекты под префиксом, рекурсивно.
// Несуществующий префикс — пустой результат, не ошибка:
// листинг папки, в которую ещё ничего не записано, легален.
func (s *FS) List(ctx context.Context, prefix string) ([]Entry, error) {
	full, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	err = filepath.WalkDir(full, func(fpath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(s.root, fpath)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Path: "/" + filepath.ToSlash(rel),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Stat возвращает описание объекта.
func (s *FS) Stat(ctx context.Context, p string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	full, err := s.resolve(p)
	if err != nil {
		return Entry{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return Entry{}, err
	}

	rel, err := filepath.Rel(s.root, full)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Path: "/" + filepath.ToSlash(rel), Size: info.Size()}, nil
}
