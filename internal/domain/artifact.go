package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Имена объявленных outputs jobs.
const (
	// OutputTarball — сводный tar-архив run (output consolidation job).
	OutputTarball = "tarball"

	// OutputManifest — итоговый листинг артефактов (output collect job).
	OutputManifest = "manifest"
)

// ArtifactRef — ссылка на артефакт в хранилище.
//
// Ссылка бывает двух видов:
//   - Конкретная: Path указывает на существующий объект.
//   - Forward reference: JobID ≠ uuid.Nil — ссылка на объявленный
//     output job'а, который ещё не материализовался. Платформа
//     разрешает её в конкретный Path после успеха производителя,
//     а потребители такой ссылки автоматически упорядочиваются
//     после производителя.
type ArtifactRef struct {
	// Path — путь объекта в хранилище. Пустой для forward reference.
	Path string `json:"path,omitempty"`

	// JobID — job-производитель (для forward reference).
	JobID uuid.UUID `json:"job_id,omitempty"`

	// Output — имя объявленного output'а производителя.
	Output string `json:"output,omitempty"`
}

// IsForward возвращает true, если ссылка — forward reference
// на ещё не материализованный output.
func (r ArtifactRef) IsForward() bool {
	return r.JobID != uuid.Nil
}

// IsZero возвращает true для пустой ссылки.
func (r ArtifactRef) IsZero() bool {
	return r.Path == "" && r.JobID == uuid.Nil
}

// String возвращает представление ссылки для логов.
func (r ArtifactRef) String() string {
	if r.IsForward() {
		return fmt.Sprintf("job:%s#%s", r.JobID, r.Output)
	}
	return r.Path
}

// UploadManifest — упорядоченный список частичных tar-загрузок
// одного run. Непустой список обязателен; длина 1 означает,
// что consolidation не нужна.
type UploadManifest []ArtifactRef

// Single возвращает true, если в манифесте ровно один артефакт.
func (m UploadManifest) Single() bool {
	return len(m) == 1
}

// Paths возвращает пути всех артефактов манифеста.
func (m UploadManifest) Paths() []string {
	paths := make([]string, 0, len(m))
	for _, ref := range m {
		paths = append(paths, ref.Path)
	}
	return paths
}

// Artifact — материализованный артефакт, зарегистрированный в БД.
//
// Строки создаются воркерами: производитель объявляет output
// по имени, collect job регистрирует весь итоговый листинг.
type Artifact struct {
	// ID — уникальный идентификатор артефакта.
	ID uuid.UUID `json:"id"`

	// JobID — job, который произвёл артефакт.
	JobID uuid.UUID `json:"job_id"`

	// Name — имя output'а ("tarball", "manifest") либо имя файла
	// для артефактов, собранных листингом.
	Name string `json:"name"`

	// Path — путь объекта в хранилище.
	Path string `json:"path"`

	// Size — размер в байтах, если известен.
	Size int64 `json:"size,omitempty"`

	// CreatedAt — время регистрации.
	CreatedAt time.Time `json:"created_at"`
}

// Ref возвращает конкретную ссылку на артефакт.
func (a *Artifact) Ref() ArtifactRef {
	return ArtifactRef{Path: a.Path}
}
