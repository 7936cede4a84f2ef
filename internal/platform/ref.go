package platform

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

// refKey — ключ-маркер forward-ссылки в параметрах job.
// Значение параметра вида {"$artifact": {"job": "<uuid>", "output": "<name>"}}
// разрешается оркестратором в конкретный путь перед постановкой
// job в очередь.
const refKey = "$artifact"

// EncodeRef кодирует ссылку для сохранения в параметрах job.
// Конкретная ссылка кодируется строкой-путём, forward-ссылка —
// объектом с маркером $artifact.
func EncodeRef(ref domain.ArtifactRef) any {
	if !ref.IsForward() {
		return ref.Path
	}
	return map[string]any{
		refKey: map[string]any{
			"job":    ref.JobID.String(),
			"output": ref.Output,
		},
	}
}

// DecodeRef распознаёт закодированную forward-ссылку.
// Возвращает false, если значение — не ссылка. Значение-ссылка
// с битым содержимым — это ошибка данных, поэтому (true, err).
func DecodeRef(v any) (domain.ArtifactRef, bool, error) {
	wrapper, ok := v.(map[string]any)
	if !ok {
		return domain.ArtifactRef{}, false, nil
	}
	raw, ok := wrapper[refKey]
	if !ok {
		return domain.ArtifactRef{}, false, nil
	}

	fields, ok := raw.(map[string]any)
	if !ok {
		return domain.ArtifactRef{}, true, fmt.Errorf("%w: $artifact is not an object", ErrMalformedRef)
	}
	jobRaw, ok := fields["job"].(string)
	if !ok {
		return domain.ArtifactRef{}, true, fmt.Errorf("%w: missing job id", ErrMalformedRef)
	}
	jobID, err := uuid.Parse(jobRaw)
	if err != nil {
		return domain.ArtifactRef{}, true, fmt.Errorf("%w: job id %q: %v", ErrMalformedRef, jobRaw, err)
	}
	output, ok := fields["output"].(string)
	if !ok || output == "" {
		return domain.ArtifactRef{}, true, fmt.Errorf("%w: missing output name", ErrMalformedRef)
	}
	return domain.ArtifactRef{JobID: jobID, Output: output}, true, nil
}

// encodeParams кодирует параметры submission для персистентности
// и собирает неявные зависимости: каждый forward-ref в параметрах
// добавляет job-производителя в зависимости потребителя.
//
// Ключи обходятся в отсортированном порядке, чтобы список
// зависимостей был детерминирован.
func encodeParams(params map[string]any) (map[string]any, []uuid.UUID, error) {
	if len(params) == 0 {
		return nil, nil, nil
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	encoded := make(map[string]any, len(params))
	var implicit []uuid.UUID
	for _, k := range keys {
		v := params[k]

		if ref, ok := v.(domain.ArtifactRef); ok {
			encoded[k] = EncodeRef(ref)
			if ref.IsForward() {
				implicit = append(implicit, ref.JobID)
			}
			continue
		}

		// Уже закодированная ссылка (например, после восстановления
		// job из БД) тоже даёт неявную зависимость.
		ref, isRef, err := DecodeRef(v)
		if err != nil {
			return nil, nil, fmt.Errorf("param %q: %w", k, err)
		}
		if isRef {
			implicit = append(implicit, ref.JobID)
		}
		encoded[k] = v
	}
	return encoded, implicit, nil
}

// ResolveParams заменяет forward-ссылки в параметрах конкретными
// путями. lookup обязан вернуть путь объявленного output'а;
// вызывается только когда производители уже в SUCCEEDED.
func ResolveParams(params map[string]any, lookup func(jobID uuid.UUID, output string) (string, error)) (map[string]any, error) {
	if len(params) == 0 {
		return params, nil
	}

	resolved := make(map[string]any, len(params))
	for k, v := range params {
		ref, isRef, err := DecodeRef(v)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", k, err)
		}
		if !isRef {
			resolved[k] = v
			continue
		}

		path, err := lookup(ref.JobID, ref.Output)
		if err != nil {
			return nil, fmt.Errorf("resolve param %q (job %s output %q): %w", k, ref.JobID, ref.Output, err)
		}
		resolved[k] = path
	}
	return resolved, nil
}

// mergeDeps объединяет явные и неявные зависимости без дублей,
// сохраняя порядок: сначала явные, затем неявные.
func mergeDeps(explicit, implicit []uuid.UUID) []uuid.UUID {
	if len(explicit) == 0 && len(implicit) == 0 {
		return nil
	}

	seen := make(map[uuid.UUID]struct{}, len(explicit)+len(implicit))
	merged := make([]uuid.UUID, 0, len(explicit)+len(implicit))
	for _, id := range explicit {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	for _, id := range implicit {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	return merged
}
