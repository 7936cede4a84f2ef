package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/store"
)

// Executor — интерфейс для выполнения конкретного типа job.
//
// Реализации: ConsolidateExecutor, DemuxExecutor, CollectExecutor.
//
// job.Params к моменту выполнения разрешены: forward-ссылки заменены
// конкретными путями хранилища.
type Executor interface {
	Execute(ctx context.Context, job *domain.Job) (*ExecutionResult, error)
}

// ExecutionResult — результат выполнения job.
type ExecutionResult struct {
	// Outputs — выходные данные выполнения.
	Outputs map[string]any

	// Error — сообщение об ошибке (логическая ошибка выполнения:
	// команда вернула ненулевой код). Инфраструктурные ошибки
	// возвращаются через error в Execute().
	Error string
}

// ArtifactRegistry — то, чем executors регистрируют произведённые
// артефакты: consolidation объявляет tarball, collect — итоговый
// листинг. По этим строкам разрешаются forward-ссылки.
type ArtifactRegistry interface {
	Create(ctx context.Context, artifact *domain.Artifact) error
}

// Deps — зависимости executor'ов.
type Deps struct {
	// Store — хранилище артефактов.
	Store store.Store

	// Artifacts — реестр произведённых артефактов.
	Artifacts ArtifactRegistry

	// DataDir — корень хранилища на локальном диске
	// (для jobs, запускающих внешние команды).
	DataDir string

	// DemuxCommand — шаблон команды demux
	// (пустое значение — defaultDemuxCommand).
	DemuxCommand string

	// Logger.
	Logger *slog.Logger
}

// Registry — реестр executor'ов по типу job.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry создаёт реестр с зарегистрированными executor'ами
// по умолчанию: consolidate, demux, collect.
func NewRegistry(deps Deps) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	command := deps.DemuxCommand
	if command == "" {
		command = defaultDemuxCommand
	}

	r := &Registry{executors: make(map[string]Executor)}
	r.Register(domain.JobTypeConsolidate, &ConsolidateExecutor{
		store:     deps.Store,
		artifacts: deps.Artifacts,
		logger:    logger,
	})
	r.Register(domain.JobTypeDemux, &DemuxExecutor{
		dataDir: deps.DataDir,
		command: command,
		logger:  logger,
	})
	r.Register(domain.JobTypeCollect, &CollectExecutor{
		store:     deps.Store,
		artifacts: deps.Artifacts,
		logger:    logger,
	})
	return r
}

// Register добавляет executor для типа job.
func (r *Registry) Register(jobType string, executor Executor) {
	r.executors[jobType] = executor
}

// Get возвращает executor для типа job.
func (r *Registry) Get(jobType string) (Executor, error) {
	executor, ok := r.executors[jobType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
	}
	return executor, nil
}

// paramString извлекает обязательный строковый параметр.
func paramString(params map[string]any, key string) (string, error) {
	val, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s is not a non-empty string", ErrMissingParam, key)
	}
	return s, nil
}

// stringParam извлекает необязательный строковый параметр.
func stringParam(params map[string]any, key, defaultVal string) string {
	if val, ok := params[key]; ok {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}

// paramUint извлекает числовой параметр. Значения приходят либо
// напрямую (uint из launcher), либо после jsonb round-trip (float64).
func paramUint(params map[string]any, key string) (uint, error) {
	val, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	switch v := val.(type) {
	case uint:
		return v, nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("%w: %s is negative", ErrMissingParam, key)
		}
		return uint(v), nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("%w: %s is negative", ErrMissingParam, key)
		}
		return uint(v), nil
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("%w: %s is negative", ErrMissingParam, key)
		}
		return uint(v), nil
	default:
		return 0, fmt.Errorf("%w: %s is not a number (%T)", ErrMissingParam, key, val)
	}
}

// uintParam извлекает необязательный числовой параметр.
func uintParam(params map[string]any, key string, defaultVal uint) uint {
	if v, err := paramUint(params, key); err == nil {
		return v
	}
	return defaultVal
}

// paramStrings извлекает список строк: []string напрямую
// либо []any после jsonb round-trip.
func paramStrings(params map[string]any, key string) ([]string, error) {
	val, ok := params[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	switch v := val.(type) {
	case []string:
		return v, nil
	case []any:
		items := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] is not a string", ErrMissingParam, key, i)
			}
			items = append(items, s)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: %s is not a list (%T)", ErrMissingParam, key, val)
	}
}
