package api

import (
	"log/slog"

	"github.com/shaiso/Lanekeeper/internal/mq"
	"github.com/shaiso/Lanekeeper/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	launches  *repo.LaunchRepo
	jobs      *repo.JobRepo
	artifacts *repo.ArtifactRepo
	publisher *mq.Publisher
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Launches  *repo.LaunchRepo
	Jobs      *repo.JobRepo
	Artifacts *repo.ArtifactRepo
	Publisher *mq.Publisher
	Logger    *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		launches:  cfg.Launches,
		jobs:      cfg.Jobs,
		artifacts: cfg.Artifacts,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
	}
}
