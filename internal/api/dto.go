package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Lanekeeper/internal/domain"
)

// Launch DTOs

// CreateLaunchRequest — запрос на создание launch.
// Поля повторяют domain.LaunchRequest плюс ключ идемпотентности.
type CreateLaunchRequest struct {
	Manifest       string   `json:"manifest,omitempty"`
	Parts          []string `json:"parts,omitempty"`
	RunInfo        string   `json:"run_info,omitempty"`
	Workflow       string   `json:"workflow,omitempty"`
	Consolidator   string   `json:"consolidator,omitempty"`
	Folder         string   `json:"folder,omitempty"`
	Center         string   `json:"center,omitempty"`
	CredentialRef  string   `json:"credential_ref,omitempty"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}

// toDomain конвертирует запрос в domain.LaunchRequest.
func (req CreateLaunchRequest) toDomain() domain.LaunchRequest {
	return domain.LaunchRequest{
		Manifest:      req.Manifest,
		Parts:         req.Parts,
		RunInfo:       req.RunInfo,
		Workflow:      req.Workflow,
		Consolidator:  req.Consolidator,
		Folder:        req.Folder,
		Center:        req.Center,
		CredentialRef: req.CredentialRef,
	}
}

// LaunchResponse — ответ с launch.
type LaunchResponse struct {
	ID             uuid.UUID            `json:"id"`
	RunID          string               `json:"run_id,omitempty"`
	Status         string               `json:"status"`
	Request        domain.LaunchRequest `json:"request"`
	TarballRef     domain.ArtifactRef   `json:"tarball_ref"`
	StartedAt      *time.Time           `json:"started_at,omitempty"`
	FinishedAt     *time.Time           `json:"finished_at,omitempty"`
	Error          string               `json:"error,omitempty"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// LaunchFromDomain конвертирует domain.Launch в LaunchResponse.
func LaunchFromDomain(l domain.Launch) LaunchResponse {
	return LaunchResponse{
		ID:             l.ID,
		RunID:          l.RunID,
		Status:         string(l.Status),
		Request:        l.Request,
		TarballRef:     l.TarballRef,
		StartedAt:      l.StartedAt,
		FinishedAt:     l.FinishedAt,
		Error:          l.Error,
		IdempotencyKey: l.IdempotencyKey,
		CreatedAt:      l.CreatedAt,
	}
}

// Job DTOs

// JobResponse — ответ с job.
type JobResponse struct {
	ID         uuid.UUID      `json:"id"`
	LaunchID   uuid.UUID      `json:"launch_id"`
	Type       string         `json:"type"`
	Status     string         `json:"status"`
	Params     map[string]any `json:"params,omitempty"`
	Profile    string         `json:"profile,omitempty"`
	DependsOn  []uuid.UUID    `json:"depends_on,omitempty"`
	Gate       string         `json:"gate"`
	TopLevel   bool           `json:"top_level"`
	Attempt    int            `json:"attempt"`
	Outputs    map[string]any `json:"outputs,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// JobFromDomain конвертирует domain.Job в JobResponse.
func JobFromDomain(j domain.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		LaunchID:   j.LaunchID,
		Type:       j.Type,
		Status:     string(j.Status),
		Params:     j.Params,
		Profile:    j.Profile,
		DependsOn:  j.DependsOn,
		Gate:       string(j.Gate),
		TopLevel:   j.TopLevel,
		Attempt:    j.Attempt,
		Outputs:    j.Outputs,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt,
	}
}

// Artifact DTOs

// ArtifactResponse — ответ с зарегистрированным артефактом.
type ArtifactResponse struct {
	ID        uuid.UUID `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ArtifactFromDomain конвертирует domain.Artifact в ArtifactResponse.
func ArtifactFromDomain(a domain.Artifact) ArtifactResponse {
	return ArtifactResponse{
		ID:        a.ID,
		JobID:     a.JobID,
		Name:      a.Name,
		Path:      a.Path,
		Size:      a.Size,
		CreatedAt: a.CreatedAt,
	}
}
