package api

import (
	"net/http"
	"strings"
)

// ListArtifacts возвращает зарегистрированные артефакты под префиксом.
// GET /api/v1/artifacts?prefix=/results/R42
//
// Листинг идёт по реестру артефактов, а не по файловой системе:
// API-демону не нужен смонтированный DATA_DIR.
func (h *Handler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = "/"
	}
	if !strings.HasPrefix(prefix, "/") {
		BadRequest(w, "prefix must start with /")
		return
	}

	artifacts, err := h.artifacts.ListByPrefix(r.Context(), prefix)
	if HandleRepoError(w, r, err, "") {
		return
	}

	result := make([]ArtifactResponse, len(artifacts))
	for i, artifact := range artifacts {
		result[i] = ArtifactFromDomain(*artifact)
	}

	List(w, result, len(result))
}
