package launch

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

// normalizeRequest валидирует запрос и подставляет умолчания.
func normalizeRequest(req *domain.LaunchRequest) error {
	if req.Manifest == "" && len(req.Parts) == 0 {
		return fmt.Errorf("%w: either manifest or parts is required", ErrInvalidRequest)
	}
	if req.Manifest != "" && len(req.Parts) > 0 {
		return fmt.Errorf("%w: manifest and parts are mutually exclusive", ErrInvalidRequest)
	}
	for i, part := range req.Parts {
		if part == "" {
			return fmt.Errorf("%w: parts[%d] is empty", ErrInvalidRequest, i)
		}
	}

	if req.Folder == "" {
		req.Folder = "/"
	}
	if req.Consolidator == "" {
		req.Consolidator = domain.JobTypeConsolidate
	}
	// Дескриптор по умолчанию лежит рядом с загрузкой run.
	if req.RunInfo == "" {
		base := req.Manifest
		if base == "" {
			base = req.Parts[0]
		}
		req.RunInfo = path.Join(path.Dir(base), "RunInfo.xml")
	}
	return nil
}

// loadManifest собирает UploadManifest: либо из inline-списка Parts,
// либо из JSON-файла манифеста в хранилище.
func (l *Launcher) loadManifest(ctx context.Context, req domain.LaunchRequest) (domain.UploadManifest, error) {
	paths := req.Parts
	if req.Manifest != "" {
		rc, err := l.store.Open(ctx, req.Manifest)
		if err != nil {
			return nil, fmt.Errorf("open manifest %s: %w", req.Manifest, err)
		}
		defer rc.Close()

		if err := json.NewDecoder(rc).Decode(&paths); err != nil {
			return nil, fmt.Errorf("parse manifest %s: %w", req.Manifest, err)
		}
	}

	if len(paths) == 0 {
		return nil, ErrPartialManifest
	}

	manifest := make(domain.UploadManifest, 0, len(paths))
	for _, p := range paths {
		manifest = append(manifest, domain.ArtifactRef{Path: p})
	}
	return manifest, nil
}
