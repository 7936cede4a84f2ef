package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

func TestEncodeRef_Concrete(t *testing.T) {
	ref := domain.ArtifactRef{Path: "/runs/R1/upload.tar"}

	encoded := EncodeRef(ref)

	path, ok := encoded.(string)
	if !ok {
		t.Fatalf("expected string, got %T", encoded)
	}
	if path != "/runs/R1/upload.tar" {
		t.Errorf("expected path, got %q", path)
	}
}

func TestEncodeRef_Forward(t *testing.T) {
	jobID := uuid.New()
	ref := domain.ArtifactRef{JobID: jobID, Output: "tarball"}

	encoded := EncodeRef(ref)

	wrapper, ok := encoded.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", encoded)
	}
	fields, ok := wrapper["$artifact"].(map[string]any)
	if !ok {
		t.Fatalf("expected $artifact object, got %v", wrapper)
	}
	if fields["job"] != jobID.String() {
		t.Errorf("expected job %s, got %v", jobID, fields["job"])
	}
	if fields["output"] != "tarball" {
		t.Errorf("expected output tarball, got %v", fields["output"])
	}
}

// Ссылка должна переживать сериализацию в jsonb и обратно.
func TestDecodeRef_RoundTrip(t *testing.T) {
	jobID := uuid.New()
	original := domain.ArtifactRef{JobID: jobID, Output: "tarball"}

	data, err := json.Marshal(EncodeRef(original))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored any
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	ref, isRef, err := DecodeRef(restored)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !isRef {
		t.Fatal("expected ref to be recognized")
	}
	if ref.JobID != jobID {
		t.Errorf("expected job %s, got %s", jobID, ref.JobID)
	}
	if ref.Output != "tarball" {
		t.Errorf("expected output tarball, got %q", ref.Output)
	}
}

func TestDecodeRef_NotARef(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"string", "/runs/R1/upload.tar"},
		{"number", float64(3)},
		{"nil", nil},
		{"plain map", map[string]any{"path": "/x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, isRef, err := DecodeRef(tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if isRef {
				t.Errorf("value %v should not be a ref", tt.value)
			}
		})
	}
}

func TestDecodeRef_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"not an object", map[string]any{"$artifact": "x"}},
		{"missing job", map[string]any{"$artifact": map[string]any{"output": "tarball"}}},
		{"bad job id", map[string]any{"$artifact": map[string]any{"job": "not-a-uuid", "output": "tarball"}}},
		{"missing output", map[string]any{"$artifact": map[string]any{"job": uuid.New().String()}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, isRef, err := DecodeRef(tt.value)
			if !isRef {
				t.Fatal("expected value to be recognized as a ref")
			}
			if !errors.Is(err, ErrMalformedRef) {
				t.Errorf("expected ErrMalformedRef, got %v", err)
			}
		})
	}
}

func TestEncodeParams_ImplicitDeps(t *testing.T) {
	producer := uuid.New()
	params := map[string]any{
		"tarball": domain.ArtifactRef{JobID: producer, Output: "tarball"},
		"lane":    3,
		"folder":  "/out",
		"extra":   domain.ArtifactRef{Path: "/runs/R1/barcodes.json"},
	}

	encoded, implicit, err := encodeParams(params)
	if err != nil {
		t.Fatalf("encode params: %v", err)
	}

	if len(implicit) != 1 || implicit[0] != producer {
		t.Errorf("expected implicit deps [%s], got %v", producer, implicit)
	}
	if encoded["lane"] != 3 {
		t.Errorf("scalar param changed: %v", encoded["lane"])
	}
	// Конкретная ссылка кодируется путём, без зависимости.
	if encoded["extra"] != "/runs/R1/barcodes.json" {
		t.Errorf("expected concrete ref as path, got %v", encoded["extra"])
	}
	if _, ok := encoded["tarball"].(map[string]any); !ok {
		t.Errorf("expected forward ref as wrapper, got %T", encoded["tarball"])
	}
}

func TestEncodeParams_AlreadyEncoded(t *testing.T) {
	producer := uuid.New()
	params := map[string]any{
		"tarball": map[string]any{
			"$artifact": map[string]any{"job": producer.String(), "output": "tarball"},
		},
	}

	_, implicit, err := encodeParams(params)
	if err != nil {
		t.Fatalf("encode params: %v", err)
	}
	if len(implicit) != 1 || implicit[0] != producer {
		t.Errorf("expected implicit deps [%s], got %v", producer, implicit)
	}
}

func TestResolveParams(t *testing.T) {
	producer := uuid.New()
	params := map[string]any{
		"tarball": map[string]any{
			"$artifact": map[string]any{"job": producer.String(), "output": "tarball"},
		},
		"lane": float64(2),
	}

	resolved, err := ResolveParams(params, func(jobID uuid.UUID, output string) (string, error) {
		if jobID != producer || output != "tarball" {
			return "", fmt.Errorf("unexpected lookup %s %s", jobID, output)
		}
		return "/runs/R1/run.tar", nil
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if resolved["tarball"] != "/runs/R1/run.tar" {
		t.Errorf("expected resolved path, got %v", resolved["tarball"])
	}
	if resolved["lane"] != float64(2) {
		t.Errorf("non-ref param changed: %v", resolved["lane"])
	}
}

func TestResolveParams_LookupError(t *testing.T) {
	params := map[string]any{
		"tarball": map[string]any{
			"$artifact": map[string]any{"job": uuid.New().String(), "output": "tarball"},
		},
	}

	wantErr := errors.New("artifact not registered")
	_, err := ResolveParams(params, func(uuid.UUID, string) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected lookup error, got %v", err)
	}
}

func TestMergeDeps(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	merged := mergeDeps([]uuid.UUID{a, b}, []uuid.UUID{b, c, a})

	if len(merged) != 3 {
		t.Fatalf("expected 3 deps, got %d: %v", len(merged), merged)
	}
	if merged[0] != a || merged[1] != b || merged[2] != c {
		t.Errorf("unexpected order: %v", merged)
	}
}

func TestSubmit_Validation(t *testing.T) {
	p := New(Config{})

	_, err := p.Submit(context.Background(), Submission{LaunchID: uuid.New()})
	if !errors.Is(err, ErrMissingType) {
		t.Errorf("expected ErrMissingType, got %v", err)
	}

	_, err = p.Submit(context.Background(), Submission{Type: "demux"})
	if !errors.Is(err, ErrMissingLaunch) {
		t.Errorf("expected ErrMissingLaunch, got %v", err)
	}
}

func TestResolveOutput(t *testing.T) {
	p := New(Config{})
	handle := domain.JobHandle{ID: uuid.New()}

	ref := p.ResolveOutput(handle, "tarball")

	if !ref.IsForward() {
		t.Fatal("expected forward reference")
	}
	if ref.JobID != handle.ID || ref.Output != "tarball" {
		t.Errorf("unexpected ref: %+v", ref)
	}
}
