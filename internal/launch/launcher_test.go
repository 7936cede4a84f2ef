package launch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/platform"
	"github.com/shaiso/Lanekeeper/internal/runinfo"
	"github.com/shaiso/Lanekeeper/internal/store"
)

// fakePlatform записывает submissions, не исполняя их.
type fakePlatform struct {
	submissions []platform.Submission
	handles     []domain.JobHandle
	failOn      func(sub platform.Submission) error
}

func (f *fakePlatform) Submit(_ context.Context, sub platform.Submission) (domain.JobHandle, error) {
	if f.failOn != nil {
		if err := f.failOn(sub); err != nil {
			return domain.JobHandle{}, err
		}
	}
	handle := domain.JobHandle{ID: uuid.New()}
	f.submissions = append(f.submissions, sub)
	f.handles = append(f.handles, handle)
	return handle, nil
}

func (f *fakePlatform) ResolveOutput(handle domain.JobHandle, output string) domain.ArtifactRef {
	return domain.ArtifactRef{JobID: handle.ID, Output: output}
}

func (f *fakePlatform) byType(jobType string) []platform.Submission {
	var subs []platform.Submission
	for _, sub := range f.submissions {
		if sub.Type == jobType {
			subs = append(subs, sub)
		}
	}
	return subs
}

func newTestStore(t *testing.T) *store.FS {
	t.Helper()
	fs, err := store.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return fs
}

func writeObject(t *testing.T, fs *store.FS, path, content string) {
	t.Helper()
	w, err := fs.Create(context.Background(), path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func runInfoXML(runID string, lanes, surfaces, swaths, tiles uint) string {
	return fmt.Sprintf(
		`<RunInfo Version="2"><Run Id=%q Number="7"><FlowcellLayout LaneCount="%d" SurfaceCount="%d" SwathCount="%d" TileCount="%d"/></Run></RunInfo>`,
		runID, lanes, surfaces, swaths, tiles)
}

// newTestLauncher собирает launcher с fake-платформой и дескриптором
// run R42 на две lanes, загруженным двумя частями.
func newTestLauncher(t *testing.T, fp *fakePlatform) (*Launcher, *store.FS) {
	t.Helper()
	fs := newTestStore(t)
	writeObject(t, fs, "/uploads/R42/RunInfo.xml", runInfoXML("R42", 2, 2, 2, 14))
	writeObject(t, fs, "/uploads/R42/part1.tar", "tar-1")
	writeObject(t, fs, "/uploads/R42/part2.tar", "tar-2")

	launcher := New(Config{
		Platform: fp,
		Store:    fs,
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
	return launcher, fs
}

func TestLaunch_SingleUploadPassThrough(t *testing.T) {
	fp := &fakePlatform{}
	launcher, _ := newTestLauncher(t, fp)

	plan, err := launcher.Launch(context.Background(), uuid.New(), domain.LaunchRequest{
		Parts:   []string{"/uploads/R42/part1.tar"},
		RunInfo: "/uploads/R42/RunInfo.xml",
	})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	// Единственная загрузка проходит насквозь: ноль submissions.
	if len(fp.submissions) != 0 {
		t.Errorf("expected zero submissions, got %d", len(fp.submissions))
	}
	if plan.RunTarballRef.Path != "/uploads/R42/part1.tar" {
		t.Errorf("expected pass-through ref, got %+v", plan.RunTarballRef)
	}
	if plan.RunTarballRef.IsForward() {
		t.Error("pass-through ref must not be a forward reference")
	}
	if len(plan.LaneJobs) != 0 || plan.Aggregator != nil {
		t.Error("no workflow requested, plan must contain no jobs")
	}
}

func TestLaunch_ConsolidationForwardRef(t *testing.T) {
	fp := &fakePlatform{}
	launcher, _ := newTestLauncher(t, fp)

	plan, err := launcher.Launch(context.Background(), uuid.New(), domain.LaunchRequest{
		Parts:   []string{"/uploads/R42/part1.tar", "/uploads/R42/part2.tar"},
		RunInfo: "/uploads/R42/RunInfo.xml",
	})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	if len(fp.submissions) != 1 {
		t.Fatalf("expected exactly one submission, got %d", len(fp.submissions))
	}
	sub := fp.submissions[0]
	if sub.Type != domain.JobTypeConsolidate {
		t.Errorf("expected consolidate job, got %q", sub.Type)
	}
	uploads, ok := sub.Params[domain.ParamManifest].([]string)
	if !ok || len(uploads) != 2 {
		t.Errorf("expected manifest with 2 uploads, got %v", sub.Params[domain.ParamManifest])
	}
	if sub.Params[domain.ParamFolder] != "/" {
		t.Errorf("expected default folder /, got %v", sub.Params[domain.ParamFolder])
	}
	// ≤150 tiles: consolidation на малом профиле.
	if sub.Profile == "" {
		t.Error("consolidation submission must carry a compute profile")
	}

	// Ссылка указывает на объявленный output job'а, не на входной артефакт.
	if !plan.RunTarballRef.IsForward() {
		t.Fatal("expected forward reference to consolidation output")
	}
	if plan.RunTarballRef.JobID != fp.handles[0].ID {
		t.Errorf("forward ref points at %s, want %s", plan.RunTarballRef.JobID, fp.handles[0].ID)
	}
	if plan.RunTarballRef.Output != domain.OutputTarball {
		t.Errorf("expected output %q, got %q", domain.OutputTarball, plan.RunTarballRef.Output)
	}
}

func TestLaunch_LaneFanOut(t *testing.T) {
	fp := &fakePlatform{}
	fs := newTestStore(t)
	writeObject(t, fs, "/uploads/R7/RunInfo.xml", runInfoXML("R7", 3, 2, 2, 14))
	launcher := New(Config{Platform: fp, Store: fs, Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))})

	plan, err := launcher.Launch(context.Background(), uuid.New(), domain.LaunchRequest{
		Parts:    []string{"/uploads/R7/part1.tar", "/uploads/R7/part2.tar"},
		RunInfo:  "/uploads/R7/RunInfo.xml",
		Workflow: "demux",
		Folder:   "/results",
	})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	lanes := fp.byType("demux")
	if len(lanes) != 3 {
		t.Fatalf("expected 3 lane jobs, got %d", len(lanes))
	}
	if len(plan.LaneJobs) != 3 {
		t.Fatalf("expected 3 lane handles, got %d", len(plan.LaneJobs))
	}

	consolidationID := fp.handles[0].ID
	for i, sub := range lanes {
		lane := uint(i + 1)

		if got := sub.Params[domain.ParamLane]; got != lane {
			t.Errorf("lane %d: lane param = %v", lane, got)
		}
		wantFolder := fmt.Sprintf("/results/R7/reads/L%d", lane)
		if got := sub.Params[domain.ParamFolder]; got != wantFolder {
			t.Errorf("lane %d: folder = %v, want %s", lane, got, wantFolder)
		}

		// Каждый lane job объявлен против forward-ссылки на tarball.
		ref, ok := sub.Params[domain.ParamTarball].(domain.ArtifactRef)
		if !ok || !ref.IsForward() || ref.JobID != consolidationID {
			t.Errorf("lane %d: tarball param = %v, want forward ref to %s", lane, sub.Params[domain.ParamTarball], consolidationID)
		}

		if sub.Profile != lanes[0].Profile {
			t.Errorf("lane %d: profile %q differs from lane 1 %q", lane, sub.Profile, lanes[0].Profile)
		}
		if got := sub.Params[domain.ParamQuality]; got != 25 {
			t.Errorf("lane %d: quality = %v, want 25 for a small run", lane, got)
		}
	}
}

func TestLaunch_AggregatorDependencySet(t *testing.T) {
	fp := &fakePlatform{}
	launcher, _ := newTestLauncher(t, fp)

	plan, err := launcher.Launch(context.Background(), uuid.New(), domain.LaunchRequest{
		Parts:    []string{"/uploads/R42/part1.tar", "/uploads/R42/part2.tar"},
		RunInfo:  "/uploads/R42/RunInfo.xml",
		Workflow: "demux",
	})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	collects := fp.byType(domain.JobTypeCollect)
	if len(collects) != 1 {
		t.Fatalf("expected exactly one collect job, got %d", len(collects))
	}
	agg := collects[0]

	if agg.Gate != domain.GateTerminal {
		t.Errorf("expected TERMINAL gate, got %q", agg.Gate)
	}
	// Папка по умолчанию "/": листинг идёт от /R42/reads.
	if got := agg.Params[domain.ParamListPrefix]; got != "/R42/reads" {
		t.Errorf("list prefix = %v, want /R42/reads", got)
	}

	// Dependency set — в точности все lane jobs, без дублей.
	want := make(map[uuid.UUID]bool, len(plan.LaneJobs))
	for _, h := range plan.LaneJobs {
		want[h.ID] = true
	}
	if len(agg.DependsOn) != len(want) {
		t.Fatalf("dependency set has %d entries, want %d", len(agg.DependsOn), len(want))
	}
	seen := make(map[uuid.UUID]bool, len(agg.DependsOn))
	for _, dep := range agg.DependsOn {
		if !want[dep] {
			t.Errorf("unexpected dependency %s", dep)
		}
		if seen[dep] {
			t.Errorf("duplicate dependency %s", dep)
		}
		seen[dep] = true
	}

	if plan.Aggregator == nil {
		t.Fatal("plan must reference the aggregator handle")
	}
}

func TestLaunch_CenterOmittedWhenAbsent(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		fp := &fakePlatform{}
		launcher, _ := newTestLauncher(t, fp)

		_, err := launcher.Launch(context.Background(), uuid.New(), domain.LaunchRequest{
			Parts:    []string{"/uploads/R42/part1.tar", "/uploads/R42/part2.tar"},
			RunInfo:  "/uploads/R42/RunInfo.xml",
			Workflow: "demux",
		})
		if err != nil {
			t.Fatalf("launch: %v", err)
		}

		for i, sub := range fp.byType("demux") {
			// Ключа center нет вообще, не пустая строка.
			if _, present := sub.Params[domain.ParamCenter]; present {
				t.Errorf("lane %d: center key must be absent, got %v", i+1, sub.Params[domain.ParamCenter])
			}
		}
	})

	t.Run("present", func(t *testing.T) {
		fp := &fakePlatform{}
		launcher, _ := newTestLauncher(t, fp)

		_, err := launcher.Launch(context.Background(), uuid.New(), domain.LaunchRequest{
			Parts:    []string{"/uploads/R42/part1.tar", "/uploads/R42/part2.tar"},
			RunInfo:  "/uploads/R42/RunInfo.xml",
			Workflow: "demux",
			Center:   "broad",
		})
		if err != nil {
			t.Fatalf("launch: %v", err)
		}

		for i, sub := range fp.byType("demux") {
			if got := sub.Params[domain.ParamCenter]; got != "broad" {
				t.Errorf("lane %d: center = %v, want broad", i+1, got)
			}
		}
	})
}

func TestLaunch_CredentialNotLogged(t *testing.T) {
	const secret = "tok-4f9d2c81e5"

	credFile := filepath.Join(t.TempDir(), "credential")
	if err := os.WriteFile(credFile, []byte(secret+"\n"), 0o600); err != nil {
		t.Fatalf("write credential: %v", err)
	}

	fp := &fakePlatform{}
	fs := newTestStore(t)
	writeObject(t, fs, "/uploads/R42/RunInfo.xml", runInfoXML("R42", 2, 2, 2, 14))

	var buf bytes.Buffer
	launcher := New(Config{
		Platform: fp,
		Store:    fs,
		Logger:   slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})

	_, err := launcher.Launch(context.Background(), uuid.New(), domain.LaunchRequest{
		Parts:         []string{"/uploads/R42/part1.tar", "/uploads/R42/part2.tar"},
		RunInfo:       "/uploads/R42/RunInfo.xml",
		Workflow:      "demux",
		CredentialRef: credFile,
	})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	// Секрет дошёл до каждой submission...
	for i, sub := range fp.submissions {
		if sub.Credential.Reveal() != secret {
			t.Errorf("submission %d: credential not relayed", i)
		}
	}

	// ...но в логи попал только плейсхолдер.
	logs := buf.String()
	if strings.Contains(logs, secret) {
		t.Fatalf("credential value leaked into logs:\n%s", logs)
	}
	if !strings.Contains(logs, domain.RedactedPlaceholder) {
		t.Error("expected redacted placeholder in logs")
	}
}

func TestLaunch_AbortsOnLaneFailure(t *testing.T) {
	fp := &fakePlatform{}
	fp.failOn = func(sub platform.Submission) error {
		if sub.Type == "demux" && sub.Params[domain.ParamLane] == uint(2) {
			return errors.New("quota exceeded")
		}
		return nil
	}
	launcher, _ := newTestLauncher(t, fp)

	_, err := launcher.Launch(context.Background(), uuid.New(), domain.LaunchRequest{
		Parts:    []string{"/uploads/R42/part1.tar", "/uploads/R42/part2.tar"},
		RunInfo:  "/uploads/R42/RunInfo.xml",
		Workflow: "demux",
	})

	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if subErr.Stage != StageLane || subErr.Lane != 2 {
		t.Errorf("expected lane 2 failure, got stage %q lane %d", subErr.Stage, subErr.Lane)
	}
	if !strings.Contains(err.Error(), "lane 2") {
		t.Errorf("error must name the failed lane: %v", err)
	}

	// Fan-out оборван: consolidation + lane 1, агрегатора нет.
	if len(fp.submissions) != 2 {
		t.Errorf("expected 2 submissions before abort, got %d", len(fp.submissions))
	}
	if collects := fp.byType(domain.JobTypeCollect); len(collects) != 0 {
		t.Error("aggregator must not be submitted after a lane failure")
	}
}

func TestLaunch_EmptyManifest(t *testing.T) {
	fp := &fakePlatform{}
	launcher, fs := newTestLauncher(t, fp)
	writeObject(t, fs, "/uploads/R42/manifest.json", `[]`)

	_, err := launcher.Launch(context.Background(), uuid.New(), domain.LaunchRequest{
		Manifest: "/uploads/R42/manifest.json",
		RunInfo:  "/uploads/R42/RunInfo.xml",
	})
	if !errors.Is(err, ErrPartialManifest) {
		t.Errorf("expected ErrPartialManifest, got %v", err)
	}
	if len(fp.submissions) != 0 {
		t.Errorf("expected no submissions, got %d", len(fp.submissions))
	}
}

func TestLaunch_RequestValidation(t *testing.T) {
	tests := []struct {
		name string
		req  domain.LaunchRequest
	}{
		{
			name: "no upload source",
			req:  domain.LaunchRequest{RunInfo: "/uploads/R42/RunInfo.xml"},
		},
		{
			name: "manifest and parts together",
			req: domain.LaunchRequest{
				Manifest: "/uploads/R42/manifest.json",
				Parts:    []string{"/uploads/R42/part1.tar"},
			},
		},
		{
			name: "empty part path",
			req:  domain.LaunchRequest{Parts: []string{"/uploads/R42/part1.tar", ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakePlatform{}
			launcher, _ := newTestLauncher(t, fp)

			_, err := launcher.Launch(context.Background(), uuid.New(), tt.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestLaunch_MalformedDescriptor(t *testing.T) {
	fp := &fakePlatform{}
	fs := newTestStore(t)
	// TileCount отсутствует — sizing не имеет права угадывать.
	writeObject(t, fs, "/uploads/R9/RunInfo.xml",
		`<RunInfo><Run Id="R9"><FlowcellLayout LaneCount="2" SurfaceCount="2" SwathCount="2"/></Run></RunInfo>`)
	launcher := New(Config{Platform: fp, Store: fs, Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))})

	_, err := launcher.Launch(context.Background(), uuid.New(), domain.LaunchRequest{
		Parts:   []string{"/uploads/R9/part1.tar"},
		RunInfo: "/uploads/R9/RunInfo.xml",
	})

	var fieldErr *runinfo.MalformedRunDescriptorError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected MalformedRunDescriptorError, got %v", err)
	}
	if !strings.Contains(fieldErr.Field, "TileCount") {
		t.Errorf("error must name the missing field, got %q", fieldErr.Field)
	}
	if len(fp.submissions) != 0 {
		t.Errorf("malformed descriptor must halt before any submission, got %d", len(fp.submissions))
	}
}

func TestLaunch_ManifestFromStore(t *testing.T) {
	fp := &fakePlatform{}
	launcher, fs := newTestLauncher(t, fp)
	writeObject(t, fs, "/uploads/R42/manifest.json",
		`["/uploads/R42/part1.tar", "/uploads/R42/part2.tar"]`)

	// RunInfo не задан: дескриптор ищется рядом с манифестом.
	plan, err := launcher.Launch(context.Background(), uuid.New(), domain.LaunchRequest{
		Manifest: "/uploads/R42/manifest.json",
	})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	if len(fp.submissions) != 1 {
		t.Fatalf("expected one consolidation submission, got %d", len(fp.submissions))
	}
	uploads, _ := fp.submissions[0].Params[domain.ParamManifest].([]string)
	if len(uploads) != 2 {
		t.Errorf("expected 2 uploads from manifest file, got %v", uploads)
	}
	if !plan.RunTarballRef.IsForward() {
		t.Error("expected forward reference to consolidation output")
	}
	if plan.OutputFolder != "/R42" {
		t.Errorf("output folder = %q, want /R42", plan.OutputFolder)
	}
}
