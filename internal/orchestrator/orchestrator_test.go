package orchestrator

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
	"github.com/shaiso/Lanekeeper/internal/graph"
)

func testJob(jobType string, status domain.JobStatus, gate domain.Gate, deps ...uuid.UUID) *domain.Job {
	return &domain.Job{
		ID:        uuid.New(),
		Type:      jobType,
		Status:    status,
		Gate:      gate,
		DependsOn: deps,
	}
}

func buildGraph(t *testing.T, jobs ...*domain.Job) *graph.Graph {
	t.Helper()
	g, err := graph.Build(jobs)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

// --- Cascade Tests ---

func TestMarkDoomed_CascadesThroughSuccessGates(t *testing.T) {
	consolidate := testJob(domain.JobTypeConsolidate, domain.JobStatusFailed, domain.GateSuccess)
	lane1 := testJob(domain.JobTypeDemux, domain.JobStatusPending, domain.GateSuccess, consolidate.ID)
	lane2 := testJob(domain.JobTypeDemux, domain.JobStatusPending, domain.GateSuccess, consolidate.ID)
	collect := testJob(domain.JobTypeCollect, domain.JobStatusPending, domain.GateTerminal, lane1.ID, lane2.ID)

	g := buildGraph(t, consolidate, lane1, lane2, collect)

	failed := markDoomed(g)

	// Обе lanes каскадно падают, агрегатор с TERMINAL gate — нет
	if len(failed) != 2 {
		t.Fatalf("expected 2 doomed jobs, got %d", len(failed))
	}
	for _, job := range failed {
		if job.Type != domain.JobTypeDemux {
			t.Errorf("only lane jobs should be doomed, got %s", job.Type)
		}
		if job.Status != domain.JobStatusFailed {
			t.Errorf("doomed job should be FAILED, got %s", job.Status)
		}
		if !strings.Contains(job.Error, consolidate.ID.String()) {
			t.Errorf("error should name the failed dependency, got %q", job.Error)
		}
	}
	if collect.Status != domain.JobStatusPending {
		t.Errorf("terminal-gated aggregator must survive the cascade, got %s", collect.Status)
	}

	// После каскада все зависимости агрегатора терминальны — gate открыт
	ready := g.Ready()
	if len(ready) != 1 || ready[0].Job.ID != collect.ID {
		t.Fatalf("aggregator should become ready after cascade, got %v", ready)
	}
}

func TestMarkDoomed_ChainDepth(t *testing.T) {
	a := testJob(domain.JobTypeConsolidate, domain.JobStatusFailed, domain.GateSuccess)
	b := testJob(domain.JobTypeDemux, domain.JobStatusPending, domain.GateSuccess, a.ID)
	c := testJob(domain.JobTypeCollect, domain.JobStatusPending, domain.GateSuccess, b.ID)

	g := buildGraph(t, a, b, c)

	failed := markDoomed(g)

	if len(failed) != 2 {
		t.Fatalf("expected cascade through the whole chain, got %d jobs", len(failed))
	}
	if failed[0].ID != b.ID || failed[1].ID != c.ID {
		t.Errorf("cascade should run in dependency order, got %v then %v", failed[0].ID, failed[1].ID)
	}
	// Каждое звено называет свою непосредственную зависимость
	if !strings.Contains(failed[0].Error, a.ID.String()) {
		t.Errorf("b should blame a, got %q", failed[0].Error)
	}
	if !strings.Contains(failed[1].Error, b.ID.String()) {
		t.Errorf("c should blame b, got %q", failed[1].Error)
	}
}

func TestMarkDoomed_NothingFailed(t *testing.T) {
	a := testJob(domain.JobTypeConsolidate, domain.JobStatusRunning, domain.GateSuccess)
	b := testJob(domain.JobTypeDemux, domain.JobStatusPending, domain.GateSuccess, a.ID)

	g := buildGraph(t, a, b)

	if failed := markDoomed(g); len(failed) != 0 {
		t.Errorf("expected no doomed jobs, got %d", len(failed))
	}
	if b.Status != domain.JobStatusPending {
		t.Errorf("pending job should be untouched, got %s", b.Status)
	}
}

func TestFailedJobs(t *testing.T) {
	a := testJob(domain.JobTypeConsolidate, domain.JobStatusSucceeded, domain.GateSuccess)
	b := testJob(domain.JobTypeDemux, domain.JobStatusFailed, domain.GateSuccess, a.ID)
	c := testJob(domain.JobTypeCollect, domain.JobStatusFailed, domain.GateTerminal, b.ID)

	g := buildGraph(t, a, b, c)

	failed := failedJobs(g)
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed jobs, got %d: %v", len(failed), failed)
	}
	if !strings.Contains(failed[0], b.ID.String()) || !strings.Contains(failed[0], domain.JobTypeDemux) {
		t.Errorf("expected demux job first, got %q", failed[0])
	}
	if !strings.Contains(failed[1], c.ID.String()) {
		t.Errorf("expected collect job second, got %q", failed[1])
	}
}

// --- Orchestrator Tests ---

func TestNew(t *testing.T) {
	orch := New(Config{})

	if orch.active == nil {
		t.Error("active map should be initialized")
	}
	if orch.pollInterval != defaultPollInterval {
		t.Errorf("expected default poll interval %v, got %v", defaultPollInterval, orch.pollInterval)
	}
}

func TestNew_CustomConfig(t *testing.T) {
	orch := New(Config{
		PollInterval: 5 * time.Second,
	})

	if orch.pollInterval != 5*time.Second {
		t.Errorf("expected poll interval 5s, got %v", orch.pollInterval)
	}
}

func TestOrchestrator_ActiveLaunches(t *testing.T) {
	orch := New(Config{})
	launchID := uuid.New()

	// Initially no active launches
	if orch.ActiveCount() != 0 {
		t.Error("should have no active launches initially")
	}
	if orch.isActive(launchID) {
		t.Error("launch should not be active initially")
	}

	// Add active launch
	if err := orch.addActive(launchID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if orch.ActiveCount() != 1 {
		t.Error("should have 1 active launch")
	}
	if !orch.isActive(launchID) {
		t.Error("launch should be active")
	}

	// Try to add same launch again
	if err := orch.addActive(launchID); err != ErrLaunchAlreadyActive {
		t.Errorf("expected ErrLaunchAlreadyActive, got %v", err)
	}

	// Remove active launch
	orch.removeActive(launchID)

	if orch.ActiveCount() != 0 {
		t.Error("should have no active launches after removal")
	}
	if orch.isActive(launchID) {
		t.Error("launch should not be active after removal")
	}
}

func TestOrchestrator_IsStopped(t *testing.T) {
	orch := New(Config{})

	if orch.IsStopped() {
		t.Error("should not be stopped initially")
	}

	// Set stopped state directly (simulating Stop() call)
	orch.stoppedMu.Lock()
	orch.stopped = true
	orch.stoppedMu.Unlock()

	if !orch.IsStopped() {
		t.Error("should be stopped")
	}
}

func TestIsExpectedSkip(t *testing.T) {
	for _, err := range []error{ErrLaunchAlreadyActive, ErrLaunchNotPending, ErrLaunchNotFound} {
		if !isExpectedSkip(err) {
			t.Errorf("%v should be an expected skip", err)
		}
	}
	if isExpectedSkip(ErrInvalidJobGraph) {
		t.Error("ErrInvalidJobGraph is not an expected skip")
	}
}
