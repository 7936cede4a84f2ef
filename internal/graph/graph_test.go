package graph

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

// newJob создаёт job для тестов графа.
func newJob(status domain.JobStatus, gate domain.Gate, deps ...uuid.UUID) *domain.Job {
	return &domain.Job{
		ID:        uuid.New(),
		Type:      "demux",
		Status:    status,
		Gate:      gate,
		DependsOn: deps,
	}
}

func TestBuild_FanOut(t *testing.T) {
	// consolidate → L1, L2, L3 → collect
	cons := newJob(domain.JobStatusQueued, domain.GateSuccess)
	l1 := newJob(domain.JobStatusPending, domain.GateSuccess, cons.ID)
	l2 := newJob(domain.JobStatusPending, domain.GateSuccess, cons.ID)
	l3 := newJob(domain.JobStatusPending, domain.GateSuccess, cons.ID)
	collect := newJob(domain.JobStatusPending, domain.GateTerminal, l1.ID, l2.ID, l3.ID)

	g, err := Build([]*domain.Job{cons, l1, l2, l3, collect})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Size() != 5 {
		t.Errorf("expected 5 nodes, got %d", g.Size())
	}

	// Единственный корень — consolidation.
	if len(g.Roots) != 1 || g.Roots[0].ID() != cons.ID {
		t.Errorf("expected single root %s, got %+v", cons.ID, g.Roots)
	}

	// Collect зависит от всех трёх lane jobs.
	node := g.GetNode(collect.ID)
	if len(node.DependsOn) != 3 {
		t.Errorf("expected 3 dependencies, got %d", len(node.DependsOn))
	}
	if node.InDegree != 3 {
		t.Errorf("expected inDegree 3, got %d", node.InDegree)
	}
}

func TestBuild_Cycle(t *testing.T) {
	a := newJob(domain.JobStatusPending, domain.GateSuccess)
	b := newJob(domain.JobStatusPending, domain.GateSuccess, a.ID)
	a.DependsOn = []uuid.UUID{b.ID}

	_, err := Build([]*domain.Job{a, b})
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestBuild_UnknownDependency(t *testing.T) {
	a := newJob(domain.JobStatusPending, domain.GateSuccess, uuid.New())

	_, err := Build([]*domain.Job{a})
	if !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("expected ErrUnknownDependency, got %v", err)
	}
}

func TestBuild_SelfDependency(t *testing.T) {
	a := newJob(domain.JobStatusPending, domain.GateSuccess)
	a.DependsOn = []uuid.UUID{a.ID}

	_, err := Build([]*domain.Job{a})
	if !errors.Is(err, ErrSelfDependency) {
		t.Errorf("expected ErrSelfDependency, got %v", err)
	}
}

func TestBuild_DuplicateEdgesCollapse(t *testing.T) {
	a := newJob(domain.JobStatusSucceeded, domain.GateSuccess)
	b := newJob(domain.JobStatusPending, domain.GateSuccess, a.ID, a.ID)

	g, err := Build([]*domain.Job{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	node := g.GetNode(b.ID)
	if node.InDegree != 1 {
		t.Errorf("duplicate edge must not double inDegree: got %d", node.InDegree)
	}
}

func TestReady_SuccessGate(t *testing.T) {
	cons := newJob(domain.JobStatusSucceeded, domain.GateSuccess)
	lane := newJob(domain.JobStatusPending, domain.GateSuccess, cons.ID)

	g, err := Build([]*domain.Job{cons, lane})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ready := g.Ready()
	if len(ready) != 1 || ready[0].ID() != lane.ID {
		t.Errorf("expected lane job ready, got %+v", ready)
	}
}

func TestReady_SuccessGateClosedOnFailure(t *testing.T) {
	// SUCCESS-gate не открывается от упавшей зависимости — job обречён.
	cons := newJob(domain.JobStatusFailed, domain.GateSuccess)
	lane := newJob(domain.JobStatusPending, domain.GateSuccess, cons.ID)

	g, err := Build([]*domain.Job{cons, lane})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ready := g.Ready(); len(ready) != 0 {
		t.Errorf("expected no ready jobs, got %+v", ready)
	}

	doomed := g.Doomed()
	if len(doomed) != 1 || doomed[0].ID() != lane.ID {
		t.Errorf("expected lane job doomed, got %+v", doomed)
	}
}

func TestReady_TerminalGate(t *testing.T) {
	// TERMINAL-gate агрегатора открывается и при упавших lane jobs,
	// но только когда терминальны ВСЕ зависимости.
	l1 := newJob(domain.JobStatusSucceeded, domain.GateSuccess)
	l2 := newJob(domain.JobStatusFailed, domain.GateSuccess)
	l3 := newJob(domain.JobStatusRunning, domain.GateSuccess)
	collect := newJob(domain.JobStatusPending, domain.GateTerminal, l1.ID, l2.ID, l3.ID)

	g, err := Build([]*domain.Job{l1, l2, l3, collect})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ready := g.Ready(); len(ready) != 0 {
		t.Errorf("collect must wait for running lane, got %+v", ready)
	}
	if doomed := g.Doomed(); len(doomed) != 0 {
		t.Errorf("terminal gate is never doomed, got %+v", doomed)
	}

	// Последний lane job завершился — gate открыт.
	l3.MarkRunning()
	l3.MarkFailed("boom")

	ready := g.Ready()
	if len(ready) != 1 || ready[0].ID() != collect.ID {
		t.Errorf("expected collect ready after all lanes terminal, got %+v", ready)
	}
}

func TestIsComplete(t *testing.T) {
	a := newJob(domain.JobStatusSucceeded, domain.GateSuccess)
	b := newJob(domain.JobStatusRunning, domain.GateSuccess, a.ID)

	g, err := Build([]*domain.Job{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.IsComplete() {
		t.Error("graph with running job is not complete")
	}

	b.MarkSucceeded(nil)
	if !g.IsComplete() {
		t.Error("graph with all jobs terminal must be complete")
	}
	if g.Failed() {
		t.Error("no failed jobs expected")
	}
}
