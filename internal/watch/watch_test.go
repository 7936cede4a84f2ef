package watch

import (
	"testing"
	"time"

	"github.com/shaiso/Lanekeeper/internal/store"
)

func entries(paths ...string) []store.Entry {
	es := make([]store.Entry, 0, len(paths))
	for _, p := range paths {
		es = append(es, store.Entry{Path: p, Size: 1})
	}
	return es
}

// --- readyRuns ---

func TestReadyRuns_CompleteUpload(t *testing.T) {
	es := entries(
		"/incoming/R42/CopyComplete.txt",
		"/incoming/R42/RunInfo.xml",
		"/incoming/R42/manifest.json",
		"/incoming/R42/part_000.tar",
		"/incoming/R42/part_001.tar",
	)

	ready := readyRuns("/incoming", es)
	if len(ready) != 1 {
		t.Fatalf("expected 1 ready folder, got %d", len(ready))
	}
	if ready[0] != "/incoming/R42" {
		t.Errorf("expected /incoming/R42, got %s", ready[0])
	}
}

func TestReadyRuns_IncompleteUploads(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
	}{
		{
			name: "no marker",
			paths: []string{
				"/incoming/R1/RunInfo.xml",
				"/incoming/R1/manifest.json",
				"/incoming/R1/part_000.tar",
			},
		},
		{
			name: "no descriptor",
			paths: []string{
				"/incoming/R1/manifest.json",
				"/incoming/R1/CopyComplete.txt",
			},
		},
		{
			name: "no manifest",
			paths: []string{
				"/incoming/R1/RunInfo.xml",
				"/incoming/R1/CopyComplete.txt",
			},
		},
		{
			name:  "empty folder listing",
			paths: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ready := readyRuns("/incoming", entries(tt.paths...)); len(ready) != 0 {
				t.Errorf("expected no ready folders, got %v", ready)
			}
		})
	}
}

func TestReadyRuns_MultipleFolders(t *testing.T) {
	es := entries(
		"/incoming/R1/CopyComplete.txt",
		"/incoming/R1/RunInfo.xml",
		"/incoming/R1/manifest.json",
		"/incoming/R2/RunInfo.xml",
		"/incoming/R2/manifest.json",
		"/incoming/R3/CopyComplete.txt",
		"/incoming/R3/RunInfo.xml",
		"/incoming/R3/manifest.json",
	)

	ready := readyRuns("/incoming", es)
	if len(ready) != 2 {
		t.Fatalf("expected 2 ready folders, got %d: %v", len(ready), ready)
	}
	if ready[0] != "/incoming/R1" || ready[1] != "/incoming/R3" {
		t.Errorf("expected [/incoming/R1 /incoming/R3], got %v", ready)
	}
}

func TestReadyRuns_NestedObjectsIgnored(t *testing.T) {
	// Маркер внутри вложенной папки не завершает загрузку.
	es := entries(
		"/incoming/R1/RunInfo.xml",
		"/incoming/R1/manifest.json",
		"/incoming/R1/archive/CopyComplete.txt",
	)

	if ready := readyRuns("/incoming", es); len(ready) != 0 {
		t.Errorf("expected no ready folders, got %v", ready)
	}
}

func TestReadyRuns_RootInbox(t *testing.T) {
	es := entries(
		"/R7/CopyComplete.txt",
		"/R7/RunInfo.xml",
		"/R7/manifest.json",
	)

	ready := readyRuns("/", es)
	if len(ready) != 1 || ready[0] != "/R7" {
		t.Fatalf("expected [/R7], got %v", ready)
	}
}

// --- ParseCadence ---

func TestParseCadence_Default(t *testing.T) {
	schedule, err := ParseCadence("")
	if err != nil {
		t.Fatalf("parse default cadence: %v", err)
	}

	from := time.Date(2025, 3, 10, 12, 30, 15, 0, time.UTC)
	next := schedule.Next(from)
	if want := time.Date(2025, 3, 10, 12, 31, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected next scan at %v, got %v", want, next)
	}
}

func TestParseCadence_Expression(t *testing.T) {
	schedule, err := ParseCadence("*/15 * * * *")
	if err != nil {
		t.Fatalf("parse cadence: %v", err)
	}

	from := time.Date(2025, 3, 10, 12, 20, 0, 0, time.UTC)
	next := schedule.Next(from)
	if want := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected next scan at %v, got %v", want, next)
	}
}

func TestParseCadence_Invalid(t *testing.T) {
	if _, err := ParseCadence("not a cron"); err == nil {
		t.Fatal("expected error for invalid cadence")
	}
}

// --- New ---

func TestNew_DefaultConfig(t *testing.T) {
	w := New(Config{})
	if w.inbox != "/incoming" {
		t.Errorf("expected default inbox /incoming, got %s", w.inbox)
	}
}

func TestNew_CustomInbox(t *testing.T) {
	w := New(Config{Inbox: "/uploads"})
	if w.inbox != "/uploads" {
		t.Errorf("expected inbox /uploads, got %s", w.inbox)
	}
}
