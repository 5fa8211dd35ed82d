package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openStore(t)

	run := Run{
		ID:        "20260831T120000Z-abcd1234",
		StartedAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		Suite:     "crosscheck.yaml",
		Channel:   "nightly",
		Workdir:   "/src/bindings",
		ExitCode:  0,
	}
	stages := []StageRow{
		{RunID: run.ID, Name: "clean", DurationMillis: 2},
		{RunID: run.ID, Name: "compile", Command: "javac Test.java", Dir: "java", DurationMillis: 350},
		{RunID: run.ID, Name: "build", Command: "cargo build", DurationMillis: 9000},
		{RunID: run.ID, Name: "test", Command: "cargo test", ExitCode: 0, DurationMillis: 4200},
	}
	if err := store.Record(run, stages); err != nil {
		t.Fatalf("record: %v", err)
	}

	runs, err := store.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != run.ID || got.Channel != "nightly" || got.Stages != 4 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Fatalf("started at mismatch: %v", got.StartedAt)
	}

	rows, err := store.Stages(run.ID)
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 stage rows, got %d", len(rows))
	}
	if rows[1].Name != "compile" || rows[1].Command != "javac Test.java" {
		t.Fatalf("stage order not preserved: %+v", rows[1])
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openStore(t)

	for i, id := range []string{"run-old", "run-new"} {
		run := Run{
			ID:        id,
			StartedAt: time.Date(2026, 8, 31, 12, i, 0, 0, time.UTC),
			Suite:     "crosscheck.yaml",
			Channel:   "stable",
			Workdir:   "/src",
		}
		if err := store.Record(run, nil); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	runs, err := store.List(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-new" {
		t.Fatalf("expected newest run first, got %+v", runs)
	}
}

func TestRecordFailedRun(t *testing.T) {
	store := openStore(t)

	run := Run{
		ID:        "run-fail",
		StartedAt: time.Now().UTC(),
		Suite:     "",
		Channel:   "unknown",
		Workdir:   "/src",
		ExitCode:  2,
	}
	stages := []StageRow{
		{RunID: run.ID, Name: "compile", Command: "javac Test.java", ExitCode: 2, DurationMillis: 120},
	}
	if err := store.Record(run, stages); err != nil {
		t.Fatalf("record: %v", err)
	}

	runs, err := store.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if runs[0].ExitCode != 2 {
		t.Fatalf("expected recorded exit code 2, got %d", runs[0].ExitCode)
	}
}
