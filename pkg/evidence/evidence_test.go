package evidence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEvidenceWriter(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewWriter(dir, "run-123")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	run := RunRecord{
		ID:        "run-123",
		Timestamp: time.Now().UTC(),
		SuiteFile: "crosscheck.yaml",
		Workdir:   dir,
		Channel:   "stable",
	}
	if err := writer.WriteRun(run); err != nil {
		t.Fatalf("write run: %v", err)
	}

	stage := StageRecord{
		Name:    "compile",
		Command: []string{"javac", "Test.java"},
		Dir:     "java",
	}
	if err := writer.WriteStage(stage); err != nil {
		t.Fatalf("write stage: %v", err)
	}

	if err := writer.WriteLog("compile", "stdout"); err != nil {
		t.Fatalf("write log: %v", err)
	}

	if _, err := os.Stat(filepath.Join(writer.RunDir(), "run.json")); err != nil {
		t.Fatalf("missing run.json: %v", err)
	}
	if _, err := os.Stat(filepath.Join(writer.RunDir(), "stages", "compile.json")); err != nil {
		t.Fatalf("missing stage file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(writer.RunDir(), "logs", "compile.log")); err != nil {
		t.Fatalf("missing log: %v", err)
	}
}

func TestWriterSanitizesNestedStageNames(t *testing.T) {
	writer, err := NewWriter(t.TempDir(), "run1")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := writer.WriteStage(StageRecord{Name: "generator/compile"}); err != nil {
		t.Fatalf("write stage: %v", err)
	}
	if _, err := os.Stat(filepath.Join(writer.RunDir(), "stages", "generator-compile.json")); err != nil {
		t.Fatalf("missing sanitized stage file: %v", err)
	}
}

func TestStageRecordRoundTrip(t *testing.T) {
	writer, err := NewWriter(t.TempDir(), "run2")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	record := StageRecord{
		Name:             "clean",
		Dir:              "java",
		Removed:          []string{"java/Old.class"},
		ToleratedAbsence: false,
		DurationMillis:   5,
	}
	if err := writer.WriteStage(record); err != nil {
		t.Fatalf("write stage: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(writer.RunDir(), "stages", "clean.json"))
	if err != nil {
		t.Fatalf("read stage record: %v", err)
	}
	var got StageRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "clean" || len(got.Removed) != 1 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestWriterValidation(t *testing.T) {
	if _, err := NewWriter("", "run"); err == nil {
		t.Fatalf("expected error for empty base dir")
	}
	if _, err := NewWriter(t.TempDir(), ""); err == nil {
		t.Fatalf("expected error for empty run ID")
	}
}
