// Package evidence writes per-run evidence bundles: what each stage ran,
// where, and how it exited.
package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunRecord captures run-level metadata.
type RunRecord struct {
	ID           string            `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	SuiteFile    string            `json:"suite_file,omitempty"`
	Workdir      string            `json:"workdir"`
	Channel      string            `json:"channel"`
	ToolVersions map[string]string `json:"tool_versions,omitempty"`
}

// StageRecord captures evidence for a single stage.
type StageRecord struct {
	Name             string   `json:"name"`
	Command          []string `json:"command,omitempty"`
	Dir              string   `json:"dir,omitempty"`
	ExitCode         int      `json:"exit_code"`
	Removed          []string `json:"removed,omitempty"`
	ToleratedAbsence bool     `json:"tolerated_absence,omitempty"`
	Stdout           string   `json:"stdout,omitempty"`
	StdoutRef        string   `json:"stdout_ref,omitempty"`
	Stderr           string   `json:"stderr,omitempty"`
	StderrRef        string   `json:"stderr_ref,omitempty"`
	Error            string   `json:"error,omitempty"`
	DurationMillis   int64    `json:"duration_ms"`
}

// Writer writes evidence bundles to disk.
type Writer struct {
	baseDir string
	runDir  string
}

// NewWriter creates a new evidence writer rooted at baseDir/runID.
func NewWriter(baseDir, runID string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if runID == "" {
		return nil, fmt.Errorf("run ID is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(filepath.Join(runDir, "stages"), 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(runDir, "logs"), 0755); err != nil {
		return nil, err
	}

	return &Writer{baseDir: baseDir, runDir: runDir}, nil
}

// RunDir returns the run directory path.
func (w *Writer) RunDir() string {
	return w.runDir
}

// WriteRun writes run metadata to run.json.
func (w *Writer) WriteRun(record RunRecord) error {
	return writeJSON(filepath.Join(w.runDir, "run.json"), record)
}

// WriteStage writes a stage record to stages/<stage>.json.
func (w *Writer) WriteStage(record StageRecord) error {
	name := sanitizeName(record.Name)
	path := filepath.Join(w.runDir, "stages", fmt.Sprintf("%s.json", name))
	return writeJSON(path, record)
}

// WriteLog writes captured tool output to logs/<stage>.log.
func (w *Writer) WriteLog(stageName, content string) error {
	if stageName == "" {
		return fmt.Errorf("stage name is required")
	}
	path := filepath.Join(w.runDir, "logs", fmt.Sprintf("%s.log", sanitizeName(stageName)))
	return os.WriteFile(path, []byte(content), 0644)
}

// sanitizeName flattens nested stage names like generator/compile into
// filesystem-safe file names.
func sanitizeName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '/' || c == '\\' || c == ':' {
			c = '-'
		}
		out[i] = c
	}
	return string(out)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
