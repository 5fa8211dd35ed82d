package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/zen-systems/crosscheck/pkg/archive"
	"github.com/zen-systems/crosscheck/pkg/clean"
	"github.com/zen-systems/crosscheck/pkg/command"
	"github.com/zen-systems/crosscheck/pkg/evidence"
	"github.com/zen-systems/crosscheck/pkg/history"
	"github.com/zen-systems/crosscheck/pkg/toolchain"
)

const outputRecordLimit = 4096

// RunOptions configures stage execution.
type RunOptions struct {
	// Executor runs external commands. Defaults to the real process
	// executor.
	Executor command.Executor
	// Workdir anchors the default evidence location.
	Workdir     string
	EvidenceDir string
	SuitePath   string
	Channel     toolchain.Channel
	// Archive, when set, keeps full tool output that was truncated in
	// the stage records.
	Archive *archive.Store
	// History, when set, records the run outcome in the history store.
	History *history.Store
	Logger  func(format string, args ...any)
}

// RunResult captures the outcome of executing a stage list.
type RunResult struct {
	RunID       string
	EvidenceDir string
	Stages      []*StageResult
	ExitCode    int
}

// StageResult captures execution results for a stage.
type StageResult struct {
	Name     string
	Removed  []string
	Result   *command.Result
	Duration time.Duration
}

// Run executes the stages strictly in order. The first stage whose command
// exits non-zero aborts the remaining sequence; the error is a *StageError
// carrying that exit code. Clean stages never fail on absent output.
func Run(ctx context.Context, stages []*Stage, opts RunOptions) (*RunResult, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("no stages to run")
	}

	executor := opts.Executor
	if executor == nil {
		executor = command.NewExecExecutor()
	}
	logf := opts.Logger
	if logf == nil {
		logf = func(string, ...any) {}
	}

	workdir := opts.Workdir
	if workdir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		workdir = cwd
	}

	writer, err := prepareEvidenceWriter(opts.EvidenceDir, workdir)
	if err != nil {
		return nil, err
	}

	runID := filepath.Base(writer.RunDir())
	started := time.Now().UTC()
	runRecord := evidence.RunRecord{
		ID:           runID,
		Timestamp:    started,
		SuiteFile:    opts.SuitePath,
		Workdir:      workdir,
		Channel:      opts.Channel.String(),
		ToolVersions: map[string]string{"go": runtime.Version()},
	}
	if err := writer.WriteRun(runRecord); err != nil {
		return nil, err
	}

	result := &RunResult{RunID: runID, EvidenceDir: writer.RunDir()}

	for _, stage := range stages {
		stageResult, record, err := runStage(ctx, stage, executor, opts.Archive)
		if record != nil {
			if writeErr := writer.WriteStage(*record); writeErr != nil {
				return nil, writeErr
			}
		}
		if stageResult != nil {
			result.Stages = append(result.Stages, stageResult)
			if stageResult.Result != nil {
				logContent := fmt.Sprintf("command: %s\nexit: %d\n\nstdout:\n%s\n\nstderr:\n%s\n",
					history.JoinCommand(stageResult.Result.Command),
					stageResult.Result.ExitCode,
					stageResult.Result.Stdout,
					stageResult.Result.Stderr,
				)
				if writeErr := writer.WriteLog(stage.Name, logContent); writeErr != nil {
					return nil, writeErr
				}
			}
		}
		if err != nil {
			if stageErr, ok := err.(*StageError); ok {
				result.ExitCode = stageErr.ExitCode
				logf("stage %s failed (exit %d)", stage.Name, stageErr.ExitCode)
				recordHistory(opts, runRecord, started, result)
				return result, err
			}
			return result, err
		}
		logf("stage %s ok", stage.Name)
	}

	recordHistory(opts, runRecord, started, result)
	return result, nil
}

func runStage(ctx context.Context, stage *Stage, executor command.Executor, store *archive.Store) (*StageResult, *evidence.StageRecord, error) {
	if stage == nil {
		return nil, nil, fmt.Errorf("stage is nil")
	}

	start := time.Now()
	record := &evidence.StageRecord{Name: stage.Name, Dir: stage.Dir}

	if stage.Remove != "" {
		removed, err := clean.Remove(stage.Dir, stage.Remove)
		record.Removed = removed
		record.ToleratedAbsence = len(removed) == 0
		record.DurationMillis = time.Since(start).Milliseconds()
		if err != nil {
			record.Error = err.Error()
			return nil, record, fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		return &StageResult{Name: stage.Name, Removed: removed, Duration: time.Since(start)}, record, nil
	}

	res, err := executor.Run(ctx, command.Invocation{
		Command: stage.Command,
		Dir:     stage.Dir,
		Env:     stage.Env,
	})
	if err != nil {
		record.Command = stage.Command
		record.Error = err.Error()
		record.DurationMillis = time.Since(start).Milliseconds()
		return nil, record, fmt.Errorf("stage %s: %w", stage.Name, err)
	}

	record.Command = res.Command
	record.ExitCode = res.ExitCode
	record.Stdout, record.StdoutRef = archiveOutput(store, res.Stdout)
	record.Stderr, record.StderrRef = archiveOutput(store, res.Stderr)
	record.DurationMillis = time.Since(start).Milliseconds()

	stageResult := &StageResult{Name: stage.Name, Result: res, Duration: time.Since(start)}
	if res.ExitCode != 0 {
		return stageResult, record, &StageError{Stage: stage.Name, ExitCode: res.ExitCode}
	}
	return stageResult, record, nil
}

// archiveOutput truncates output for the stage record, keeping the full
// text in the content-addressed archive when one is configured.
func archiveOutput(store *archive.Store, output string) (string, string) {
	if len(output) <= outputRecordLimit {
		return output, ""
	}

	ref := hashString(output)
	if store != nil {
		if stored, err := store.StoreBlob([]byte(output)); err == nil {
			ref = stored.SHA256
		}
	}
	return output[:outputRecordLimit], ref
}

func recordHistory(opts RunOptions, runRecord evidence.RunRecord, started time.Time, result *RunResult) {
	if opts.History == nil {
		return
	}

	stages := make([]history.StageRow, 0, len(result.Stages))
	for _, stage := range result.Stages {
		row := history.StageRow{RunID: result.RunID, Name: stage.Name, DurationMillis: stage.Duration.Milliseconds()}
		if stage.Result != nil {
			row.Command = history.JoinCommand(stage.Result.Command)
			row.Dir = stage.Result.Dir
			row.ExitCode = stage.Result.ExitCode
		}
		stages = append(stages, row)
	}

	run := history.Run{
		ID:        result.RunID,
		StartedAt: started,
		Suite:     runRecord.SuiteFile,
		Channel:   runRecord.Channel,
		Workdir:   runRecord.Workdir,
		ExitCode:  result.ExitCode,
	}
	// History is best effort; a failed insert must not fail the run.
	_ = opts.History.Record(run, stages)
}

func prepareEvidenceWriter(baseDir, workdir string) (*evidence.Writer, error) {
	if baseDir == "" {
		baseDir = filepath.Join(workdir, ".crosscheck", "runs")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	runID := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405Z"), randomSuffix())
	return evidence.NewWriter(baseDir, runID)
}

func hashString(value string) string {
	h := sha256.Sum256([]byte(value))
	return hex.EncodeToString(h[:])
}

func randomSuffix() string {
	now := time.Now().UTC().UnixNano()
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d", now)))
	return hex.EncodeToString(sum[:4])
}
