package pipeline

import "fmt"

// Stage is one ordered step in the orchestration sequence. A stage either
// runs an external command or performs the internal clean operation,
// depending on which of Command and Remove is set.
type Stage struct {
	Name string
	Dir  string
	// Command is the argv of an external tool invocation.
	Command []string
	// Remove is a glob of stale compiled output to delete before
	// compiling. Clean stages tolerate absence: matching nothing is
	// success.
	Remove string
	// Env holds environment entries appended to the inherited process
	// environment for this stage only.
	Env []string
}

// StageError reports a stage whose command exited non-zero. The remaining
// sequence is aborted and the exit code propagates as the process exit
// code.
type StageError struct {
	Stage    string
	ExitCode int
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed with exit code %d", e.Stage, e.ExitCode)
}
