package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zen-systems/crosscheck/pkg/clean"
	"github.com/zen-systems/crosscheck/pkg/libpath"
	"github.com/zen-systems/crosscheck/pkg/suite"
	"github.com/zen-systems/crosscheck/pkg/toolchain"
)

// PlanOptions configures stage planning.
type PlanOptions struct {
	// Args are forwarded verbatim to the terminal test invocation.
	Args []string
	// JavaHome locates the Java installation whose runtime library
	// directory is appended to the library search path.
	JavaHome string
	// Lookup reads the base environment for the overlay computation.
	// Defaults to os.Getenv.
	Lookup func(string) string
}

func (o PlanOptions) lookup() func(string) string {
	if o.Lookup != nil {
		return o.Lookup
	}
	return os.Getenv
}

// Plan builds the ordered stage list for one project root: clean stale
// class files, compile the Java sources, build the native crate in debug
// mode, then run the native test command with the forwarded arguments and
// the library path overlay.
func Plan(root string, s *suite.Suite, opts PlanOptions) ([]*Stage, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return planProject(root, "", s, opts.Args, opts)
}

// PlanCI builds the full CI stage list: the primary sequence, an
// unconditional test run with the suite's feature flags enabled, and, only
// on the nightly channel, the nested sub-project stages.
func PlanCI(root string, s *suite.Suite, channel toolchain.Channel, opts PlanOptions) ([]*Stage, error) {
	stages, err := Plan(root, s, opts)
	if err != nil {
		return nil, err
	}

	if len(s.Test.Features) > 0 {
		featured, err := testStage(root, "test-features", s.Native.Dir, s.Test.Features, nil, opts)
		if err != nil {
			return nil, err
		}
		stages = append(stages, featured)
	}

	if !channel.Nightly() {
		return stages, nil
	}

	for _, sub := range s.Subprojects {
		if sub.TestOnly {
			nested, err := testStage(root, sub.Path+"/test", sub.Path, nil, nil, opts)
			if err != nil {
				return nil, err
			}
			stages = append(stages, nested)
			continue
		}

		nested, err := planProject(filepath.Join(root, sub.Path), sub.Path+"/", s, nil, opts)
		if err != nil {
			return nil, fmt.Errorf("plan subproject %s: %w", sub.Path, err)
		}
		stages = append(stages, nested...)
	}

	return stages, nil
}

func planProject(root, prefix string, s *suite.Suite, args []string, opts PlanOptions) ([]*Stage, error) {
	javaDir := filepath.Join(root, s.Java.Dir)

	sources, err := clean.Expand(javaDir, s.Java.Sources)
	if err != nil {
		return nil, err
	}

	test, err := testStage(root, prefix+"test", s.Native.Dir, nil, args, opts)
	if err != nil {
		return nil, err
	}

	return []*Stage{
		{
			Name:   prefix + "clean",
			Dir:    javaDir,
			Remove: s.Java.Classes,
		},
		{
			Name:    prefix + "compile",
			Dir:     javaDir,
			Command: append([]string{"javac"}, sources...),
		},
		{
			Name:    prefix + "build",
			Dir:     filepath.Join(root, s.Native.Dir),
			Command: []string{"cargo", "build"},
		},
		test,
	}, nil
}

func testStage(root, name, dir string, features, args []string, opts PlanOptions) (*Stage, error) {
	overlay, err := libpath.Overlay(opts.lookup(), opts.JavaHome)
	if err != nil {
		return nil, err
	}

	command := []string{"cargo", "test"}
	if len(features) > 0 {
		command = append(command, "--features", strings.Join(features, ","))
	}
	command = append(command, args...)

	return &Stage{
		Name:    name,
		Dir:     filepath.Join(root, dir),
		Command: command,
		Env:     []string{overlay.String()},
	}, nil
}
