// Package suite defines the test suite manifest: where the Java and native
// sources live and which sub-projects the CI entry point recurses into.
package suite

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Suite describes one binding test suite rooted at a project directory.
type Suite struct {
	Name        string       `yaml:"name"`
	Java        Java         `yaml:"java"`
	Native      Native       `yaml:"native"`
	Test        Test         `yaml:"test,omitempty"`
	Subprojects []Subproject `yaml:"subprojects,omitempty"`
}

// Java locates the secondary-language source set.
type Java struct {
	Dir     string `yaml:"dir"`
	Sources string `yaml:"sources"`
	Classes string `yaml:"classes"`
}

// Native locates the native build root.
type Native struct {
	Dir string `yaml:"dir"`
}

// Test configures the terminal test invocation.
type Test struct {
	// Features are cargo feature flags enabled by the unconditional CI
	// test stage, on top of the default test run.
	Features []string `yaml:"features,omitempty"`
}

// Subproject is a nested project visited by the CI entry point when the
// toolchain channel allows it.
type Subproject struct {
	Path string `yaml:"path"`
	// TestOnly skips the nested compile and build stages and runs only
	// the native test command.
	TestOnly bool `yaml:"test_only,omitempty"`
}

// Default returns the built-in suite layout for the binding repository:
// Java test sources under java/, the native crate at the root, and the
// generator and rust-jni sub-projects on the nightly branch.
func Default() *Suite {
	return &Suite{
		Name: "rust-jni bindings",
		Java: Java{
			Dir:     "java",
			Sources: "rustjni/test/*.java",
			Classes: "rustjni/test/*.class",
		},
		Native: Native{Dir: "."},
		Test:   Test{Features: []string{"libjvm"}},
		Subprojects: []Subproject{
			{Path: "generator"},
			{Path: "rust-jni", TestOnly: true},
		},
	}
}

// Load reads a suite manifest from a YAML file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse suite manifest %s: %w", path, err)
	}

	return &s, nil
}

// Validate checks the suite manifest for errors.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("suite name is required")
	}
	if s.Java.Dir == "" {
		return fmt.Errorf("java source directory is required")
	}
	if s.Java.Sources == "" {
		return fmt.Errorf("java source pattern is required")
	}
	if s.Java.Classes == "" {
		return fmt.Errorf("java class pattern is required")
	}
	if s.Native.Dir == "" {
		return fmt.Errorf("native build directory is required")
	}

	seen := make(map[string]struct{})
	for _, sub := range s.Subprojects {
		if sub.Path == "" {
			return fmt.Errorf("subproject path is required")
		}
		if _, ok := seen[sub.Path]; ok {
			return fmt.Errorf("duplicate subproject path: %s", sub.Path)
		}
		seen[sub.Path] = struct{}{}
	}

	return nil
}
