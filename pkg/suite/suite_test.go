package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultSuiteIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default suite must validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	manifest := `name: bindings
java:
  dir: java
  sources: rustjni/test/*.java
  classes: rustjni/test/*.class
native:
  dir: .
test:
  features: [libjvm]
subprojects:
  - path: generator
  - path: rust-jni
    test_only: true
`
	path := filepath.Join(t.TempDir(), "crosscheck.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	want := &Suite{
		Name:   "bindings",
		Java:   Java{Dir: "java", Sources: "rustjni/test/*.java", Classes: "rustjni/test/*.class"},
		Native: Native{Dir: "."},
		Test:   Test{Features: []string{"libjvm"}},
		Subprojects: []Subproject{
			{Path: "generator"},
			{Path: "rust-jni", TestOnly: true},
		},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("suite mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name  string
		suite Suite
	}{
		{"missing name", Suite{Java: Java{Dir: "java", Sources: "*.java", Classes: "*.class"}, Native: Native{Dir: "."}}},
		{"missing java dir", Suite{Name: "s", Java: Java{Sources: "*.java", Classes: "*.class"}, Native: Native{Dir: "."}}},
		{"missing sources", Suite{Name: "s", Java: Java{Dir: "java", Classes: "*.class"}, Native: Native{Dir: "."}}},
		{"missing classes", Suite{Name: "s", Java: Java{Dir: "java", Sources: "*.java"}, Native: Native{Dir: "."}}},
		{"missing native dir", Suite{Name: "s", Java: Java{Dir: "java", Sources: "*.java", Classes: "*.class"}}},
		{"empty subproject path", Suite{Name: "s", Java: Java{Dir: "java", Sources: "*.java", Classes: "*.class"}, Native: Native{Dir: "."}, Subprojects: []Subproject{{}}}},
		{"duplicate subproject", Suite{Name: "s", Java: Java{Dir: "java", Sources: "*.java", Classes: "*.class"}, Native: Native{Dir: "."}, Subprojects: []Subproject{{Path: "a"}, {Path: "a"}}}},
	}

	for _, tc := range cases {
		if err := tc.suite.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
