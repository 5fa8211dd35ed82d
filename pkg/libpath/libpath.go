// Package libpath computes the dynamic-linker search path overlay needed
// to load the JVM's native runtime library at test time.
package libpath

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Entry is a single environment variable assignment to be merged onto the
// inherited process environment for the scope of one stage.
type Entry struct {
	Key   string
	Value string
}

// String renders the entry in KEY=VALUE form for exec environments.
func (e Entry) String() string {
	return e.Key + "=" + e.Value
}

// Variable returns the library search path variable for the given GOOS.
func Variable(goos string) string {
	switch goos {
	case "darwin":
		return "DYLD_LIBRARY_PATH"
	case "windows":
		return "PATH"
	default:
		return "LD_LIBRARY_PATH"
	}
}

// ServerDir derives the directory holding the JVM server runtime library
// from a Java installation root.
func ServerDir(javaHome string) string {
	return filepath.Join(javaHome, "jre", "lib", "server")
}

// Append joins an existing search path value and a new directory with the
// platform path-list separator. The existing value, if any, keeps its
// position ahead of the appended directory.
func Append(existing, dir string) string {
	if existing == "" {
		return dir
	}
	return existing + string(os.PathListSeparator) + dir
}

// Overlay computes the environment overlay for the test stage as a pure
// function of the base environment lookup and the Java installation path.
// It never mutates the process environment.
func Overlay(lookup func(string) string, javaHome string) (Entry, error) {
	if javaHome == "" {
		return Entry{}, fmt.Errorf("java installation path is required to derive the library path")
	}
	key := Variable(runtime.GOOS)
	return Entry{Key: key, Value: Append(lookup(key), ServerDir(javaHome))}, nil
}
