// Package clean handles stale compiled output removal and source set
// expansion for the compile stage.
package clean

import (
	"fmt"
	"os"
	"path/filepath"
)

// Remove deletes every file under dir matching the glob pattern and returns
// the removed paths. A pattern that matches nothing is not an error: the
// clean step must be idempotent.
func Remove(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad clean pattern %s: %w", pattern, err)
	}

	var removed []string
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("remove %s: %w", match, err)
		}
		removed = append(removed, match)
	}
	return removed, nil
}

// Expand returns the source files under dir matching the glob pattern,
// relative to dir, for handing to the compiler. An empty match set is an
// error: a compile stage with no inputs means the tree layout is wrong.
func Expand(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad source pattern %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no sources match %s under %s", pattern, dir)
	}

	sources := make([]string, 0, len(matches))
	for _, match := range matches {
		rel, err := filepath.Rel(dir, match)
		if err != nil {
			return nil, err
		}
		sources = append(sources, rel)
	}
	return sources, nil
}
