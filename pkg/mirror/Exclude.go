// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package mirror

import (
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar/v4"
)

// Exclude matches relative slash-separated paths against doublestar patterns.
// A pattern matches either the whole relative path or the base name of the entry.
// A nil Exclude matches nothing.
type Exclude struct {
	patterns []string
}

func (e *Exclude) Match(relativePath string) bool {
	if e == nil {
		return false
	}
	base := path.Base(relativePath)
	for _, pattern := range e.patterns {
		if ok, _ := doublestar.Match(pattern, relativePath); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Under returns a function reporting whether a name under root is excluded.
func (e *Exclude) Under(root string) func(name string) bool {
	return func(name string) bool {
		if e == nil {
			return false
		}
		relativePath, err := Relative(name, root)
		if err != nil || relativePath == "." {
			return false
		}
		return e.Match(relativePath)
	}
}

func (e *Exclude) Patterns() []string {
	if e == nil {
		return nil
	}
	return append([]string{}, e.patterns...)
}

// NewExclude validates the patterns and returns a matcher.
// Empty patterns are ignored.
func NewExclude(patterns []string) (*Exclude, error) {
	e := &Exclude{patterns: []string{}}
	for _, pattern := range patterns {
		if len(pattern) == 0 {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
		e.patterns = append(e.patterns, pattern)
	}
	return e, nil
}
