// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package mirror

import (
	"fmt"
	"strings"
)

func trimRoot(root string) string {
	return strings.TrimRight(root, "/")
}

// Map replaces the fromRoot prefix of name with toRoot.
// Returns an error if name is not fromRoot or a descendant of fromRoot.
func Map(name string, fromRoot string, toRoot string) (string, error) {
	from := trimRoot(fromRoot)
	to := trimRoot(toRoot)
	rest, ok := strings.CutPrefix(name, from)
	if !ok || (len(rest) > 0 && rest[0] != '/') {
		return "", fmt.Errorf("path %q is not under root %q", name, fromRoot)
	}
	if rest == "/" {
		rest = ""
	}
	if p := to + rest; len(p) > 0 {
		return p, nil
	}
	return "/", nil
}

// Relative returns name relative to root as a slash-separated path without a leading slash.
// The root itself is returned as ".".
func Relative(name string, root string) (string, error) {
	p, err := Map(name, root, "/")
	if err != nil {
		return "", err
	}
	if p == "/" {
		return ".", nil
	}
	return strings.TrimPrefix(p, "/"), nil
}
