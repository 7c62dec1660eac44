// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package lfs

import (
	"path"
)

// Dir returns the parent of the path.
// Unlike path.Dir, a trailing slash is ignored, so the parent of "a/b/" is "a".
func Dir(p string) string {
	elements := Split(p)
	switch len(elements) {
	case 0:
		return "."
	case 1:
		if elements[0] == "/" {
			return "/"
		}
		return "."
	}
	return path.Join(elements[:len(elements)-1]...)
}
