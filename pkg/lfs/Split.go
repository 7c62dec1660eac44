// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package lfs

import (
	"os"
	"strings"
)

// Split returns the elements of a local path.
// An absolute path begins with a "/" element.  Empty elements are dropped.
func Split(p string) []string {
	elements := strings.FieldsFunc(p, func(r rune) bool {
		return r < 128 && os.IsPathSeparator(uint8(r))
	})
	if len(p) > 0 && os.IsPathSeparator(p[0]) {
		return append([]string{"/"}, elements...)
	}
	return elements
}
