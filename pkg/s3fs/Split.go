// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package s3fs

import (
	"strings"
)

// Split returns the elements of a slash-separated key or bucket/prefix location.
// A leading slash becomes a "/" element.  Empty elements are dropped, so "a//b/" is the same as "a/b".
func Split(p string) []string {
	elements := strings.FieldsFunc(p, func(r rune) bool {
		return r == '/'
	})
	if strings.HasPrefix(p, "/") {
		return append([]string{"/"}, elements...)
	}
	return elements
}
