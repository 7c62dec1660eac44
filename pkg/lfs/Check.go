// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package lfs

import (
	"fmt"
	"path/filepath"
)

// Check returns an error if the source and replica are the same directory or if one contains the other.
func Check(source string, replica string) error {
	sourceElements := Split(filepath.Clean(source))
	replicaElements := Split(filepath.Clean(replica))
	for i := 0; i < min(len(sourceElements), len(replicaElements)); i++ {
		if sourceElements[i] != replicaElements[i] {
			return nil
		}
	}
	switch {
	case len(sourceElements) > len(replicaElements):
		return fmt.Errorf("source %q is inside replica %q", source, replica)
	case len(sourceElements) < len(replicaElements):
		return fmt.Errorf("replica %q is inside source %q", replica, source)
	}
	return fmt.Errorf("source and replica must be different directories: %q", source)
}
