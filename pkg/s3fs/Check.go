// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package s3fs

import (
	"fmt"
)

// Check returns an error if the source and replica locations, given as bucket/prefix,
// are the same or if one contains the other.
func Check(source string, replica string) error {
	sourceElements := Split(source)
	replicaElements := Split(replica)
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
	return fmt.Errorf("source and replica must be different locations: %q", source)
}
