// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package fs

import (
	"context"
)

// Exists returns true if the name exists on the file system.
// A not-exist error is reported as false, while any other error is returned.
func Exists(ctx context.Context, fileSystem FileSystem, name string) (bool, error) {
	_, err := fileSystem.Stat(ctx, name)
	if err != nil {
		if fileSystem.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
