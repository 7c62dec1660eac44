// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package fs

import (
	"context"
	"fmt"
)

// SymlinkEntry is implemented by directory entries of file systems with symbolic links.
type SymlinkEntry interface {
	IsSymlink() bool
}

// SkipLink reports whether the entry at name is a symbolic link that cannot be copied as a file,
// because its target is a directory or does not exist.  The string is the reason.
func SkipLink(ctx context.Context, fileSystem FileSystem, name string, entry DirectoryEntry) (bool, string, error) {
	link, ok := entry.(SymlinkEntry)
	if !ok || !link.IsSymlink() {
		return false, "", nil
	}
	fi, err := fileSystem.Stat(ctx, name)
	if err != nil {
		if fileSystem.IsNotExist(err) {
			return true, "target does not exist", nil
		}
		return false, "", fmt.Errorf("error stating target of symbolic link %q: %w", name, err)
	}
	if fi.IsDir() {
		return true, "target is a directory", nil
	}
	return false, "", nil
}
