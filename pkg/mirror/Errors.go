// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package mirror

import (
	"fmt"
)

// FilesystemError is the failure of a copy or delete of a single entry.
type FilesystemError struct {
	Op      string
	Kind    EntryKind
	Path    string
	Replica string
	Err     error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("error during %s of %s %q (replica %q): %s", e.Op, e.Kind, e.Path, e.Replica, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// WalkError is the failure to snapshot a tree.
type WalkError struct {
	Root string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("error walking tree %q: %s", e.Root, e.Err)
}

func (e *WalkError) Unwrap() error {
	return e.Err
}
