// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package fs

import (
	"context"
	"os"
	"time"
)

// FileSystem is a tree of folders and files addressed by slash-separated names.
// Local file systems use absolute operating system paths, while object stores use names rooted at "/".
type FileSystem interface {
	Chtimes(ctx context.Context, name string, atime time.Time, mtime time.Time) error
	Dir(name string) string
	IsNotExist(err error) bool
	Join(name ...string) string
	MkdirAll(ctx context.Context, name string, mode os.FileMode) error
	Open(ctx context.Context, name string) (File, error)
	OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (File, error)
	ReadDir(ctx context.Context, name string) ([]DirectoryEntry, error)
	Remove(ctx context.Context, name string) error
	RemoveAll(ctx context.Context, name string) error
	Root() string
	Stat(ctx context.Context, name string) (FileInfo, error)
}
