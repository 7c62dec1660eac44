// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package lfs

import (
	"encoding/json"
	"os"
	"time"
)

type LocalDirectoryEntry struct {
	fi os.FileInfo
}

func (lde *LocalDirectoryEntry) IsDir() bool {
	return lde.fi.IsDir()
}

// IsSymlink returns true if the entry is a symbolic link, which is never followed by ReadDir.
func (lde *LocalDirectoryEntry) IsSymlink() bool {
	return lde.fi.Mode()&os.ModeSymlink != 0
}

func (lde *LocalDirectoryEntry) Name() string {
	return lde.fi.Name()
}

func (lde *LocalDirectoryEntry) ModTime() time.Time {
	return lde.fi.ModTime()
}

func (lde *LocalDirectoryEntry) Size() int64 {
	if lde.fi.IsDir() {
		return 0
	}
	return lde.fi.Size()
}

func (lde *LocalDirectoryEntry) String() string {
	return lde.fi.Name()
}

func (lde *LocalDirectoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"dir":     lde.IsDir(),
		"modTime": lde.ModTime(),
		"name":    lde.Name(),
		"size":    lde.Size(),
	})
}

func NewLocalDirectoryEntry(fi os.FileInfo) *LocalDirectoryEntry {
	return &LocalDirectoryEntry{fi: fi}
}
