// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package lfs

import (
	"os"
	"time"
)

type LocalFileInfo struct {
	fi os.FileInfo
}

func (lfi *LocalFileInfo) IsDir() bool {
	return lfi.fi.IsDir()
}

func (lfi *LocalFileInfo) Mode() os.FileMode {
	return lfi.fi.Mode()
}

func (lfi *LocalFileInfo) ModTime() time.Time {
	return lfi.fi.ModTime()
}

func (lfi *LocalFileInfo) Name() string {
	return lfi.fi.Name()
}

func (lfi *LocalFileInfo) Size() int64 {
	return lfi.fi.Size()
}

func (lfi *LocalFileInfo) String() string {
	return lfi.fi.Name()
}

func NewLocalFileInfo(fi os.FileInfo) *LocalFileInfo {
	return &LocalFileInfo{fi: fi}
}
