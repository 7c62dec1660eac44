// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package s3fs

import (
	"os"
	"path"
	"time"
)

// S3FileInfo describes an object, or a prefix that is treated as a directory.
type S3FileInfo struct {
	name    string
	modTime time.Time
	dir     bool
	size    int64
}

func (fi *S3FileInfo) IsDir() bool {
	return fi.dir
}

func (fi *S3FileInfo) Mode() os.FileMode {
	if fi.dir {
		return os.ModeDir | 0755
	}
	return 0644
}

func (fi *S3FileInfo) ModTime() time.Time {
	return fi.modTime
}

func (fi *S3FileInfo) Name() string {
	return path.Base(fi.name)
}

func (fi *S3FileInfo) Size() int64 {
	return fi.size
}

func (fi *S3FileInfo) String() string {
	return fi.name
}

func NewS3FileInfo(name string, modTime time.Time, dir bool, size int64) *S3FileInfo {
	return &S3FileInfo{
		name:    name,
		modTime: modTime,
		dir:     dir,
		size:    size,
	}
}
