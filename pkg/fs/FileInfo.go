// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package fs

import (
	"os"
	"time"
)

type FileInfo interface {
	IsDir() bool
	Mode() os.FileMode
	ModTime() time.Time
	Name() string
	Size() int64
	String() string
}
