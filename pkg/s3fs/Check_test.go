// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package s3fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	assert.NoError(t, Check("bucket/a", "bucket/b"))
	assert.NoError(t, Check("bucket-a", "bucket-b"))
	assert.NoError(t, Check("bucket/a/c", "bucket/a/d"))
	assert.Error(t, Check("bucket", "bucket"))
	assert.Error(t, Check("bucket/a/", "bucket/a"))
	assert.Error(t, Check("bucket", "bucket/a"))
	assert.Error(t, Check("bucket/a/b", "bucket/a"))
}
