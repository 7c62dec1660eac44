// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package s3fs

import (
	"fmt"
	"strings"
)

// Scheme is the URI scheme of S3 locations.
const Scheme = "s3://"

// IsURI returns true if the string uses the s3 scheme.
func IsURI(uri string) bool {
	return strings.HasPrefix(uri, Scheme)
}

// ParseURI returns the bucket and prefix of a URI such as s3://bucket/prefix.
// The prefix is returned without leading or trailing slashes.
func ParseURI(uri string) (string, string, error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("uri %q does not use the %q scheme", uri, Scheme)
	}
	bucket, prefix, _ := strings.Cut(uri[len(Scheme):], "/")
	if len(bucket) == 0 {
		return "", "", fmt.Errorf("uri %q is missing a bucket", uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}
