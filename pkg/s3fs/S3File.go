// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package s3fs

import (
	"errors"
	"io"
)

// S3File is either the body of an object being read or an upload being written.
type S3File struct {
	name        string
	readCloser  io.ReadCloser
	writeCloser io.WriteCloser
}

func (f *S3File) Name() string {
	return f.name
}

func (f *S3File) Close() error {
	if f.writeCloser != nil {
		return f.writeCloser.Close()
	}
	if f.readCloser != nil {
		return f.readCloser.Close()
	}
	return nil
}

func (f *S3File) Read(p []byte) (int, error) {
	if f.readCloser == nil {
		return 0, errors.New("S3File was opened for writing and does not support the Read function")
	}
	return f.readCloser.Read(p)
}

func (f *S3File) Write(p []byte) (n int, err error) {
	if f.writeCloser == nil {
		return 0, errors.New("S3File was opened for reading and does not support the Write function")
	}
	return f.writeCloser.Write(p)
}

func NewS3File(name string, readCloser io.ReadCloser, writeCloser io.WriteCloser) *S3File {
	return &S3File{
		name:        name,
		readCloser:  readCloser,
		writeCloser: writeCloser,
	}
}
