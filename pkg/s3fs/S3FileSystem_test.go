// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package s3fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileSystem(client *fakeClient, prefix string) *S3FileSystem {
	return NewS3FileSystem(&S3FileSystemInput{
		Client: client,
		Bucket: client.bucket,
		Prefix: prefix,
	})
}

func TestS3FileSystemKey(t *testing.T) {
	s3fs := NewS3FileSystem(&S3FileSystemInput{Bucket: "bucket"})
	assert.Equal(t, "", s3fs.key("/"))
	assert.Equal(t, "a/b", s3fs.key("/a/b"))
	assert.Equal(t, "", s3fs.directoryPrefix("/"))
	assert.Equal(t, "a/", s3fs.directoryPrefix("/a"))
	assert.Equal(t, "s3://bucket", s3fs.URI())

	s3fs = NewS3FileSystem(&S3FileSystemInput{Bucket: "bucket", Prefix: "/backup/"})
	assert.Equal(t, "backup", s3fs.key("/"))
	assert.Equal(t, "backup/a/b", s3fs.key("/a/b"))
	assert.Equal(t, "backup/", s3fs.directoryPrefix("/"))
	assert.Equal(t, "backup/a/", s3fs.directoryPrefix("/a/"))
	assert.Equal(t, "s3://bucket/backup", s3fs.URI())
	assert.Equal(t, "/", s3fs.Root())
}

func TestS3FileSystemStat(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient("bucket")
	client.put("backup/a.txt", "hello")
	client.put("backup/d/f.txt", "f")
	client.put("backup/e/", "")
	s3fs := newTestFileSystem(client, "backup")

	fi, err := s3fs.Stat(ctx, "/")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	fi, err = s3fs.Stat(ctx, "/a.txt")
	require.NoError(t, err)
	assert.False(t, fi.IsDir())
	assert.Equal(t, int64(5), fi.Size())
	assert.Equal(t, "a.txt", fi.Name())
	assert.True(t, fi.ModTime().Equal(client.modTime))

	fi, err = s3fs.Stat(ctx, "/d")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.True(t, fi.Mode().IsDir())

	fi, err = s3fs.Stat(ctx, "/e")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.True(t, fi.ModTime().Equal(client.modTime))

	_, err = s3fs.Stat(ctx, "/missing")
	require.Error(t, err)
	assert.True(t, s3fs.IsNotExist(err))

	_, err = s3fs.Stat(ctx, "/a")
	require.Error(t, err)
	assert.True(t, s3fs.IsNotExist(err))
}

func TestS3FileSystemMissingBucket(t *testing.T) {
	ctx := context.Background()
	s3fs := NewS3FileSystem(&S3FileSystemInput{
		Client: newFakeClient("bucket"),
		Bucket: "other",
	})
	_, err := s3fs.Stat(ctx, "/")
	require.Error(t, err)
	assert.True(t, s3fs.IsNotExist(err))
}

func TestS3FileSystemIsNotExist(t *testing.T) {
	s3fs := NewS3FileSystem(&S3FileSystemInput{Bucket: "bucket"})
	assert.False(t, s3fs.IsNotExist(nil))
	assert.False(t, s3fs.IsNotExist(io.EOF))
	assert.True(t, s3fs.IsNotExist(os.ErrNotExist))
}

func TestS3FileSystemReadDir(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient("bucket")
	client.pageSize = 1
	client.put("backup/", "")
	client.put("backup/b.txt", "bb")
	client.put("backup/a.txt", "a")
	client.put("backup/d/f.txt", "f")
	client.put("backup/d/g/h.txt", "h")
	client.put("backup/e/", "")
	client.put("backupother/x.txt", "x")
	s3fs := newTestFileSystem(client, "backup")

	directoryEntries, err := s3fs.ReadDir(ctx, "/")
	require.NoError(t, err)
	names := []string{}
	dirs := []bool{}
	for _, de := range directoryEntries {
		names = append(names, de.Name())
		dirs = append(dirs, de.IsDir())
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "d", "e"}, names)
	assert.Equal(t, []bool{false, false, true, true}, dirs)
	assert.Equal(t, int64(2), directoryEntries[1].Size())
	assert.GreaterOrEqual(t, client.Calls("ListObjectsV2"), 4)

	directoryEntries, err = s3fs.ReadDir(ctx, "/d")
	require.NoError(t, err)
	require.Len(t, directoryEntries, 2)
	assert.Equal(t, "f.txt", directoryEntries[0].Name())
	assert.Equal(t, "g", directoryEntries[1].Name())
	assert.True(t, directoryEntries[1].IsDir())
}

func TestS3FileSystemReadWrite(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient("bucket")
	s3fs := newTestFileSystem(client, "")

	require.NoError(t, s3fs.MkdirAll(ctx, "/d", 0755))
	_, ok := client.get("d/")
	assert.True(t, ok)
	require.NoError(t, s3fs.MkdirAll(ctx, "/", 0755))
	assert.Equal(t, []string{"d/"}, client.keys())

	f, err := s3fs.OpenFile(ctx, "/d/a.txt", os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = f.Write([]byte("world"))
	require.NoError(t, err)
	_, ok = client.get("d/a.txt")
	assert.False(t, ok, "object is written on close")
	require.NoError(t, f.Close())

	data, ok := client.get("d/a.txt")
	require.True(t, ok)
	assert.Equal(t, "hello world", data)

	f, err = s3fs.Open(ctx, "/d/a.txt")
	require.NoError(t, err)
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "hello world", string(b))
	_, err = f.Write([]byte("x"))
	assert.Error(t, err)

	_, err = s3fs.Open(ctx, "/d/missing.txt")
	require.Error(t, err)
	assert.True(t, s3fs.IsNotExist(err))

	_, err = s3fs.OpenFile(ctx, "/d/a.txt", os.O_WRONLY|os.O_APPEND, 0644)
	assert.Error(t, err)
}

func TestS3FileSystemRemove(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient("bucket")
	client.put("backup/a.txt", "a")
	client.put("backup/d/", "")
	client.put("backup/d/f.txt", "f")
	client.put("backup/d/g/h.txt", "h")
	client.put("backup/dd.txt", "dd")
	s3fs := newTestFileSystem(client, "backup")

	require.NoError(t, s3fs.Remove(ctx, "/a.txt"))
	require.NoError(t, s3fs.RemoveAll(ctx, "/d"))
	assert.Equal(t, []string{"backup/dd.txt"}, client.keys())
	assert.Equal(t, 1, client.Calls("DeleteObjects"))

	assert.Error(t, s3fs.Remove(ctx, "/"))
	assert.Error(t, s3fs.RemoveAll(ctx, "/"))
	assert.Equal(t, []string{"backup/dd.txt"}, client.keys())
}

func TestS3FileSystemRemoveAllBatches(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient("bucket")
	for i := 0; i < MaxDeleteObjects+10; i++ {
		client.put(fmt.Sprintf("d/%04d.txt", i), "x")
	}
	s3fs := newTestFileSystem(client, "")

	require.NoError(t, s3fs.RemoveAll(ctx, "/d"))
	assert.Empty(t, client.keys())
	assert.Equal(t, 2, client.Calls("DeleteObjects"))
}
