// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package s3fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/navwar/gomirror/pkg/fs"
)

// MaxDeleteObjects is the maximum number of keys in a single DeleteObjects request.
const MaxDeleteObjects = 1000

// S3FileSystem is a file system over the keys of a bucket under an optional prefix.
// Names are slash-separated absolute paths, with "/" naming the prefix itself.
// Directories are common prefixes, and are created as zero-length "key/" markers.
type S3FileSystem struct {
	client           Client
	bucket           string
	prefix           string
	bucketKeyEnabled bool
	partSize         int
	maxKeys          int32
}

// Chtimes is a no-op, since the last modified time of an object cannot be set.
func (s3fs *S3FileSystem) Chtimes(ctx context.Context, name string, atime time.Time, mtime time.Time) error {
	return nil
}

func (s3fs *S3FileSystem) Bucket() string {
	return s3fs.bucket
}

func (s3fs *S3FileSystem) Dir(name string) string {
	return Dir(name)
}

func (s3fs *S3FileSystem) Prefix() string {
	return s3fs.prefix
}

func (s3fs *S3FileSystem) isRoot(name string) bool {
	return path.Clean("/"+name) == "/"
}

// key returns the object key for the given name
func (s3fs *S3FileSystem) key(name string) string {
	k := strings.TrimPrefix(path.Clean("/"+name), "/")
	if len(s3fs.prefix) == 0 {
		return k
	}
	if len(k) == 0 {
		return s3fs.prefix
	}
	return s3fs.prefix + "/" + k
}

// directoryPrefix returns the prefix shared by every key under the given name
func (s3fs *S3FileSystem) directoryPrefix(name string) string {
	k := s3fs.key(name)
	if len(k) == 0 {
		return ""
	}
	return k + "/"
}

func (s3fs *S3FileSystem) IsNotExist(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, iofs.ErrNotExist) {
		return true
	}
	var apiError smithy.APIError
	if errors.As(err, &apiError) {
		switch apiError.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	var responseError *http.ResponseError
	if errors.As(err, &responseError) {
		if responseError.HTTPStatusCode() == 404 {
			return true
		}
	}
	return false
}

func (s3fs *S3FileSystem) Join(name ...string) string {
	return path.Join(name...)
}

func (s3fs *S3FileSystem) MkdirAll(ctx context.Context, name string, mode os.FileMode) error {
	if s3fs.isRoot(name) {
		return nil
	}
	putObjectInput := &s3.PutObjectInput{
		ACL:           types.ObjectCannedACLBucketOwnerFullControl,
		Body:          bytes.NewReader([]byte{}),
		Bucket:        aws.String(s3fs.bucket),
		ContentLength: aws.Int64(0),
		Key:           aws.String(s3fs.directoryPrefix(name)),
	}
	if s3fs.bucketKeyEnabled {
		putObjectInput.BucketKeyEnabled = aws.Bool(true)
	}
	_, err := s3fs.client.PutObject(ctx, putObjectInput)
	if err != nil {
		return fmt.Errorf("error creating directory marker for %q: %w", name, err)
	}
	return nil
}

func (s3fs *S3FileSystem) Open(ctx context.Context, name string) (fs.File, error) {
	getObjectOutput, err := s3fs.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s3fs.bucket),
		Key:    aws.String(s3fs.key(name)),
	})
	if err != nil {
		return nil, err
	}
	return NewS3File(name, getObjectOutput.Body, nil), nil
}

// OpenFile opens the object for reading, or for writing if the flag includes os.O_WRONLY or os.O_RDWR.
// Written bytes replace the object when the file is closed.
func (s3fs *S3FileSystem) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (fs.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return s3fs.Open(ctx, name)
	}
	if flag&os.O_APPEND != 0 {
		return nil, fmt.Errorf("error opening %q: appending to an object is not supported", name)
	}
	if s3fs.isRoot(name) {
		return nil, fmt.Errorf("error opening %q: root is a directory", name)
	}
	uploader := NewUploader(ctx, &UploaderInput{
		ACL:              types.ObjectCannedACLBucketOwnerFullControl,
		Client:           s3fs.client,
		Bucket:           s3fs.bucket,
		BucketKeyEnabled: s3fs.bucketKeyEnabled,
		Key:              s3fs.key(name),
		PartSize:         s3fs.partSize,
	})
	return NewS3File(name, nil, uploader), nil
}

// ReadDir lists the objects and common prefixes directly under the name, sorted by name.
func (s3fs *S3FileSystem) ReadDir(ctx context.Context, name string) ([]fs.DirectoryEntry, error) {
	prefix := s3fs.directoryPrefix(name)
	listObjectsInput := &s3.ListObjectsV2Input{
		Bucket:    aws.String(s3fs.bucket),
		Delimiter: aws.String("/"),
		Prefix:    aws.String(prefix),
	}
	if s3fs.maxKeys > 0 {
		listObjectsInput.MaxKeys = aws.Int32(s3fs.maxKeys)
	}
	directoryEntries := []fs.DirectoryEntry{}
	paginator := s3.NewListObjectsV2Paginator(s3fs.client, listObjectsInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing objects with prefix %q: %w", prefix, err)
		}
		for _, commonPrefix := range page.CommonPrefixes {
			directoryName := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(commonPrefix.Prefix), prefix), "/")
			if len(directoryName) == 0 {
				continue
			}
			directoryEntries = append(directoryEntries, NewS3DirectoryEntry(directoryName, true, time.Time{}, 0))
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			// the directory marker of the listed directory
			if key == prefix {
				continue
			}
			directoryEntries = append(directoryEntries, NewS3DirectoryEntry(
				strings.TrimPrefix(key, prefix),
				false,
				aws.ToTime(object.LastModified),
				aws.ToInt64(object.Size),
			))
		}
	}
	sort.Slice(directoryEntries, func(i, j int) bool {
		return directoryEntries[i].Name() < directoryEntries[j].Name()
	})
	return directoryEntries, nil
}

func (s3fs *S3FileSystem) Remove(ctx context.Context, name string) error {
	if s3fs.isRoot(name) {
		return fmt.Errorf("refusing to remove root of file system %q", s3fs.URI())
	}
	_, err := s3fs.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s3fs.bucket),
		Key:    aws.String(s3fs.key(name)),
	})
	if err != nil {
		return fmt.Errorf("error deleting object %q: %w", name, err)
	}
	return nil
}

func (s3fs *S3FileSystem) deleteObjects(ctx context.Context, keys []string) error {
	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}
	deleteObjectsOutput, err := s3fs.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s3fs.bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return err
	}
	if len(deleteObjectsOutput.Errors) > 0 {
		e := deleteObjectsOutput.Errors[0]
		return fmt.Errorf(
			"error deleting %d objects, including %q: %s",
			len(deleteObjectsOutput.Errors),
			aws.ToString(e.Key),
			aws.ToString(e.Message))
	}
	return nil
}

// RemoveAll deletes the object with the key of the name and every object under it.
func (s3fs *S3FileSystem) RemoveAll(ctx context.Context, name string) error {
	if s3fs.isRoot(name) {
		return fmt.Errorf("refusing to remove root of file system %q", s3fs.URI())
	}
	prefix := s3fs.directoryPrefix(name)
	keys := []string{s3fs.key(name)}
	paginator := s3.NewListObjectsV2Paginator(s3fs.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s3fs.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("error listing objects with prefix %q: %w", prefix, err)
		}
		for _, object := range page.Contents {
			keys = append(keys, aws.ToString(object.Key))
		}
	}
	for start := 0; start < len(keys); start += MaxDeleteObjects {
		end := start + MaxDeleteObjects
		if end > len(keys) {
			end = len(keys)
		}
		if err := s3fs.deleteObjects(ctx, keys[start:end]); err != nil {
			return fmt.Errorf("error deleting objects under %q: %w", name, err)
		}
	}
	return nil
}

// Root returns "/", the name of the prefix of the file system.
func (s3fs *S3FileSystem) Root() string {
	return "/"
}

// Stat reports an object as a file.
// If no object exists with the key of the name, then any object under the name makes it a directory.
func (s3fs *S3FileSystem) Stat(ctx context.Context, name string) (fs.FileInfo, error) {
	if s3fs.isRoot(name) {
		_, err := s3fs.client.HeadBucket(ctx, &s3.HeadBucketInput{
			Bucket: aws.String(s3fs.bucket),
		})
		if err != nil {
			return nil, fmt.Errorf("error checking bucket %q: %w", s3fs.bucket, err)
		}
		return NewS3FileInfo("/", time.Time{}, true, 0), nil
	}

	headObjectOutput, err := s3fs.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s3fs.bucket),
		Key:    aws.String(s3fs.key(name)),
	})
	if err == nil {
		return NewS3FileInfo(
			name,
			aws.ToTime(headObjectOutput.LastModified),
			false,
			aws.ToInt64(headObjectOutput.ContentLength),
		), nil
	}
	if !s3fs.IsNotExist(err) {
		return nil, fmt.Errorf("error checking object %q: %w", name, err)
	}

	prefix := s3fs.directoryPrefix(name)
	listObjectsOutput, err := s3fs.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s3fs.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("error listing objects with prefix %q: %w", prefix, err)
	}
	if len(listObjectsOutput.Contents) == 0 {
		return nil, &iofs.PathError{Op: "stat", Path: name, Err: iofs.ErrNotExist}
	}
	modTime := time.Time{}
	if object := listObjectsOutput.Contents[0]; aws.ToString(object.Key) == prefix {
		modTime = aws.ToTime(object.LastModified)
	}
	return NewS3FileInfo(name, modTime, true, 0), nil
}

// URI returns the location of the file system as s3://bucket/prefix.
func (s3fs *S3FileSystem) URI() string {
	if len(s3fs.prefix) == 0 {
		return fmt.Sprintf("s3://%s", s3fs.bucket)
	}
	return fmt.Sprintf("s3://%s/%s", s3fs.bucket, s3fs.prefix)
}

type S3FileSystemInput struct {
	Client           Client
	Bucket           string
	Prefix           string
	BucketKeyEnabled bool
	// PartSize is the size in bytes of each part of a multipart upload.
	PartSize int
	// MaxKeys limits the number of keys returned by each page of a listing.
	MaxKeys int32
}

func NewS3FileSystem(input *S3FileSystemInput) *S3FileSystem {
	return &S3FileSystem{
		client:           input.Client,
		bucket:           input.Bucket,
		prefix:           strings.Trim(input.Prefix, "/"),
		bucketKeyEnabled: input.BucketKeyEnabled,
		partSize:         input.PartSize,
		maxKeys:          input.MaxKeys,
	}
}
