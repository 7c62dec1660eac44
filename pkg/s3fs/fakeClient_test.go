// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package s3fs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeObject struct {
	data    []byte
	modTime time.Time
}

// fakeClient is an in-memory bucket.
type fakeClient struct {
	mutex    sync.Mutex
	bucket   string
	objects  map[string]*fakeObject
	uploads  map[string]map[int32][]byte
	pageSize int32
	modTime  time.Time
	calls    map[string]int
}

func newFakeClient(bucket string) *fakeClient {
	return &fakeClient{
		bucket:  bucket,
		objects: map[string]*fakeObject{},
		uploads: map[string]map[int32][]byte{},
		modTime: time.Date(2021, time.March, 4, 5, 6, 7, 0, time.UTC),
		calls:   map[string]int{},
	}
}

func (c *fakeClient) call(name string, bucket *string) error {
	c.calls[name]++
	if aws.ToString(bucket) != c.bucket {
		return &types.NoSuchBucket{Message: aws.String(fmt.Sprintf("bucket %q does not exist", aws.ToString(bucket)))}
	}
	return nil
}

func (c *fakeClient) put(key string, data string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.objects[key] = &fakeObject{data: []byte(data), modTime: c.modTime}
}

func (c *fakeClient) get(key string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	o, ok := c.objects[key]
	if !ok {
		return "", false
	}
	return string(o.data), true
}

func (c *fakeClient) keys() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	keys := make([]string, 0, len(c.objects))
	for key := range c.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (c *fakeClient) Calls(name string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.calls[name]
}

func (c *fakeClient) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.call("CompleteMultipartUpload", params.Bucket); err != nil {
		return nil, err
	}
	parts, ok := c.uploads[aws.ToString(params.UploadId)]
	if !ok {
		return nil, &types.NoSuchUpload{}
	}
	data := []byte{}
	for _, part := range params.MultipartUpload.Parts {
		data = append(data, parts[aws.ToInt32(part.PartNumber)]...)
	}
	delete(c.uploads, aws.ToString(params.UploadId))
	c.objects[aws.ToString(params.Key)] = &fakeObject{data: data, modTime: c.modTime}
	return &s3.CompleteMultipartUploadOutput{Bucket: params.Bucket, Key: params.Key}, nil
}

func (c *fakeClient) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.call("CreateMultipartUpload", params.Bucket); err != nil {
		return nil, err
	}
	uploadID := fmt.Sprintf("upload-%d", c.calls["CreateMultipartUpload"])
	c.uploads[uploadID] = map[int32][]byte{}
	return &s3.CreateMultipartUploadOutput{Bucket: params.Bucket, Key: params.Key, UploadId: aws.String(uploadID)}, nil
}

func (c *fakeClient) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.call("DeleteObject", params.Bucket); err != nil {
		return nil, err
	}
	delete(c.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (c *fakeClient) DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.call("DeleteObjects", params.Bucket); err != nil {
		return nil, err
	}
	if len(params.Delete.Objects) > MaxDeleteObjects {
		return nil, fmt.Errorf("too many objects: %d", len(params.Delete.Objects))
	}
	for _, object := range params.Delete.Objects {
		delete(c.objects, aws.ToString(object.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (c *fakeClient) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.call("GetObject", params.Bucket); err != nil {
		return nil, err
	}
	o, ok := c.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(append([]byte{}, o.data...))),
		ContentLength: aws.Int64(int64(len(o.data))),
		LastModified:  aws.Time(o.modTime),
	}, nil
}

func (c *fakeClient) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.call("HeadBucket", params.Bucket); err != nil {
		return nil, err
	}
	return &s3.HeadBucketOutput{}, nil
}

func (c *fakeClient) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.call("HeadObject", params.Bucket); err != nil {
		return nil, err
	}
	o, ok := c.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(o.data))),
		LastModified:  aws.Time(o.modTime),
	}, nil
}

// ListObjectsV2 pages through the sorted keys, using the last returned key or common prefix as the continuation token.
func (c *fakeClient) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.call("ListObjectsV2", params.Bucket); err != nil {
		return nil, err
	}
	prefix := aws.ToString(params.Prefix)
	delimiter := aws.ToString(params.Delimiter)
	token := aws.ToString(params.ContinuationToken)
	maxKeys := int32(1000)
	if c.pageSize > 0 {
		maxKeys = c.pageSize
	}
	if params.MaxKeys != nil && *params.MaxKeys < maxKeys {
		maxKeys = *params.MaxKeys
	}

	keys := []string{}
	for key := range c.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	output := &s3.ListObjectsV2Output{
		Name:        params.Bucket,
		Prefix:      params.Prefix,
		IsTruncated: aws.Bool(false),
	}
	count := int32(0)
	last := ""
	for _, key := range keys {
		marker := key
		commonPrefix := false
		if len(delimiter) > 0 {
			if i := strings.Index(key[len(prefix):], delimiter); i >= 0 {
				marker = key[:len(prefix)+i+len(delimiter)]
				commonPrefix = true
			}
		}
		if len(token) > 0 && marker <= token {
			continue
		}
		if marker == last {
			continue
		}
		if count == maxKeys {
			output.IsTruncated = aws.Bool(true)
			output.NextContinuationToken = aws.String(last)
			break
		}
		if commonPrefix {
			output.CommonPrefixes = append(output.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(marker)})
		} else {
			o := c.objects[key]
			output.Contents = append(output.Contents, types.Object{
				Key:          aws.String(key),
				Size:         aws.Int64(int64(len(o.data))),
				LastModified: aws.Time(o.modTime),
			})
		}
		last = marker
		count++
	}
	output.KeyCount = aws.Int32(count)
	return output, nil
}

func (c *fakeClient) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.call("PutObject", params.Bucket); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	c.objects[aws.ToString(params.Key)] = &fakeObject{data: data, modTime: c.modTime}
	return &s3.PutObjectOutput{}, nil
}

func (c *fakeClient) UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.call("UploadPart", params.Bucket); err != nil {
		return nil, err
	}
	parts, ok := c.uploads[aws.ToString(params.UploadId)]
	if !ok {
		return nil, &types.NoSuchUpload{}
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	parts[aws.ToInt32(params.PartNumber)] = data
	return &s3.UploadPartOutput{ETag: aws.String(fmt.Sprintf("etag-%d", aws.ToInt32(params.PartNumber)))}, nil
}

var _ Client = (*fakeClient)(nil)
